package domain

import "fmt"

// AspectRatio is one of the fixed set of slide aspect ratios a project can use.
type AspectRatio string

const (
	Ratio16x9 AspectRatio = "16:9"
	Ratio4x3  AspectRatio = "4:3"
	Ratio1x1  AspectRatio = "1:1"
	Ratio9x16 AspectRatio = "9:16"
	Ratio3x2  AspectRatio = "3:2"
)

// ratioFractions maps each ratio token to its width:height fraction.
var ratioFractions = map[AspectRatio][2]int64{
	Ratio16x9: {16, 9},
	Ratio4x3:  {4, 3},
	Ratio1x1:  {1, 1},
	Ratio9x16: {9, 16},
	Ratio3x2:  {3, 2},
}

// Base dimensions: the longer page side is fixed per unit system so that
// width/height always reduces to the exact requested ratio.
const (
	baseLongSidePt  = 720.0   // 10in at 72pt/in, PDF user space
	baseLongSideEMU = 9144000 // 10in at 914400 EMU/in, OOXML sldSz
)

// AspectRatios returns the enumerated ratio set in display order.
func AspectRatios() []AspectRatio {
	return []AspectRatio{Ratio16x9, Ratio4x3, Ratio1x1, Ratio9x16, Ratio3x2}
}

// ParseAspectRatio validates a ratio token against the enumerated set.
// Unknown or malformed tokens are rejected, never coerced to a default.
func ParseAspectRatio(s string) (AspectRatio, error) {
	r := AspectRatio(s)
	if _, ok := ratioFractions[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAspectRatio, s)
	}
	return r, nil
}

// Fraction returns the width and height terms of the ratio.
func (r AspectRatio) Fraction() (num, den int64) {
	f := ratioFractions[r]
	return f[0], f[1]
}

// Value reports width/height as a float, 0 for unknown tokens.
func (r AspectRatio) Value() float64 {
	f, ok := ratioFractions[r]
	if !ok {
		return 0
	}
	return float64(f[0]) / float64(f[1])
}

// DimsPoints returns the page size in PDF points (72 per inch) with the
// longer side normalized to baseLongSidePt.
func (r AspectRatio) DimsPoints() (w, h float64) {
	num, den := r.Fraction()
	if num >= den {
		return baseLongSidePt, baseLongSidePt * float64(den) / float64(num)
	}
	return baseLongSidePt * float64(num) / float64(den), baseLongSidePt
}

// DimsEMU returns the slide size in EMU (914400 per inch) with the longer
// side normalized to baseLongSideEMU. Every enumerated ratio divides the
// base evenly, so cx/cy are exact integers.
func (r AspectRatio) DimsEMU() (cx, cy int64) {
	num, den := r.Fraction()
	if num >= den {
		return baseLongSideEMU, baseLongSideEMU * den / num
	}
	return baseLongSideEMU * num / den, baseLongSideEMU
}

// RatioLocked reports whether the aspect ratio is frozen for the given
// pages: true as soon as any page carries a generated image reference.
func RatioLocked(pages []Page) bool {
	for i := range pages {
		if pages[i].GeneratedImagePath != "" {
			return true
		}
	}
	return false
}
