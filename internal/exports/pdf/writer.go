// Package pdf renders an export layout into a PDF 1.4 document with no
// third-party dependencies. Each page's MediaBox is exactly the layout's
// page size in points; images are drawn full-bleed with a centered
// crop-to-fill, and pages without a usable image get a placeholder.
package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"unicode/utf8"

	"github.com/decksmith/deck-backend/internal/exports/layout"
)

const pdfVersion = "1.4"

// Renderer emits PDF documents from layout documents.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// ContentType implements the exporter contract.
func (r *Renderer) ContentType() string {
	return "application/pdf"
}

// Extension implements the exporter contract.
func (r *Renderer) Extension() string {
	return "pdf"
}

// Render produces the PDF bytes. assets maps slide image paths to raw image
// bytes; slides whose image is absent or undecodable fall back to a
// placeholder instead of failing the document.
func (r *Renderer) Render(doc *layout.Document, assets map[string][]byte) ([]byte, error) {
	if len(doc.Slides) == 0 {
		return nil, fmt.Errorf("document has no slides")
	}

	w := newWriter()

	type pageRefs struct {
		page    int
		content int
		img     int // 0 when the slide has no drawable image
		embed   *embeddedImage
	}

	// Object numbering: 1 catalog, 2 page tree, 3 base font, then
	// page/content/image triplets in slide order so repeated renders of the
	// same layout are structurally identical.
	refs := make([]pageRefs, len(doc.Slides))
	next := 4
	for i := range doc.Slides {
		refs[i].page = next
		refs[i].content = next + 1
		next += 2
		if data, ok := assets[doc.Slides[i].ImagePath]; ok && doc.Slides[i].ImagePath != "" {
			if em, err := embedImage(data); err == nil {
				refs[i].img = next
				refs[i].embed = em
				next++
			}
		}
	}

	kids := make([]string, len(refs))
	for i, pr := range refs {
		kids[i] = fmt.Sprintf("%d 0 R", pr.page)
	}

	w.object(1, "<< /Type /Catalog /Pages 2 0 R >>")
	w.object(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), len(refs)))
	w.object(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i := range doc.Slides {
		s := &doc.Slides[i]
		pr := refs[i]

		res := "/Font << /F1 3 0 R >>"
		if pr.img != 0 {
			res += fmt.Sprintf(" /XObject << /Im0 %d 0 R >>", pr.img)
		}
		w.object(pr.page, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] /Resources << %s >> /Contents %d 0 R >>",
			num(doc.WidthPt), num(doc.HeightPt), res, pr.content))

		var content string
		if pr.img != 0 {
			content = imageContent(doc.WidthPt, doc.HeightPt, pr.embed.width, pr.embed.height)
		} else {
			content = placeholderContent(doc.WidthPt, doc.HeightPt, s)
		}
		w.stream(pr.content, "", deflate([]byte(content)), true)

		if pr.img != 0 {
			w.stream(pr.img, pr.embed.dict(), pr.embed.data, pr.embed.flate)
		}
	}

	return w.finish(), nil
}

// imageContent clips to the page and scales the image so the shorter-fitting
// axis fills the page, cropping overflow symmetrically.
func imageContent(pageW, pageH float64, imgW, imgH int) string {
	scale := pageW / float64(imgW)
	if s := pageH / float64(imgH); s > scale {
		scale = s
	}
	drawW := float64(imgW) * scale
	drawH := float64(imgH) * scale
	tx := (pageW - drawW) / 2
	ty := (pageH - drawH) / 2

	return fmt.Sprintf("q\n0 0 %s %s re W n\n%s 0 0 %s %s %s cm\n/Im0 Do\nQ\n",
		num(pageW), num(pageH), num(drawW), num(drawH), num(tx), num(ty))
}

// placeholderContent renders the slide title and outline points on a neutral
// background so missing images never break page count or ordering.
func placeholderContent(pageW, pageH float64, s *layout.Slide) string {
	var b strings.Builder

	fmt.Fprintf(&b, "q\n0.96 0.96 0.97 rg\n0 0 %s %s re f\n", num(pageW), num(pageH))
	fmt.Fprintf(&b, "0.78 0.78 0.82 RG 1 w\n%s %s %s %s re S\nQ\n",
		num(pageW*0.04), num(pageH*0.04), num(pageW*0.92), num(pageH*0.92))

	titleSize := pageH * 0.07
	bodySize := pageH * 0.035
	y := pageH * 0.72

	fmt.Fprintf(&b, "BT\n/F1 %s Tf\n0.22 0.24 0.30 rg\n%s %s Td\n(%s) Tj\nET\n",
		num(titleSize), num(centerX(pageW, s.Title, titleSize)), num(y), escapeText(s.Title))

	y -= titleSize * 1.8
	for _, pt := range s.Points {
		line := "- " + pt
		fmt.Fprintf(&b, "BT\n/F1 %s Tf\n0.35 0.37 0.42 rg\n%s %s Td\n(%s) Tj\nET\n",
			num(bodySize), num(pageW*0.12), num(y), escapeText(line))
		y -= bodySize * 1.6
		if y < pageH*0.08 {
			break
		}
	}

	return b.String()
}

// centerX estimates a horizontal offset that roughly centers Helvetica text.
// Width is estimated per glyph, not per byte, so accented titles center the
// same as plain ASCII ones.
func centerX(pageW float64, text string, size float64) float64 {
	width := 0.5 * size * float64(utf8.RuneCountInString(text))
	x := (pageW - width) / 2
	if x < 0 {
		x = 0
	}
	return x
}

// escapeText escapes string delimiters and keeps the output inside WinAnsi:
// Latin-1 runes become octal escapes, runes beyond it (CJK and other
// scripts) fall back to '?' since only the standard Helvetica font is
// carried. Full font embedding is out of scope for this emitter.
func escapeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '(' || r == ')':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r >= 32 && r <= 126:
			b.WriteRune(r)
		case r >= 0xA0 && r <= 0xFF:
			fmt.Fprintf(&b, `\%03o`, r)
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

// num formats a coordinate without trailing float noise.
func num(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// embeddedImage is an image XObject payload ready for the file.
type embeddedImage struct {
	width  int
	height int
	data   []byte
	filter string // DCTDecode for passthrough JPEG, FlateDecode otherwise
	gray   bool
	flate  bool // true when data is already zlib-compressed
}

func (e *embeddedImage) dict() string {
	cs := "/DeviceRGB"
	if e.gray {
		cs = "/DeviceGray"
	}
	return fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace %s /BitsPerComponent 8 /Filter /%s",
		e.width, e.height, cs, e.filter)
}

// embedImage prepares raw image bytes for inclusion. JPEG passes through as
// DCTDecode; everything else is decoded, flattened onto white and re-encoded
// as zlib-compressed raw samples.
func embedImage(data []byte) (*embeddedImage, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image config: %w", err)
	}

	if format == "jpeg" {
		return &embeddedImage{
			width:  cfg.Width,
			height: cfg.Height,
			data:   data,
			filter: "DCTDecode",
			gray:   cfg.ColorModel == color.GrayModel,
		}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	rgba := image.NewNRGBA(b)
	// Flatten transparency onto white; PDF raw samples carry no alpha.
	draw.Draw(rgba, b, image.NewUniform(image.White), image.Point{}, draw.Src)
	draw.Draw(rgba, b, img, b.Min, draw.Over)

	raw := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := rgba.Pix[(y-b.Min.Y)*rgba.Stride:]
		for x := 0; x < b.Dx(); x++ {
			raw = append(raw, row[x*4], row[x*4+1], row[x*4+2])
		}
	}

	return &embeddedImage{
		width:  b.Dx(),
		height: b.Dy(),
		data:   deflate(raw),
		filter: "FlateDecode",
		flate:  true,
	}, nil
}

func deflate(data []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(data)
	zw.Close()
	return buf.Bytes()
}

// writer assembles numbered objects, the xref table and the trailer.
type writer struct {
	buf     bytes.Buffer
	offsets map[int]int
	maxObj  int
}

func newWriter() *writer {
	w := &writer{offsets: map[int]int{}}
	w.buf.WriteString("%PDF-" + pdfVersion + "\n")
	w.buf.Write([]byte{'%', 0xE2, 0xE3, 0xCF, 0xD3, '\n'})
	return w
}

func (w *writer) object(n int, body string) {
	w.begin(n)
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", n, body)
}

// stream writes a stream object; extraDict is appended inside the dictionary
// before /Length. flate streams already carry their filter in extraDict or
// get /Filter /FlateDecode when extraDict is empty.
func (w *writer) stream(n int, extraDict string, data []byte, flateContent bool) {
	w.begin(n)
	dict := extraDict
	if dict == "" && flateContent {
		dict = "/Filter /FlateDecode"
	}
	fmt.Fprintf(&w.buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n", n, dict, len(data))
	w.buf.Write(data)
	w.buf.WriteString("\nendstream\nendobj\n")
}

func (w *writer) begin(n int) {
	w.offsets[n] = w.buf.Len()
	if n > w.maxObj {
		w.maxObj = n
	}
}

func (w *writer) finish() []byte {
	xrefPos := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n", w.maxObj+1)
	w.buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= w.maxObj; i++ {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", w.offsets[i])
	}
	fmt.Fprintf(&w.buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		w.maxObj+1, xrefPos)
	return w.buf.Bytes()
}
