package layout

import (
	"github.com/decksmith/deck-backend/internal/projects/domain"
)

// Rect is an axis-aligned box in page coordinates (points, origin bottom
// left as in PDF user space).
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Slide is the format-independent geometry and content of one page. Content
// fields are empty, not missing, when the source page is still mid-pipeline:
// the slide keeps its ordinal position regardless.
type Slide struct {
	Index       int      `json:"index"`
	Title       string   `json:"title"`
	Points      []string `json:"points"`
	Description string   `json:"description"`
	ImagePath   string   `json:"image_path,omitempty"`
	Frame       Rect     `json:"frame"`
}

// Document is the abstract export layout: one page size for the whole
// document, derived from the project's aspect ratio, plus ordered slides.
// Building it twice from the same snapshot yields identical geometry.
//
// When a source image's native ratio differs from the page ratio, exporters
// fit it with a centered crop-to-fill; the page dimensions never change.
type Document struct {
	ProjectID string             `json:"project_id"`
	Ratio     domain.AspectRatio `json:"ratio"`
	WidthPt   float64            `json:"width_pt"`
	HeightPt  float64            `json:"height_pt"`
	CX        int64              `json:"cx"`
	CY        int64              `json:"cy"`
	Slides    []Slide            `json:"slides"`
}

// Build derives the document layout from a project snapshot. Fails only on
// an empty project; partially populated pages degrade to placeholder slides.
func Build(p *domain.Project) (*Document, error) {
	if len(p.Pages) == 0 {
		return nil, domain.ErrEmptyProject
	}

	ratio, err := domain.ParseAspectRatio(string(p.ImageAspectRatio))
	if err != nil {
		return nil, err
	}

	w, h := ratio.DimsPoints()
	cx, cy := ratio.DimsEMU()

	doc := &Document{
		ProjectID: p.ProjectID,
		Ratio:     ratio,
		WidthPt:   w,
		HeightPt:  h,
		CX:        cx,
		CY:        cy,
		Slides:    make([]Slide, 0, len(p.Pages)),
	}

	// Pages arrive ordered from the snapshot; keep strictly increasing
	// order_index in the output.
	for i := range p.Pages {
		pg := &p.Pages[i]
		s := Slide{
			Index: pg.OrderIndex,
			Title: pg.Title(),
			Frame: Rect{X: 0, Y: 0, W: w, H: h},
		}
		if pg.OutlineContent != nil {
			s.Points = append([]string(nil), pg.OutlineContent.Points...)
		}
		if pg.DescriptionContent != nil {
			s.Description = pg.DescriptionContent.Text
		}
		s.ImagePath = pg.GeneratedImagePath
		doc.Slides = append(doc.Slides, s)
	}

	return doc, nil
}
