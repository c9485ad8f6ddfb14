package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Project status constants
const (
	ProjectStatusCreated   = "CREATED"
	ProjectStatusOutline   = "OUTLINE_GENERATED"
	ProjectStatusImage     = "IMAGE_GENERATED"
	ProjectStatusCompleted = "COMPLETED"
	ProjectStatusFailed    = "FAILED"
)

// OutlineContent is the structured outline of a single page. It may be
// absent on a page at any stage.
type OutlineContent struct {
	Title  string   `json:"title"`
	Points []string `json:"points"`
}

// DescriptionContent is the generated slide description for a page.
type DescriptionContent struct {
	Text string `json:"text"`
}

// Page is one slide-equivalent unit within a project. Content fields are
// populated monotonically by the generation stages and may remain nil
// indefinitely; consumers must tolerate absence.
type Page struct {
	PageID             string              `json:"page_id"`
	ProjectID          string              `json:"project_id"`
	OrderIndex         int                 `json:"order_index"`
	OutlineContent     *OutlineContent     `json:"outline_content"`
	DescriptionContent *DescriptionContent `json:"description_content"`
	GeneratedImagePath string              `json:"generated_image_path,omitempty"`
	Status             string              `json:"status"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// Title returns the outline title, or a stable placeholder derived from the
// page's ordinal position when no outline has been generated yet.
func (p *Page) Title() string {
	if p.OutlineContent != nil && strings.TrimSpace(p.OutlineContent.Title) != "" {
		return p.OutlineContent.Title
	}
	return fmt.Sprintf("Page %d", p.OrderIndex+1)
}

// GeneratedImageURL is the public path the page image is served under, or ""
// when no image has been generated.
func (p *Page) GeneratedImageURL() string {
	if p.GeneratedImagePath == "" {
		return ""
	}
	return "/files/" + p.GeneratedImagePath
}

// Project is the aggregate root: project metadata plus the ordered page
// collection. All mutations go through its methods so the aspect-ratio lock
// and the contiguous order_index invariant are enforced in one place.
type Project struct {
	ProjectID        string      `json:"project_id"`
	Status           string      `json:"status"`
	CreationType     string      `json:"creation_type"`
	IdeaPrompt       string      `json:"idea_prompt"`
	ImageAspectRatio AspectRatio `json:"image_aspect_ratio"`
	RatioLocked      bool        `json:"ratio_locked"`
	Pages            []Page      `json:"pages"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// NewProject creates an empty project with a validated ratio.
func NewProject(creationType, ideaPrompt, ratio string) (*Project, error) {
	r, err := ParseAspectRatio(ratio)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Project{
		ProjectID:        uuid.New().String(),
		Status:           ProjectStatusCreated,
		CreationType:     creationType,
		IdeaPrompt:       ideaPrompt,
		ImageAspectRatio: r,
		Pages:            []Page{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Locked reports whether the project's aspect ratio is frozen. The lock is
// monotonic: once an image has been recorded it stays locked even if the
// image reference is later removed.
func (p *Project) Locked() bool {
	return p.RatioLocked || RatioLocked(p.Pages)
}

// UpdateAspectRatio validates and applies a new ratio, failing when any page
// already has a generated image.
func (p *Project) UpdateAspectRatio(ratio string) error {
	r, err := ParseAspectRatio(ratio)
	if err != nil {
		return err
	}
	if p.Locked() {
		return ErrAspectRatioLocked
	}
	p.ImageAspectRatio = r
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// AddPage appends a new empty page, or inserts at orderIndex and renumbers
// the pages that follow. Returns the created page.
func (p *Project) AddPage(orderIndex *int) *Page {
	idx := len(p.Pages)
	if orderIndex != nil {
		idx = *orderIndex
		if idx < 0 {
			idx = 0
		}
		if idx > len(p.Pages) {
			idx = len(p.Pages)
		}
	}

	now := time.Now().UTC()
	page := Page{
		PageID:     uuid.New().String(),
		ProjectID:  p.ProjectID,
		OrderIndex: idx,
		Status:     PageStatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	p.Pages = append(p.Pages, Page{})
	copy(p.Pages[idx+1:], p.Pages[idx:])
	p.Pages[idx] = page
	p.renumber()
	p.UpdatedAt = now

	return &p.Pages[idx]
}

// RemovePage deletes a page and renumbers the remainder. Removing an imaged
// page does not unlock the aspect ratio.
func (p *Project) RemovePage(pageID string) error {
	i := p.pageIndex(pageID)
	if i < 0 {
		return ErrPageNotFound
	}
	if p.Pages[i].GeneratedImagePath != "" {
		p.RatioLocked = true
	}
	p.Pages = append(p.Pages[:i], p.Pages[i+1:]...)
	p.renumber()
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// RecordGeneratedImage stores the image reference on a page, advances it to
// IMAGE_GENERATED and permanently locks the project aspect ratio.
func (p *Project) RecordGeneratedImage(pageID, path string) error {
	i := p.pageIndex(pageID)
	if i < 0 {
		return ErrPageNotFound
	}
	page := &p.Pages[i]
	if err := page.TransitionPage(PageStatusImage); err != nil {
		return err
	}
	now := time.Now().UTC()
	page.GeneratedImagePath = path
	page.UpdatedAt = now

	p.RatioLocked = true
	if p.Status == ProjectStatusCreated || p.Status == ProjectStatusOutline {
		p.Status = ProjectStatusImage
	}
	p.UpdatedAt = now
	return nil
}

// SetPageContent updates the outline and/or description of a page and
// advances its status when a later stage is reached.
func (p *Project) SetPageContent(pageID string, outline *OutlineContent, description *DescriptionContent) error {
	i := p.pageIndex(pageID)
	if i < 0 {
		return ErrPageNotFound
	}
	page := &p.Pages[i]
	now := time.Now().UTC()
	if outline != nil {
		page.OutlineContent = outline
		if CanTransitionPage(page.Status, PageStatusOutline) {
			page.Status = PageStatusOutline
		}
	}
	if description != nil {
		page.DescriptionContent = description
		if CanTransitionPage(page.Status, PageStatusDescription) {
			page.Status = PageStatusDescription
		}
	}
	page.UpdatedAt = now
	p.UpdatedAt = now
	return nil
}

// Snapshot returns an immutable deep copy of the project for export and
// read-side consumption.
func (p *Project) Snapshot() *Project {
	cp := *p
	cp.Pages = make([]Page, len(p.Pages))
	for i := range p.Pages {
		pg := p.Pages[i]
		if pg.OutlineContent != nil {
			oc := *pg.OutlineContent
			oc.Points = append([]string(nil), pg.OutlineContent.Points...)
			pg.OutlineContent = &oc
		}
		if pg.DescriptionContent != nil {
			dc := *pg.DescriptionContent
			pg.DescriptionContent = &dc
		}
		cp.Pages[i] = pg
	}
	return &cp
}

// PageByID returns the page with the given id, or nil.
func (p *Project) PageByID(pageID string) *Page {
	i := p.pageIndex(pageID)
	if i < 0 {
		return nil
	}
	return &p.Pages[i]
}

func (p *Project) pageIndex(pageID string) int {
	for i := range p.Pages {
		if p.Pages[i].PageID == pageID {
			return i
		}
	}
	return -1
}

// renumber restores the contiguous zero-based order_index permutation.
func (p *Project) renumber() {
	sort.SliceStable(p.Pages, func(i, j int) bool {
		return p.Pages[i].OrderIndex < p.Pages[j].OrderIndex
	})
	for i := range p.Pages {
		p.Pages[i].OrderIndex = i
	}
}
