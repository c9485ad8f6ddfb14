package service

import (
	"context"

	"github.com/decksmith/deck-backend/internal/projects/domain"
)

// Store is the narrow repository interface the service depends on.
type Store interface {
	Create(ctx context.Context, p *domain.Project) error
	Get(ctx context.Context, projectID string) (*domain.Project, error)
	Delete(ctx context.Context, projectID string) error
	Mutate(ctx context.Context, projectID string, fn func(*domain.Project) error) (*domain.Project, error)
}

// ProjectService orchestrates project and page lifecycle operations. The
// invariants themselves live on the domain aggregate; the service wires them
// to persistence.
type ProjectService struct {
	store Store
}

func NewProjectService(store Store) *ProjectService {
	return &ProjectService{store: store}
}

// Create validates the ratio and persists an empty project.
func (s *ProjectService) Create(ctx context.Context, creationType, ideaPrompt, ratio string) (*domain.Project, error) {
	p, err := domain.NewProject(creationType, ideaPrompt, ratio)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a read snapshot of the project with ordered pages.
func (s *ProjectService) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	return s.store.Get(ctx, projectID)
}

// Delete removes the project and all of its pages.
func (s *ProjectService) Delete(ctx context.Context, projectID string) error {
	return s.store.Delete(ctx, projectID)
}

// UpdateRequest carries optional project-level updates.
type UpdateRequest struct {
	IdeaPrompt       *string
	Status           *string
	ImageAspectRatio *string
}

// Update applies project metadata changes. A ratio change is rejected with
// domain.ErrAspectRatioLocked once any page has a generated image; the check
// and the write happen atomically under the aggregate's row lock.
func (s *ProjectService) Update(ctx context.Context, projectID string, req UpdateRequest) (*domain.Project, error) {
	return s.store.Mutate(ctx, projectID, func(p *domain.Project) error {
		if req.ImageAspectRatio != nil {
			if err := p.UpdateAspectRatio(*req.ImageAspectRatio); err != nil {
				return err
			}
		}
		if req.IdeaPrompt != nil {
			p.IdeaPrompt = *req.IdeaPrompt
		}
		if req.Status != nil {
			p.Status = *req.Status
		}
		return nil
	})
}

// AddPage appends or inserts an empty page and renumbers to keep order_index
// contiguous. Returns the created page.
func (s *ProjectService) AddPage(ctx context.Context, projectID string, orderIndex *int) (*domain.Page, error) {
	var created domain.Page
	_, err := s.store.Mutate(ctx, projectID, func(p *domain.Project) error {
		created = *p.AddPage(orderIndex)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// RemovePage deletes a page and renumbers the remainder.
func (s *ProjectService) RemovePage(ctx context.Context, projectID, pageID string) error {
	_, err := s.store.Mutate(ctx, projectID, func(p *domain.Project) error {
		return p.RemovePage(pageID)
	})
	return err
}

// SetPageContent records outline and/or description content for a page.
func (s *ProjectService) SetPageContent(ctx context.Context, projectID, pageID string, outline *domain.OutlineContent, description *domain.DescriptionContent) (*domain.Project, error) {
	return s.store.Mutate(ctx, projectID, func(p *domain.Project) error {
		return p.SetPageContent(pageID, outline, description)
	})
}

// PageUpdateRequest carries optional page-level updates.
type PageUpdateRequest struct {
	Outline            *domain.OutlineContent
	Description        *domain.DescriptionContent
	GeneratedImagePath *string
	Status             *string
}

// UpdatePage applies all requested page changes in one transaction.
func (s *ProjectService) UpdatePage(ctx context.Context, projectID, pageID string, req PageUpdateRequest) (*domain.Project, error) {
	return s.store.Mutate(ctx, projectID, func(p *domain.Project) error {
		if req.Outline != nil || req.Description != nil {
			if err := p.SetPageContent(pageID, req.Outline, req.Description); err != nil {
				return err
			}
		}
		if req.GeneratedImagePath != nil {
			if err := p.RecordGeneratedImage(pageID, *req.GeneratedImagePath); err != nil {
				return err
			}
		}
		if req.Status != nil {
			pg := p.PageByID(pageID)
			if pg == nil {
				return domain.ErrPageNotFound
			}
			if err := pg.TransitionPage(*req.Status); err != nil {
				return err
			}
		}
		return nil
	})
}

// RecordGeneratedImage stores a page's image reference, advances its status
// and locks the project aspect ratio for good.
func (s *ProjectService) RecordGeneratedImage(ctx context.Context, projectID, pageID, path string) (*domain.Project, error) {
	return s.store.Mutate(ctx, projectID, func(p *domain.Project) error {
		return p.RecordGeneratedImage(pageID, path)
	})
}
