package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/decksmith/deck-backend/internal/exports/layout"
	"github.com/decksmith/deck-backend/internal/exports/repository"
	"github.com/decksmith/deck-backend/internal/projects/domain"
	"github.com/decksmith/deck-backend/internal/storage"
)

// Export formats
const (
	FormatPDF  = "pdf"
	FormatPPTX = "pptx"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrRender            = errors.New("export render failed")
)

// ProjectStore is the read-side the coordinator needs from the projects
// module: a consistent point-in-time snapshot.
type ProjectStore interface {
	Get(ctx context.Context, projectID string) (*domain.Project, error)
}

// Exporter renders a layout document into format-specific bytes.
type Exporter interface {
	Render(doc *layout.Document, assets map[string][]byte) ([]byte, error)
	ContentType() string
	Extension() string
}

// Artifact describes one rendered export. Dimensions are in the format's
// native unit: points for PDF, EMU for PPTX.
type Artifact struct {
	ExportID            string  `json:"export_id"`
	ProjectID           string  `json:"project_id"`
	Format              string  `json:"format"`
	Width               float64 `json:"width"`
	Height              float64 `json:"height"`
	SizeBytes           int64   `json:"size_bytes"`
	ContentType         string  `json:"content_type"`
	DownloadURL         string  `json:"download_url"`
	DownloadURLAbsolute string  `json:"download_url_absolute"`
}

// ExportService coordinates an export end to end: snapshot, layout,
// per-page asset fetch, render, artifact publish, record save.
type ExportService struct {
	projects ProjectStore
	blobs    storage.BlobStore
	records  *repository.RecordRepository // optional
	pdf      Exporter
	pptx     Exporter
	baseURL  string
}

func NewExportService(projects ProjectStore, blobs storage.BlobStore, records *repository.RecordRepository, pdf, pptx Exporter, baseURL string) *ExportService {
	return &ExportService{
		projects: projects,
		blobs:    blobs,
		records:  records,
		pdf:      pdf,
		pptx:     pptx,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Export renders the project into the requested format. Validation failures
// (missing project, empty project, unknown format) happen before any side
// effect; render failures leave nothing persisted. Asset fetch failures for
// individual pages degrade those pages to placeholders.
func (s *ExportService) Export(ctx context.Context, projectID, format string) (*Artifact, error) {
	var exp Exporter
	switch format {
	case FormatPDF:
		exp = s.pdf
	case FormatPPTX:
		exp = s.pptx
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	snapshot, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	doc, err := layout.Build(snapshot)
	if err != nil {
		return nil, err
	}

	assets := s.fetchAssets(ctx, doc)

	data, err := exp.Render(doc, assets)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	exportID := uuid.New().String()
	key := fmt.Sprintf("%s/exports/%s.%s", projectID, exportID, exp.Extension())
	if err := s.blobs.Put(ctx, key, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("store artifact: %w", err)
	}

	art := &Artifact{
		ExportID:    exportID,
		ProjectID:   projectID,
		Format:      format,
		SizeBytes:   int64(len(data)),
		ContentType: exp.ContentType(),
		DownloadURL: "/files/" + key,
	}
	if s.baseURL != "" {
		art.DownloadURLAbsolute = s.baseURL + art.DownloadURL
	}
	switch format {
	case FormatPDF:
		art.Width, art.Height = doc.WidthPt, doc.HeightPt
	case FormatPPTX:
		art.Width, art.Height = float64(doc.CX), float64(doc.CY)
	}

	if s.records != nil {
		rec := &repository.ExportRecord{
			ExportID:    art.ExportID,
			ProjectID:   art.ProjectID,
			Format:      art.Format,
			StorageKey:  key,
			Width:       art.Width,
			Height:      art.Height,
			SizeBytes:   art.SizeBytes,
			DownloadURL: art.DownloadURL,
		}
		if err := s.records.Save(ctx, rec); err != nil {
			// Metadata only; the artifact itself is already published.
			log.Printf("[export] record save failed for %s: %v", art.ExportID, err)
		}
	}

	return art, nil
}

// fetchAssets pulls each slide's image from blob storage, in slide order.
// A failed fetch is logged as a warning and the slide falls back to a
// placeholder, never aborting the export.
func (s *ExportService) fetchAssets(ctx context.Context, doc *layout.Document) map[string][]byte {
	assets := make(map[string][]byte)
	for i := range doc.Slides {
		path := doc.Slides[i].ImagePath
		if path == "" {
			continue
		}
		if _, ok := assets[path]; ok {
			continue
		}
		rc, err := s.blobs.Get(ctx, path)
		if err != nil {
			log.Printf("[export] warn: asset %q unavailable, rendering placeholder: %v", path, err)
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			log.Printf("[export] warn: asset %q read failed, rendering placeholder: %v", path, err)
			continue
		}
		assets[path] = data
	}
	return assets
}
