package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/decksmith/deck-backend/internal/exports/service"
	"github.com/decksmith/deck-backend/internal/projects/domain"
)

// Handler bundles the dependencies for export HTTP endpoints.
type Handler struct {
	svc *service.ExportService
}

func New(svc *service.ExportService) *Handler {
	return &Handler{svc: svc}
}

// Register attaches export routes to the projects router group.
func (h *Handler) Register(rg *gin.RouterGroup, extra ...gin.HandlerFunc) {
	grp := rg.Group("")
	grp.Use(extra...)
	grp.GET("/:id/export/pdf", h.export(service.FormatPDF))
	grp.GET("/:id/export/pptx", h.export(service.FormatPPTX))
}

func (h *Handler) export(format string) gin.HandlerFunc {
	return func(c *gin.Context) {
		art, err := h.svc.Export(c.Request.Context(), c.Param("id"), format)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "export": art, "data": gin.H{
			"download_url":          art.DownloadURL,
			"download_url_absolute": art.DownloadURLAbsolute,
		}})
	}
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "code": "project_not_found", "error": err.Error()})
	case errors.Is(err, domain.ErrEmptyProject):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "code": "empty_project", "error": err.Error()})
	case errors.Is(err, domain.ErrInvalidAspectRatio):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "code": "invalid_aspect_ratio", "error": err.Error()})
	case errors.Is(err, service.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "code": "unsupported_format", "error": err.Error()})
	case errors.Is(err, service.ErrRender):
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "code": "export_render_failed", "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "code": "internal", "error": err.Error()})
	}
}
