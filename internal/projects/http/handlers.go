package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/decksmith/deck-backend/internal/projects/domain"
	"github.com/decksmith/deck-backend/internal/projects/service"
)

type createReq struct {
	CreationType     string `json:"creation_type"`
	IdeaPrompt       string `json:"idea_prompt"`
	ImageAspectRatio string `json:"image_aspect_ratio"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "code": "invalid_body", "error": "invalid body"})
		return
	}
	if req.CreationType == "" {
		req.CreationType = "idea"
	}

	// The ratio is never defaulted; an absent or empty token is rejected
	// the same way an unknown one is.
	p, err := h.svc.Create(c.Request.Context(), req.CreationType, strings.TrimSpace(req.IdeaPrompt), req.ImageAspectRatio)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p, "data": p})
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p, "ratio_locked": p.Locked(), "data": p})
}

type updateReq struct {
	IdeaPrompt       *string `json:"idea_prompt"`
	Status           *string `json:"status"`
	ImageAspectRatio *string `json:"image_aspect_ratio"`
}

func (h *Handler) update(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "code": "invalid_body", "error": "invalid body"})
		return
	}

	p, err := h.svc.Update(c.Request.Context(), c.Param("id"), service.UpdateRequest{
		IdeaPrompt:       req.IdeaPrompt,
		Status:           req.Status,
		ImageAspectRatio: req.ImageAspectRatio,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p, "data": p})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type addPageReq struct {
	OrderIndex *int `json:"order_index"`
}

func (h *Handler) addPage(c *gin.Context) {
	var req addPageReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "code": "invalid_body", "error": "invalid body"})
		return
	}

	pg, err := h.svc.AddPage(c.Request.Context(), c.Param("id"), req.OrderIndex)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "page": pg, "data": pg})
}

type updatePageReq struct {
	OutlineContent     *domain.OutlineContent     `json:"outline_content"`
	DescriptionContent *domain.DescriptionContent `json:"description_content"`
	GeneratedImagePath *string                    `json:"generated_image_path"`
	Status             *string                    `json:"status"`
}

func (h *Handler) updatePage(c *gin.Context) {
	var req updatePageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "code": "invalid_body", "error": "invalid body"})
		return
	}

	p, err := h.svc.UpdatePage(c.Request.Context(), c.Param("id"), c.Param("page_id"), service.PageUpdateRequest{
		Outline:            req.OutlineContent,
		Description:        req.DescriptionContent,
		GeneratedImagePath: req.GeneratedImagePath,
		Status:             req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	pg := p.PageByID(c.Param("page_id"))
	c.JSON(http.StatusOK, gin.H{"ok": true, "page": pg, "data": pg})
}

func (h *Handler) deletePage(c *gin.Context) {
	if err := h.svc.RemovePage(c.Request.Context(), c.Param("id"), c.Param("page_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// respondError maps domain errors onto HTTP statuses with a stable machine
// readable code next to the human message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "code": "project_not_found", "error": err.Error()})
	case errors.Is(err, domain.ErrPageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "code": "page_not_found", "error": err.Error()})
	case errors.Is(err, domain.ErrInvalidAspectRatio):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "code": "invalid_aspect_ratio", "error": err.Error()})
	case errors.Is(err, domain.ErrAspectRatioLocked):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "code": "aspect_ratio_locked", "error": err.Error()})
	case errors.Is(err, domain.ErrInvalidPageStatus):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "code": "invalid_page_status", "error": err.Error()})
	case errors.Is(err, domain.ErrEmptyProject):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "code": "empty_project", "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "code": "internal", "error": err.Error()})
	}
}
