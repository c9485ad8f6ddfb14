package http

import "github.com/gin-gonic/gin"

// Register attaches project and page routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.create)
	rg.GET("/:id", h.get)
	rg.PUT("/:id", h.update)
	rg.DELETE("/:id", h.delete)

	rg.POST("/:id/pages", h.addPage)
	rg.PUT("/:id/pages/:page_id", h.updatePage)
	rg.DELETE("/:id/pages/:page_id", h.deletePage)
}
