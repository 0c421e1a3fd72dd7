package http

import "github.com/gin-gonic/gin"

// Register attaches the sites routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.search)
	rg.GET("/dashboard", h.dashboard)
	rg.GET("/archived", h.listArchived)
	rg.GET("/duplicates", h.duplicateGroups)
	rg.GET("/duplicates/latest", h.latestScan)
	rg.POST("/nearby", h.nearby)
	rg.POST("/resolve", h.resolve)
	rg.POST("/merge", h.merge)
	rg.POST("/import", h.importBundle)
	rg.POST("/bulk-delete", h.bulkDelete)

	rg.GET("/:name", h.get)
	rg.DELETE("/:name", h.delete)
	rg.PATCH("/:name", h.rename)
	rg.POST("/:name/archive", h.archive)
	rg.POST("/:name/unarchive", h.unarchive)
	rg.GET("/:name/export", h.export)
}
