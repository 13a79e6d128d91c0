package routes

import (
	"github.com/gin-gonic/gin"

	"webscout/internal/handlers"
	"webscout/internal/services"
)

func InitScanRoutes(router *gin.RouterGroup, scanService services.ScanServiceMethods) {
	h := handlers.NewScanHandler(scanService)

	scanRoutes := router.Group("/scans")
	{
		scanRoutes.POST("", h.StartScan)
		scanRoutes.GET("", h.ListScans)
		scanRoutes.GET("/:id", h.GetScanByUUID)
		scanRoutes.GET("/:id/progress", h.GetScanProgress)
		scanRoutes.DELETE("/:id", h.DeleteScan)
	}

	router.GET("/queue", h.QueueStatus)
}
