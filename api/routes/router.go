package routes

import (
	"github.com/gin-gonic/gin"

	"webscout/internal/services"
)

func InitRouter(scanService services.ScanServiceMethods) *gin.Engine {
	router := gin.Default()

	api := router.Group("/api")
	{
		InitScanRoutes(api, scanService)
	}

	return router
}
