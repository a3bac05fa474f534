package server

import (
	"github.com/necronomicon/backend/internal/server/middleware"
	"github.com/necronomicon/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/v1", middleware.AuthMiddleware)

	// Document routes
	apiRoutes.POST("/docs", routes.CreateDocumentHandler, middleware.RequirePermission("document.create"))
	apiRoutes.POST("/docs/async", routes.CreateDocumentAsyncHandler, middleware.RequirePermission("document.create"))
	apiRoutes.GET("/docs/:id", routes.GetDocumentHandler, middleware.RequireAnyPermission("document.view", "document.create"))

	// Annotation service routes
	apiRoutes.GET("/features", routes.GetFeaturesHandler, middleware.RequirePermission("features.view"))
}
