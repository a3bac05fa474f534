package routes

import (
	"net/http"

	"github.com/necronomicon/backend/internal/server/middleware"
	"github.com/necronomicon/backend/pkg/annotation"
	"github.com/necronomicon/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

type getFeaturesResponse struct {
	Message  string               `json:"message"`
	Features *annotation.Features `json:"features,omitempty"`
}

// GetFeaturesHandler proxies the label catalogue of the annotation service.
func GetFeaturesHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	f, err := app.Features.Features(c.Request().Context())
	if err != nil {
		status := statusForError(err)
		logger.Error("[Features] Failed to load features", "status", status, "err", err)
		return c.JSON(status, getFeaturesResponse{
			Message: messageForStatus(status),
		})
	}

	return c.JSON(http.StatusOK, getFeaturesResponse{
		Message:  "OK",
		Features: f,
	})
}
