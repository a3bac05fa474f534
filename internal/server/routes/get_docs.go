package routes

import (
	"net/http"

	"github.com/necronomicon/backend/internal/server/middleware"
	"github.com/necronomicon/backend/pkg/logger"
	"github.com/necronomicon/backend/pkg/store"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type getDocumentResponse struct {
	Message  string                `json:"message"`
	Document *store.DocumentRecord `json:"document,omitempty"`
}

// GetDocumentHandler returns the stored counts and entities of a document.
func GetDocumentHandler(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, getDocumentResponse{
			Message: "Invalid document id",
		})
	}

	app := c.(*middleware.AppContext).App
	if app.Store == nil {
		return c.JSON(http.StatusServiceUnavailable, getDocumentResponse{
			Message: "Document storage is not configured",
		})
	}

	rec, err := app.Store.GetDocument(c.Request().Context(), id)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("[Docs] Failed to load document", "id", id, "err", err)
		}
		return c.JSON(status, getDocumentResponse{
			Message: messageForStatus(status),
		})
	}

	return c.JSON(http.StatusOK, getDocumentResponse{
		Message:  "OK",
		Document: rec,
	})
}
