package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/necronomicon/backend/pkg/common"
	"github.com/necronomicon/backend/pkg/store"
)

// statusForError maps pipeline and storage errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, common.ErrDataIntegrity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrIngestion):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func messageForStatus(status int) string {
	switch status {
	case http.StatusUnprocessableEntity:
		return "Annotation payload is inconsistent"
	case http.StatusBadGateway:
		return "Annotation service failed"
	case http.StatusNotFound:
		return "Document not found"
	case http.StatusGatewayTimeout:
		return "Annotation service timed out"
	default:
		return "Internal server error"
	}
}
