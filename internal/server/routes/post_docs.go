package routes

import (
	"encoding/json"
	"net/http"

	"github.com/necronomicon/backend/internal/queue"
	"github.com/necronomicon/backend/internal/server/middleware"
	"github.com/necronomicon/backend/internal/storage"
	"github.com/necronomicon/backend/internal/timing"
	"github.com/necronomicon/backend/pkg/logger"
	"github.com/necronomicon/backend/pkg/store"

	_ "github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type createDocumentBody struct {
	ID      string `json:"id" validate:"required,uuid"`
	Title   string `json:"title" validate:"required,max=512"`
	Content string `json:"content" validate:"required"`
}

type documentSummary struct {
	ID        uuid.UUID      `json:"id"`
	Title     string         `json:"title"`
	Status    string         `json:"status"`
	Vertices  int            `json:"vertices"`
	Edges     int            `json:"edges"`
	Sentences int            `json:"sentences"`
	Entities  json.Marshaler `json:"entities,omitempty"`

	EstimatedDurationMs *int64 `json:"estimatedDurationMs,omitempty"`
}

type createDocumentResponse struct {
	Message  string           `json:"message"`
	Document *documentSummary `json:"document,omitempty"`
}

// bindDocument binds and validates the request body. On failure it has
// already written the response and returns ok == false.
func bindDocument(c echo.Context) (data *createDocumentBody, id uuid.UUID, ok bool, err error) {
	data = new(createDocumentBody)
	if err := c.Bind(data); err != nil {
		return nil, uuid.Nil, false, c.JSON(http.StatusBadRequest, createDocumentResponse{
			Message: "Invalid request body",
		})
	}

	if err := c.Validate(data); err != nil {
		return nil, uuid.Nil, false, c.JSON(http.StatusBadRequest, createDocumentResponse{
			Message: "Invalid request body",
		})
	}

	id, err = uuid.Parse(data.ID)
	if err != nil {
		return nil, uuid.Nil, false, c.JSON(http.StatusBadRequest, createDocumentResponse{
			Message: "Invalid document id",
		})
	}

	limit := c.(*middleware.AppContext).App.MaxDocumentBytes
	if limit > 0 && len(data.Content) > limit {
		return nil, uuid.Nil, false, c.JSON(http.StatusRequestEntityTooLarge, createDocumentResponse{
			Message: "Document content too large",
		})
	}

	return data, id, true, nil
}

// CreateDocumentHandler annotates a document synchronously, stores the
// result and returns the graph counts together with the entities.
func CreateDocumentHandler(c echo.Context) error {
	data, id, ok, err := bindDocument(c)
	if !ok {
		return err
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	res, err := app.Pipeline.Process(ctx, data.Content)
	if err != nil {
		status := statusForError(err)
		logger.Error("[Docs] Failed to process document", "id", id, "status", status, "err", err)
		return c.JSON(status, createDocumentResponse{
			Message: messageForStatus(status),
		})
	}

	doc := store.Document{ID: id, Title: data.Title}
	if app.Store != nil {
		if err := app.Store.SaveResult(ctx, doc, res); err != nil {
			logger.Error("[Docs] Failed to store document", "id", id, "err", err)
			return c.JSON(http.StatusInternalServerError, createDocumentResponse{
				Message: "Internal server error",
			})
		}
	}

	return c.JSON(http.StatusCreated, createDocumentResponse{
		Message: "Document processed",
		Document: &documentSummary{
			ID:        id,
			Title:     data.Title,
			Status:    store.StatusDone,
			Vertices:  res.Graph.VertexCount(),
			Edges:     res.Graph.EdgeCount(),
			Sentences: len(res.Sentences),
			Entities:  res.Entities,
		},
	})
}

// CreateDocumentAsyncHandler stores the document content and queues it for
// a worker.
func CreateDocumentAsyncHandler(c echo.Context) error {
	data, id, ok, err := bindDocument(c)
	if !ok {
		return err
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App
	if app.Blobs == nil || app.Queue == nil || app.Store == nil {
		return c.JSON(http.StatusServiceUnavailable, createDocumentResponse{
			Message: "Asynchronous processing is not configured",
		})
	}

	key := storage.DocumentKey(id)
	if err := app.Blobs.Put(ctx, key, []byte(data.Content)); err != nil {
		logger.Error("[Docs] Failed to upload document", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, createDocumentResponse{
			Message: "Internal server error",
		})
	}

	doc := store.Document{ID: id, Title: data.Title, ContentKey: key}
	if err := app.Store.CreatePending(ctx, doc); err != nil {
		logger.Error("[Docs] Failed to register document", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, createDocumentResponse{
			Message: "Internal server error",
		})
	}

	err = queue.PublishDocument(app.Queue, queue.DocumentMessage{
		Message:       "Process document",
		DocumentID:    id,
		Title:         data.Title,
		ContentKey:    key,
		CorrelationID: c.Response().Header().Get(echo.HeaderXRequestID),
	})
	if err != nil {
		logger.Error("[Docs] Failed to queue document", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, createDocumentResponse{
			Message: "Internal server error",
		})
	}

	summary := &documentSummary{
		ID:     id,
		Title:  data.Title,
		Status: store.StatusPending,
	}
	if app.Timing != nil {
		ms, err := app.Timing.PredictProcessingTime(ctx, timing.StatDocument, int64(len(data.Content)))
		if err != nil {
			logger.Warn("[Docs] Failed to estimate processing time", "id", id, "err", err)
		} else if ms > 0 {
			summary.EstimatedDurationMs = &ms
		}
	}

	return c.JSON(http.StatusAccepted, createDocumentResponse{
		Message:  "Document queued",
		Document: summary,
	})
}
