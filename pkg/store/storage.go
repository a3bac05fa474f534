package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/necronomicon/backend/pkg/graph"

	"github.com/google/uuid"
)

var ErrDocumentNotFound = errors.New("document not found")

// Document processing states.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// Document identifies a submitted document. ContentKey is the object
// storage key of the raw text for asynchronously processed documents.
type Document struct {
	ID         uuid.UUID
	Title      string
	ContentKey string
}

// DocumentRecord is the stored view of a processed document.
type DocumentRecord struct {
	ID        uuid.UUID         `json:"id"`
	Title     string            `json:"title"`
	Status    string            `json:"status"`
	Error     string            `json:"error,omitempty"`
	Vertices  int               `json:"vertices"`
	Edges     int               `json:"edges"`
	Sentences int               `json:"sentences"`
	Entities  []json.RawMessage `json:"entities"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// DocumentStorage persists documents together with the dependency graph,
// sentences and entities derived from them.
type DocumentStorage interface {
	// CreatePending registers a document that will be processed later.
	CreatePending(ctx context.Context, doc Document) error
	// SetStatus moves a document to another processing state.
	SetStatus(ctx context.Context, id uuid.UUID, status string, reason string) error
	// SaveResult stores the result of a pipeline run, replacing any earlier
	// result for the same document, and marks the document done.
	SaveResult(ctx context.Context, doc Document, res *graph.Result) error
	GetDocument(ctx context.Context, id uuid.UUID) (*DocumentRecord, error)
}
