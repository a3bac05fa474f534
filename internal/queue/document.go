package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/necronomicon/backend/internal/storage"
	"github.com/necronomicon/backend/internal/timing"
	"github.com/necronomicon/backend/internal/util"
	"github.com/necronomicon/backend/pkg/common"
	"github.com/necronomicon/backend/pkg/graph"
	"github.com/necronomicon/backend/pkg/leaselock"
	"github.com/necronomicon/backend/pkg/logger"
	"github.com/necronomicon/backend/pkg/store"

	"github.com/google/uuid"
)

const DocumentQueue = "document_queue"

// DocumentMessage asks a worker to process a document whose content is
// already in object storage.
type DocumentMessage struct {
	Message       string    `json:"message"`
	DocumentID    uuid.UUID `json:"documentId"`
	Title         string    `json:"title"`
	ContentKey    string    `json:"contentKey"`
	CorrelationID string    `json:"correlationId"`
}

// Pipeline turns document text into a graph result.
type Pipeline interface {
	Process(ctx context.Context, text string) (*graph.Result, error)
}

// Locker runs fn while holding an exclusive lease on key.
type Locker interface {
	WithLease(ctx context.Context, key string, opts leaselock.Options, fn func(ctx context.Context) error) error
}

// StatsRecorder stores processing durations for later estimates.
type StatsRecorder interface {
	AddProcessingTime(ctx context.Context, statType string, amount, durationMs int64) error
}

// DocumentProcessor handles messages from DocumentQueue.
type DocumentProcessor struct {
	Pipeline Pipeline
	Store    store.DocumentStorage
	Blobs    storage.Blobs
	// Locker is optional. Without it documents are processed unguarded.
	Locker Locker
	// FetchRetries bounds object storage reads. Defaults to 3.
	FetchRetries int
	// Stats is optional.
	Stats StatsRecorder
}

func PublishDocument(p Publisher, msg DocumentMessage) error {
	return PublishJSON(p, DocumentQueue, msg)
}

// ProcessDocumentMessage loads the document content, runs the pipeline and
// stores the result. Data integrity failures mark the document failed and
// are not retried. Malformed messages fail with ErrPermanent.
func (p *DocumentProcessor) ProcessDocumentMessage(ctx context.Context, body []byte) error {
	var msg DocumentMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: invalid document message: %v", ErrPermanent, err)
	}
	if msg.DocumentID == uuid.Nil || msg.ContentKey == "" {
		return fmt.Errorf("%w: document message without id or content key", ErrPermanent)
	}

	run := func(ctx context.Context) error {
		return p.process(ctx, msg)
	}
	if p.Locker == nil {
		return run(ctx)
	}
	return p.Locker.WithLease(ctx, leaselock.DocumentKey(msg.DocumentID.String()), leaselock.Options{
		TTL:         2 * time.Minute,
		TokenPrefix: "worker-",
	}, run)
}

func (p *DocumentProcessor) process(ctx context.Context, msg DocumentMessage) error {
	doc := store.Document{ID: msg.DocumentID, Title: msg.Title, ContentKey: msg.ContentKey}
	logger.Info("[Queue] Processing document", "id", doc.ID, "correlation_id", msg.CorrelationID)

	err := p.Store.SetStatus(ctx, doc.ID, store.StatusProcessing, "")
	if errors.Is(err, store.ErrDocumentNotFound) {
		// No pending record, e.g. the message was replayed from a DLQ after cleanup.
		if err = p.Store.CreatePending(ctx, doc); err == nil {
			err = p.Store.SetStatus(ctx, doc.ID, store.StatusProcessing, "")
		}
	}
	if err != nil {
		return err
	}

	retries := p.FetchRetries
	if retries <= 0 {
		retries = 3
	}
	content, err := util.RetryWithContext(ctx, retries, time.Second, func(ctx context.Context) ([]byte, error) {
		return p.Blobs.Get(ctx, msg.ContentKey)
	})
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			p.fail(ctx, doc, err)
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		return err
	}

	start := time.Now()
	res, err := p.Pipeline.Process(ctx, string(content))
	if err != nil {
		if errors.Is(err, common.ErrDataIntegrity) {
			p.fail(ctx, doc, err)
			return nil
		}
		return err
	}

	if err := p.Store.SaveResult(ctx, doc, res); err != nil {
		return err
	}

	if p.Stats != nil {
		elapsed := time.Since(start).Milliseconds()
		if err := p.Stats.AddProcessingTime(ctx, timing.StatDocument, int64(len(content)), elapsed); err != nil {
			logger.Warn("[Queue] Failed to record processing time", "id", doc.ID, "err", err)
		}
	}

	logger.Info("[Queue] Document stored",
		"id", doc.ID,
		"vertices", res.Graph.VertexCount(),
		"edges", res.Graph.EdgeCount(),
		"entities", res.Entities.Len(),
	)
	return nil
}

func (p *DocumentProcessor) fail(ctx context.Context, doc store.Document, cause error) {
	logger.Warn("[Queue] Document failed", "id", doc.ID, "err", cause)
	if err := p.Store.SetStatus(ctx, doc.ID, store.StatusFailed, cause.Error()); err != nil {
		logger.Error("[Queue] Failed to mark document failed", "id", doc.ID, "err", err)
	}
}
