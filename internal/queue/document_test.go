package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/necronomicon/backend/internal/storage"
	"github.com/necronomicon/backend/pkg/annotation"
	"github.com/necronomicon/backend/pkg/common"
	"github.com/necronomicon/backend/pkg/graph"
	"github.com/necronomicon/backend/pkg/leaselock"
	"github.com/necronomicon/backend/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	status  map[uuid.UUID]string
	reasons map[uuid.UUID]string
	results map[uuid.UUID]*graph.Result
}

func newMemStore() *memStore {
	return &memStore{
		status:  map[uuid.UUID]string{},
		reasons: map[uuid.UUID]string{},
		results: map[uuid.UUID]*graph.Result{},
	}
}

func (m *memStore) CreatePending(_ context.Context, doc store.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[doc.ID] = store.StatusPending
	return nil
}

func (m *memStore) SetStatus(_ context.Context, id uuid.UUID, status, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.status[id]; !ok {
		return store.ErrDocumentNotFound
	}
	m.status[id] = status
	m.reasons[id] = reason
	return nil
}

func (m *memStore) SaveResult(_ context.Context, doc store.Document, res *graph.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[doc.ID] = store.StatusDone
	m.results[doc.ID] = res
	return nil
}

func (m *memStore) GetDocument(_ context.Context, id uuid.UUID) (*store.DocumentRecord, error) {
	return nil, store.ErrDocumentNotFound
}

type memBlobs map[string][]byte

func (b memBlobs) Put(_ context.Context, key string, body []byte) error {
	b[key] = body
	return nil
}

func (b memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := b[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
	}
	return v, nil
}

func (b memBlobs) Delete(_ context.Context, key string) error {
	delete(b, key)
	return nil
}

type stubAnnotator struct {
	payload *annotation.Payload
	err     error
}

func (s stubAnnotator) Parse(context.Context, string) (*annotation.Payload, error) {
	return s.payload, s.err
}

type recordingLocker struct {
	keys []string
}

func (l *recordingLocker) WithLease(ctx context.Context, key string, _ leaselock.Options, fn func(context.Context) error) error {
	l.keys = append(l.keys, key)
	return fn(ctx)
}

func newProcessor(a annotation.Annotator) (*DocumentProcessor, *memStore, memBlobs, *recordingLocker) {
	st := newMemStore()
	blobs := memBlobs{}
	locker := &recordingLocker{}
	return &DocumentProcessor{
		Pipeline:     graph.NewGraphClient(graph.NewGraphClientParams{Annotator: a}),
		Store:        st,
		Blobs:        blobs,
		Locker:       locker,
		FetchRetries: 1,
	}, st, blobs, locker
}

func alicePayload() *annotation.Payload {
	return &annotation.Payload{
		Tokens: []annotation.Token{
			{ID: 1, Start: 0, End: 5, Lemma: "Alice", Head: 1},
			{ID: 2, Start: 6, End: 9, Head: 1},
		},
		Entities: []annotation.EntitySpan{{Start: 0, End: 5, Label: "PERSON"}},
	}
}

func message(t *testing.T, id uuid.UUID, key string) []byte {
	t.Helper()
	body, err := json.Marshal(DocumentMessage{DocumentID: id, Title: "t", ContentKey: key})
	require.NoError(t, err)
	return body
}

func TestProcessDocumentMessage(t *testing.T) {
	p, st, blobs, locker := newProcessor(stubAnnotator{payload: alicePayload()})
	id := uuid.New()
	key := storage.DocumentKey(id)
	blobs[key] = []byte("Alice ran")

	err := p.ProcessDocumentMessage(context.Background(), message(t, id, key))
	require.NoError(t, err)

	assert.Equal(t, store.StatusDone, st.status[id])
	require.Contains(t, st.results, id)
	assert.Equal(t, 2, st.results[id].Graph.VertexCount())
	assert.Equal(t, 1, st.results[id].Entities.Len())
	assert.Equal(t, []string{"document:" + id.String()}, locker.keys)
}

func TestProcessDocumentMessageIntegrityFailure(t *testing.T) {
	payload := alicePayload()
	payload.Tokens[1].Head = 99
	p, st, blobs, _ := newProcessor(stubAnnotator{payload: payload})
	id := uuid.New()
	blobs["k"] = []byte("x")

	err := p.ProcessDocumentMessage(context.Background(), message(t, id, "k"))
	require.NoError(t, err, "integrity failures are not retried")
	assert.Equal(t, store.StatusFailed, st.status[id])
	assert.Contains(t, st.reasons[id], "head")
}

func TestProcessDocumentMessageIngestionFailureRetries(t *testing.T) {
	p, st, blobs, _ := newProcessor(stubAnnotator{err: fmt.Errorf("%w: 503", common.ErrIngestion)})
	id := uuid.New()
	blobs["k"] = []byte("x")

	err := p.ProcessDocumentMessage(context.Background(), message(t, id, "k"))
	assert.ErrorIs(t, err, common.ErrIngestion)
	assert.False(t, errors.Is(err, ErrPermanent))
	assert.Equal(t, store.StatusProcessing, st.status[id])
}

func TestProcessDocumentMessagePermanentFailures(t *testing.T) {
	p, st, _, _ := newProcessor(stubAnnotator{payload: alicePayload()})

	err := p.ProcessDocumentMessage(context.Background(), []byte("not json"))
	assert.ErrorIs(t, err, ErrPermanent)

	err = p.ProcessDocumentMessage(context.Background(), []byte(`{"title":"no id"}`))
	assert.ErrorIs(t, err, ErrPermanent)

	id := uuid.New()
	err = p.ProcessDocumentMessage(context.Background(), message(t, id, "missing"))
	assert.ErrorIs(t, err, ErrPermanent)
	assert.Equal(t, store.StatusFailed, st.status[id])
}

type recordingStats struct {
	amounts []int64
}

func (s *recordingStats) AddProcessingTime(_ context.Context, statType string, amount, _ int64) error {
	if statType != "document" {
		return errors.New("unexpected stat type")
	}
	s.amounts = append(s.amounts, amount)
	return nil
}

func TestProcessDocumentMessageRecordsTiming(t *testing.T) {
	p, _, blobs, _ := newProcessor(stubAnnotator{payload: alicePayload()})
	stats := &recordingStats{}
	p.Stats = stats
	id := uuid.New()
	blobs["k"] = []byte("Alice ran")

	require.NoError(t, p.ProcessDocumentMessage(context.Background(), message(t, id, "k")))
	assert.Equal(t, []int64{9}, stats.amounts)

	// failed documents are not sampled
	payload := alicePayload()
	payload.Tokens[1].Head = 99
	p.Pipeline = graph.NewGraphClient(graph.NewGraphClientParams{Annotator: stubAnnotator{payload: payload}})
	require.NoError(t, p.ProcessDocumentMessage(context.Background(), message(t, uuid.New(), "k")))
	assert.Len(t, stats.amounts, 1)
}
