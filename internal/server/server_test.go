package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/necronomicon/backend/internal/queue"
	mid "github.com/necronomicon/backend/internal/server/middleware"
	"github.com/necronomicon/backend/pkg/annotation"
	"github.com/necronomicon/backend/pkg/common"
	"github.com/necronomicon/backend/pkg/graph"
	"github.com/necronomicon/backend/pkg/store"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const masterKey = "test-master-key"

type stubAnnotator struct {
	payload *annotation.Payload
	err     error
}

func (s stubAnnotator) Parse(context.Context, string) (*annotation.Payload, error) {
	return s.payload, s.err
}

func (s stubAnnotator) Features(context.Context) (*annotation.Features, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &annotation.Features{Entities: map[string]string{"PERSON": "People, including fictional"}}, nil
}

type memStore struct {
	saved   map[uuid.UUID]*graph.Result
	pending map[uuid.UUID]store.Document
}

func newMemStore() *memStore {
	return &memStore{saved: map[uuid.UUID]*graph.Result{}, pending: map[uuid.UUID]store.Document{}}
}

func (m *memStore) CreatePending(_ context.Context, doc store.Document) error {
	m.pending[doc.ID] = doc
	return nil
}

func (m *memStore) SetStatus(context.Context, uuid.UUID, string, string) error { return nil }

func (m *memStore) SaveResult(_ context.Context, doc store.Document, res *graph.Result) error {
	m.saved[doc.ID] = res
	return nil
}

func (m *memStore) GetDocument(_ context.Context, id uuid.UUID) (*store.DocumentRecord, error) {
	res, ok := m.saved[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrDocumentNotFound, id)
	}
	return &store.DocumentRecord{
		ID:       id,
		Status:   store.StatusDone,
		Vertices: res.Graph.VertexCount(),
		Edges:    res.Graph.EdgeCount(),
	}, nil
}

type memBlobs map[string][]byte

func (b memBlobs) Put(_ context.Context, key string, body []byte) error {
	b[key] = body
	return nil
}
func (b memBlobs) Get(_ context.Context, key string) ([]byte, error) { return b[key], nil }
func (b memBlobs) Delete(_ context.Context, key string) error       { delete(b, key); return nil }

type fakePublisher struct {
	keys   []string
	bodies [][]byte
}

func (f *fakePublisher) Publish(_, key string, _, _ bool, msg amqp091.Publishing) error {
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, msg.Body)
	return nil
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

func newTestApp(a stubAnnotator) *mid.App {
	return &mid.App{
		Pipeline:         graph.NewGraphClient(graph.NewGraphClientParams{Annotator: a}),
		Features:         a,
		Store:            newMemStore(),
		Blobs:            memBlobs{},
		Queue:            &fakePublisher{},
		MasterAPIKey:     masterKey,
		MasterUserID:     1,
		MasterUserRole:   "admin",
		MaxDocumentBytes: 64,
	}
}

func do(t *testing.T, app *mid.App, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	New(app).ServeHTTP(rec, req)
	return rec
}

func docBody(id, content string) string {
	b, _ := json.Marshal(map[string]string{"id": id, "title": "Test", "content": content})
	return string(b)
}

func TestCreateDocument(t *testing.T) {
	app := newTestApp(stubAnnotator{payload: alicePayload()})
	id := uuid.New()

	rec := do(t, app, http.MethodPost, "/v1/docs", docBody(id.String(), "Alice ran"), masterKey)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Document struct {
			Vertices int              `json:"vertices"`
			Edges    int              `json:"edges"`
			Entities []map[string]any `json:"entities"`
		} `json:"document"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Document.Vertices)
	assert.Equal(t, 1, resp.Document.Edges)
	require.Len(t, resp.Document.Entities, 1)
	assert.Equal(t, "person", resp.Document.Entities[0]["kind"])
	assert.Equal(t, "Alice", resp.Document.Entities[0]["name"])

	assert.Contains(t, app.Store.(*memStore).saved, id)

	rec = do(t, app, http.MethodGet, "/v1/docs/"+id.String(), "", masterKey)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateDocumentErrors(t *testing.T) {
	badHead := alicePayload()
	badHead.Tokens[1].Head = 42
	id := uuid.NewString()

	tests := []struct {
		name  string
		stub  stubAnnotator
		body  string
		token string
		want  int
	}{
		{"no token", stubAnnotator{payload: alicePayload()}, docBody(id, "x"), "", http.StatusUnauthorized},
		{"wrong token", stubAnnotator{payload: alicePayload()}, docBody(id, "x"), "nope", http.StatusUnauthorized},
		{"missing content", stubAnnotator{payload: alicePayload()}, docBody(id, ""), masterKey, http.StatusBadRequest},
		{"bad id", stubAnnotator{payload: alicePayload()}, docBody("abc", "x"), masterKey, http.StatusBadRequest},
		{"missing title", stubAnnotator{payload: alicePayload()}, `{"id":"`+id+`","content":"x"}`, masterKey, http.StatusBadRequest},
		{"title too long", stubAnnotator{payload: alicePayload()}, `{"id":"`+id+`","title":"`+strings.Repeat("t", 513)+`","content":"x"}`, masterKey, http.StatusBadRequest},
		{"too large", stubAnnotator{payload: alicePayload()}, docBody(id, strings.Repeat("a", 65)), masterKey, http.StatusRequestEntityTooLarge},
		{"integrity", stubAnnotator{payload: badHead}, docBody(id, "x"), masterKey, http.StatusUnprocessableEntity},
		{"ingestion", stubAnnotator{err: fmt.Errorf("%w: 500", common.ErrIngestion)}, docBody(id, "x"), masterKey, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestApp(tt.stub), http.MethodPost, "/v1/docs", tt.body, tt.token)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateDocumentAsync(t *testing.T) {
	app := newTestApp(stubAnnotator{payload: alicePayload()})
	id := uuid.New()

	rec := do(t, app, http.MethodPost, "/v1/docs/async", docBody(id.String(), "Alice ran"), masterKey)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	pub := app.Queue.(*fakePublisher)
	require.Equal(t, []string{queue.DocumentQueue}, pub.keys)

	var msg queue.DocumentMessage
	require.NoError(t, json.Unmarshal(pub.bodies[0], &msg))
	assert.Equal(t, id, msg.DocumentID)
	assert.Equal(t, "documents/"+id.String()+".txt", msg.ContentKey)
	assert.Equal(t, []byte("Alice ran"), app.Blobs.(memBlobs)[msg.ContentKey])
	assert.Contains(t, app.Store.(*memStore).pending, id)
}

type fixedEstimate int64

func (f fixedEstimate) PredictProcessingTime(context.Context, string, int64) (int64, error) {
	return int64(f), nil
}

func TestCreateDocumentAsyncEstimate(t *testing.T) {
	app := newTestApp(stubAnnotator{payload: alicePayload()})
	app.Timing = fixedEstimate(1500)

	rec := do(t, app, http.MethodPost, "/v1/docs/async", docBody(uuid.NewString(), "Alice ran"), masterKey)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"estimatedDurationMs":1500`)
}

func TestGetDocument(t *testing.T) {
	app := newTestApp(stubAnnotator{payload: alicePayload()})

	rec := do(t, app, http.MethodGet, "/v1/docs/not-a-uuid", "", masterKey)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, app, http.MethodGet, "/v1/docs/"+uuid.NewString(), "", masterKey)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetFeatures(t *testing.T) {
	app := newTestApp(stubAnnotator{payload: alicePayload()})

	rec := do(t, app, http.MethodGet, "/v1/features", "", masterKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "People, including fictional")

	app = newTestApp(stubAnnotator{err: fmt.Errorf("%w: down", common.ErrIngestion)})
	rec = do(t, app, http.MethodGet, "/v1/features", "", masterKey)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestApp(stubAnnotator{}), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
