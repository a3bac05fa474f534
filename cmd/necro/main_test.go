package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alicePayload = `{
  "tokens": [
    {"id": 1, "start": 0, "end": 5, "lemma": "Alice", "dep": "nsubj", "head": 2},
    {"id": 2, "start": 6, "end": 9, "lemma": "run", "dep": "ROOT", "head": 2}
  ],
  "ents": [{"start": 0, "end": 5, "label": "PERSON"}],
  "sents": [{"start": 0, "end": 9}]
}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRender(t *testing.T) {
	out, err := execute(t, "render", writeFile(t, "payload.json", alicePayload))
	require.NoError(t, err)

	assert.Contains(t, out, "DependencyGraph: 2 vertices, 1 edges")
	assert.Contains(t, out, "Sentences: 1")
	assert.Contains(t, out, "Entities: 1")
	assert.Contains(t, out, `"kind":"person"`)
	assert.Contains(t, out, `"name":"Alice"`)
}

func TestRenderJSON(t *testing.T) {
	out, err := execute(t, "render", "--json", writeFile(t, "payload.json", alicePayload))
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Alice"`)
}

func TestRenderFailures(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		errMsg  string
	}{
		{"malformed json", `{"tokens": [`, "decoding payload"},
		{"missing head", `{"tokens": [{"id": 1, "start": 0, "end": 3, "head": 9}]}`, "data integrity violation"},
		{"unresolved person", `{"tokens": [{"id": 1, "start": 0, "end": 3, "head": 1}], "ents": [{"start": 4, "end": 8, "label": "PERSON"}]}`, "data integrity violation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "render", writeFile(t, "payload.json", tt.payload))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRenderMissingFile(t *testing.T) {
	_, err := execute(t, "render", filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading payload")
}

func TestParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/extract", r.URL.Path)
		_, _ = w.Write([]byte(alicePayload))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("NLP_SERVICE_URL", srv.URL)

	out, err := execute(t, "parse", writeFile(t, "doc.txt", "Alice ran"))
	require.NoError(t, err)
	assert.Contains(t, out, "DependencyGraph: 2 vertices, 1 edges")
	assert.Contains(t, out, `"name":"Alice"`)
}

func TestParseWithoutService(t *testing.T) {
	t.Setenv("NLP_SERVICE_URL", "")
	_, err := execute(t, "parse", writeFile(t, "doc.txt", "Alice ran"))
	require.Error(t, err)
}

func TestFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/features", r.URL.Path)
		_, _ = w.Write([]byte(`{"entities":{"PERSON":"People, including fictional"},"partsOfSpeech":{"NNP":"noun, proper singular"},"dependencies":{}}`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("NLP_SERVICE_URL", srv.URL)

	out, err := execute(t, "features")
	require.NoError(t, err)
	assert.Contains(t, out, "Entities (1)")
	assert.Contains(t, out, "PERSON")
	assert.Contains(t, out, "Dependencies (0)")
}
