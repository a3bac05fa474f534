package graph

import (
	"github.com/necronomicon/backend/pkg/annotation"
)

const (
	defaultParallelEdges = 4
	defaultBatchSize     = 4096
)

// GraphClient turns annotation payloads into dependency graphs and entity
// collections. It holds no per-document state, so one client can serve many
// documents concurrently.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	annotator     annotation.Annotator
	parallelEdges int
	batchSize     int
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// Annotator is the remote annotation service used by ProcessDocument. It may
// be nil when only Load and Build are used.
// ParallelEdges controls how many token batches are linked concurrently in
// the edge phase.
// BatchSize is the number of tokens handled per unit of work.
type NewGraphClientParams struct {
	Annotator     annotation.Annotator
	ParallelEdges int
	BatchSize     int
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	nlp, _ := annotation.NewClient(annotation.NewClientParams{BaseURL: "http://localhost:8080"})
//	client := graph.NewGraphClient(graph.NewGraphClientParams{
//		Annotator:     nlp,
//		ParallelEdges: 8,
//	})
//	g, entities, err := client.ProcessDocument(ctx, text)
func NewGraphClient(params NewGraphClientParams) *GraphClient {
	parallel := params.ParallelEdges
	if parallel <= 0 {
		parallel = defaultParallelEdges
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &GraphClient{
		annotator:     params.Annotator,
		parallelEdges: parallel,
		batchSize:     batch,
	}
}
