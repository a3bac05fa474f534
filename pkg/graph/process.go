package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/necronomicon/backend/pkg/annotation"
	"github.com/necronomicon/backend/pkg/entity"
	"github.com/necronomicon/backend/pkg/logger"
)

var errNoAnnotator = errors.New("graph client has no annotator")

// Result is everything derived from one annotated document.
type Result struct {
	Graph     *DependencyGraph
	Entities  *entity.Collection
	Sentences []annotation.Sentence
}

// ProcessDocument annotates text through the configured annotator and
// returns the dependency graph and the materialized entities. Upstream
// failures surface as common.ErrIngestion, inconsistent payloads as
// common.ErrDataIntegrity. No partial result is returned with an error.
func (g *GraphClient) ProcessDocument(ctx context.Context, text string) (*DependencyGraph, *entity.Collection, error) {
	res, err := g.Process(ctx, text)
	if err != nil {
		return nil, nil, err
	}
	return res.Graph, res.Entities, nil
}

// Process is ProcessDocument returning the full Result, sentences included.
func (g *GraphClient) Process(ctx context.Context, text string) (*Result, error) {
	if g.annotator == nil {
		return nil, errNoAnnotator
	}

	payload, err := g.annotator.Parse(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to annotate document: %w", err)
	}
	return g.Load(ctx, payload)
}

// Load builds the graph and materializes the entities of an already
// decoded payload. Entities are only materialized once the graph is
// complete.
func (g *GraphClient) Load(ctx context.Context, payload *annotation.Payload) (*Result, error) {
	if payload == nil {
		payload = &annotation.Payload{}
	}

	dg, err := g.Build(ctx, payload.Tokens)
	if err != nil {
		return nil, err
	}

	entities, err := entity.Materialize(ctx, payload.Entities, payload.Tokens)
	if err != nil {
		return nil, err
	}

	logger.Info("[Graph] Document processed",
		"vertices", dg.VertexCount(),
		"edges", dg.EdgeCount(),
		"entities", entities.Len(),
		"sentences", len(payload.Sentences),
	)

	return &Result{
		Graph:     dg,
		Entities:  entities,
		Sentences: payload.Sentences,
	}, nil
}
