package graph

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/necronomicon/backend/pkg/annotation"
	"github.com/necronomicon/backend/pkg/common"
	"github.com/necronomicon/backend/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const noHead = -1

// Edge is a dependency relation from a token to its head.
type Edge struct {
	From annotation.Token
	To   annotation.Token
}

// DependencyGraph is a directed graph over the tokens of one document. Every
// non-root token has exactly one outgoing edge pointing at its head.
//
// A DependencyGraph is read-only once Build returns.
type DependencyGraph struct {
	tokens []annotation.Token
	// first position of every token id
	index map[int]int
	// head position per token position, noHead for roots
	heads []int
	// positions in annotation.Token.Compare order
	order []int
	edges int
}

// Build constructs a dependency graph using the default client settings.
func Build(ctx context.Context, tokens []annotation.Token) (*DependencyGraph, error) {
	return NewGraphClient(NewGraphClientParams{}).Build(ctx, tokens)
}

// Build inserts every token as a vertex and, once all vertices are in place,
// links each non-root token to its head. A head id that names no token in the
// sequence fails the build with a data integrity error. If ctx is cancelled
// the partial graph is discarded and ctx.Err() is returned.
func (g *GraphClient) Build(ctx context.Context, tokens []annotation.Token) (*DependencyGraph, error) {
	dg := &DependencyGraph{
		tokens: make([]annotation.Token, 0, len(tokens)),
		index:  make(map[int]int, len(tokens)),
		heads:  make([]int, len(tokens)),
	}

	if err := dg.addVertices(ctx, tokens, g.batchSize); err != nil {
		return nil, err
	}

	// Edge lookups read the complete vertex index, so this phase must not
	// start before addVertices has returned.
	if err := dg.addEdges(ctx, g.parallelEdges, g.batchSize); err != nil {
		return nil, err
	}

	logger.Debug("[Graph] Dependency graph built", "vertices", dg.VertexCount(), "edges", dg.EdgeCount())
	return dg, nil
}

func (dg *DependencyGraph) addVertices(ctx context.Context, tokens []annotation.Token, batchSize int) error {
	for i, token := range tokens {
		if i%batchSize == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		dg.tokens = append(dg.tokens, token)
		dg.heads[i] = noHead
		if _, ok := dg.index[token.ID]; !ok {
			dg.index[token.ID] = i
		}
	}
	return ctx.Err()
}

func (dg *DependencyGraph) addEdges(ctx context.Context, parallel, batchSize int) error {
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(parallel)

	// Vertex ordering only reads tokens, so it runs beside the edge workers.
	eg.Go(func() error {
		dg.order = sortedPositions(dg.tokens)
		return nil
	})

	total := len(dg.tokens)
	for start := 0; start < total; start += batchSize {
		s, e := start, min(start+batchSize, total)
		eg.Go(func() error {
			select {
			case <-gCtx.Done():
				return nil
			default:
				return dg.linkRange(gCtx, s, e)
			}
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	for _, h := range dg.heads {
		if h != noHead {
			dg.edges++
		}
	}
	return nil
}

// linkRange writes the head slot of every token in [start, end). Workers own
// disjoint ranges, so no locking is needed.
func (dg *DependencyGraph) linkRange(ctx context.Context, start, end int) error {
	for i := start; i < end; i++ {
		if (i-start)%1024 == 0 && ctx.Err() != nil {
			return nil
		}
		t := dg.tokens[i]
		if t.IsRoot() {
			continue
		}
		h, ok := dg.index[t.Head]
		if !ok {
			return common.NewIntegrityError(common.PhaseEdges, common.ErrMissingHead,
				"token %d at [%d:%d] references head %d", t.ID, t.Start, t.End, t.Head)
		}
		dg.heads[i] = h
	}
	return nil
}

func sortedPositions(tokens []annotation.Token) []int {
	order := make([]int, len(tokens))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return tokens[a].Compare(tokens[b])
	})
	return order
}

func (dg *DependencyGraph) VertexCount() int {
	return len(dg.tokens)
}

func (dg *DependencyGraph) EdgeCount() int {
	return dg.edges
}

// Vertices returns all tokens in annotation.Token.Compare order.
func (dg *DependencyGraph) Vertices() []annotation.Token {
	out := make([]annotation.Token, 0, len(dg.order))
	for _, p := range dg.order {
		out = append(out, dg.tokens[p])
	}
	return out
}

// Edges returns every dependency edge, ordered by the dependent token.
func (dg *DependencyGraph) Edges() []Edge {
	out := make([]Edge, 0, dg.edges)
	for _, p := range dg.order {
		if h := dg.heads[p]; h != noHead {
			out = append(out, Edge{From: dg.tokens[p], To: dg.tokens[h]})
		}
	}
	return out
}

// Roots returns the tokens without an outgoing edge.
func (dg *DependencyGraph) Roots() []annotation.Token {
	var out []annotation.Token
	for _, p := range dg.order {
		if dg.heads[p] == noHead {
			out = append(out, dg.tokens[p])
		}
	}
	return out
}

// Head returns the head of the token with the given id. ok is false for
// roots and unknown ids.
func (dg *DependencyGraph) Head(id int) (head annotation.Token, ok bool) {
	p, found := dg.index[id]
	if !found || dg.heads[p] == noHead {
		return annotation.Token{}, false
	}
	return dg.tokens[dg.heads[p]], true
}

// Dependents returns the tokens whose edge points at the token with the
// given id.
func (dg *DependencyGraph) Dependents(id int) []annotation.Token {
	p, found := dg.index[id]
	if !found {
		return nil
	}
	var out []annotation.Token
	for _, q := range dg.order {
		if dg.heads[q] == p {
			out = append(out, dg.tokens[q])
		}
	}
	return out
}

// String renders the vertex and edge counts followed by one adjacency line
// per vertex. It is meant for logs, not for parsing.
func (dg *DependencyGraph) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "DependencyGraph: %d vertices, %d edges", dg.VertexCount(), dg.EdgeCount())
	for _, p := range dg.order {
		t := dg.tokens[p]
		b.WriteString("\n  ")
		b.WriteString(t.String())
		if t.Lemma != "" {
			fmt.Fprintf(&b, " %q", t.Lemma)
		}
		h := dg.heads[p]
		if h == noHead {
			b.WriteString(" (root)")
			continue
		}
		dep := t.DependencyType
		if dep == "" {
			dep = "dep"
		}
		fmt.Fprintf(&b, " -%s-> %s", dep, dg.tokens[h].String())
	}
	return b.String()
}
