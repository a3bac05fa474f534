package entity

import (
	"github.com/necronomicon/backend/pkg/annotation"
	"github.com/necronomicon/backend/pkg/common"
)

// ResolveSpan returns the first token in sequence order whose own bounds
// equal [start, end) exactly. Overlapping or partial matches are never
// accepted.
//
// Only single-token spans resolve. A span covering several tokens, such as a
// multi-word organisation name, fails with common.ErrSpanNotFound.
func ResolveSpan(start, end int, tokens []annotation.Token) (annotation.Token, error) {
	for _, t := range tokens {
		if t.Start == start && t.End == end {
			return t, nil
		}
	}
	return annotation.Token{}, common.NewIntegrityError(common.PhaseEntities, common.ErrSpanNotFound,
		"span [%d:%d] matches no token", start, end)
}
