package entity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/necronomicon/backend/pkg/annotation"
	"github.com/necronomicon/backend/pkg/common"
	"github.com/necronomicon/backend/pkg/logger"
)

// handler builds the typed entity for one span. localID is the index of the
// span in the input sequence.
type handler func(span annotation.EntitySpan, localID int, tokens []annotation.Token) (common.Object, error)

// handlers maps every label with an implemented mapping to its builder.
// Labels of the vocabulary that are missing here are skipped.
var handlers = map[annotation.EntityLabel]handler{
	annotation.LabelPerson: materializePerson,
}

func materializePerson(span annotation.EntitySpan, localID int, tokens []annotation.Token) (common.Object, error) {
	token, err := ResolveSpan(span.Start, span.End, tokens)
	if err != nil {
		return nil, err
	}
	base, err := common.NewObjectBase(localID)
	if err != nil {
		return nil, err
	}
	return &common.Person{ObjectBase: base, Name: token.Lemma}, nil
}

// Supported reports whether spans with the given label produce an entity.
func Supported(label annotation.EntityLabel) bool {
	_, ok := handlers[label]
	return ok
}

// Collection holds the entities materialized for one document in span
// order.
type Collection struct {
	objects []common.Object
	byLocal map[int]common.Object
}

func newCollection(capacity int) *Collection {
	return &Collection{
		objects: make([]common.Object, 0, capacity),
		byLocal: make(map[int]common.Object, capacity),
	}
}

func (c *Collection) add(obj common.Object) {
	c.objects = append(c.objects, obj)
	c.byLocal[obj.Base().LocalID()] = obj
}

func (c *Collection) Len() int {
	return len(c.objects)
}

// All returns the entities in the order their spans appeared.
func (c *Collection) All() []common.Object {
	out := make([]common.Object, len(c.objects))
	copy(out, c.objects)
	return out
}

// LookupByLocalID returns the entity materialized from the span at index id.
func (c *Collection) LookupByLocalID(id int) (common.Object, error) {
	obj, ok := c.byLocal[id]
	if !ok {
		return nil, fmt.Errorf("%w: local id %d", common.ErrEntityNotFound, id)
	}
	return obj, nil
}

// MarshalJSON encodes the collection as an array of entities tagged with
// their kind.
func (c *Collection) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(c.objects))
	for _, obj := range c.objects {
		raw, err := MarshalObject(obj)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return json.Marshal(out)
}

// MarshalObject encodes one entity with an additional "kind" field.
func MarshalObject(obj common.Object) (json.RawMessage, error) {
	body, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	kind, err := json.Marshal(map[string]common.ObjectKind{"kind": obj.Kind()})
	if err != nil {
		return nil, err
	}
	if len(body) <= 2 {
		return kind, nil
	}
	merged := make([]byte, 0, len(kind)+len(body))
	merged = append(merged, kind[:len(kind)-1]...)
	merged = append(merged, ',')
	merged = append(merged, body[1:]...)
	return merged, nil
}

// Materialize turns entity spans into typed entities. Spans with a supported
// label are resolved against tokens; other labels of the vocabulary are
// skipped. A label outside the vocabulary or a span without a matching token
// fails the whole run.
func Materialize(ctx context.Context, spans []annotation.EntitySpan, tokens []annotation.Token) (*Collection, error) {
	c := newCollection(len(spans))
	skipped := 0

	for i, span := range spans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		label, err := annotation.ParseEntityLabel(span.Label)
		if err != nil {
			return nil, common.NewIntegrityError(common.PhaseEntities, common.ErrUnknownLabel,
				"span %d %s", i, span)
		}

		h, ok := handlers[label]
		if !ok {
			skipped++
			logger.Debug("[Entity] Skipping unsupported label", "label", label, "start", span.Start, "end", span.End)
			continue
		}

		obj, err := h(span, i, tokens)
		if err != nil {
			return nil, err
		}
		c.add(obj)
	}

	logger.Debug("[Entity] Materialized entities", "spans", len(spans), "entities", c.Len(), "skipped", skipped)
	return c, nil
}
