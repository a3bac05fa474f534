package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/necronomicon/backend/pkg/entity"
	"github.com/necronomicon/backend/pkg/graph"
	"github.com/necronomicon/backend/pkg/logger"
	"github.com/necronomicon/backend/pkg/store"

	"github.com/google/uuid"
	pgxv5 "github.com/jackc/pgx/v5"
)

// CreatePending inserts a document in the pending state. An existing
// document with the same id is reset to pending.
func (s *DocumentDBStorage) CreatePending(ctx context.Context, doc store.Document) error {
	_, err := s.conn.Exec(ctx, upsertDocumentSQL, doc.ID, sanitizeText(doc.Title), doc.ContentKey, store.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to create document %s: %w", doc.ID, err)
	}
	return nil
}

func (s *DocumentDBStorage) SetStatus(ctx context.Context, id uuid.UUID, status string, reason string) error {
	tag, err := s.conn.Exec(ctx, setStatusSQL, id, status, reason)
	if err != nil {
		return fmt.Errorf("failed to update status of document %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrDocumentNotFound, id)
	}
	return nil
}

// SaveResult replaces the stored graph, sentences and entities of a document
// with res and marks it done.
func (s *DocumentDBStorage) SaveResult(ctx context.Context, doc store.Document, res *graph.Result) error {
	rows, err := buildResultRows(res)
	if err != nil {
		return err
	}

	logger.Debug("[Store][SaveResult] Saving document",
		"id", doc.ID,
		"tokens", len(rows.tokens.positions),
		"edges", len(rows.edges.from),
		"entities", len(rows.entities.ids),
	)

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, upsertDocumentSQL, doc.ID, sanitizeText(doc.Title), doc.ContentKey, store.StatusProcessing); err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", doc.ID, err)
	}
	for _, q := range clearDocumentSQL {
		if _, err := tx.Exec(ctx, q, doc.ID); err != nil {
			return fmt.Errorf("failed to clear previous result of %s: %w", doc.ID, err)
		}
	}

	t := rows.tokens
	err = store.ChunkRange(len(t.positions), s.chunkSize, func(start, end int) error {
		_, err := tx.Exec(ctx, insertTokensSQL, doc.ID,
			t.positions[start:end], t.ids[start:end], t.starts[start:end], t.ends[start:end],
			t.tags[start:end], t.pos[start:end], t.lemmas[start:end], t.deps[start:end], t.heads[start:end],
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert tokens: %w", err)
	}

	e := rows.edges
	err = store.ChunkRange(len(e.from), s.chunkSize, func(start, end int) error {
		_, err := tx.Exec(ctx, insertEdgesSQL, doc.ID, e.from[start:end], e.to[start:end], e.deps[start:end])
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert edges: %w", err)
	}

	sn := rows.sentences
	err = store.ChunkRange(len(sn.starts), s.chunkSize, func(start, end int) error {
		_, err := tx.Exec(ctx, insertSentencesSQL, doc.ID, sn.positions[start:end], sn.starts[start:end], sn.ends[start:end])
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert sentences: %w", err)
	}

	en := rows.entities
	err = store.ChunkRange(len(en.ids), s.chunkSize, func(start, end int) error {
		_, err := tx.Exec(ctx, insertEntitiesSQL, doc.ID,
			en.ids[start:end], en.kinds[start:end], en.archived[start:end], en.attributes[start:end],
			en.created[start:end], en.modified[start:end],
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert entities: %w", err)
	}

	if _, err := tx.Exec(ctx, finishDocumentSQL, doc.ID, res.Graph.VertexCount(), res.Graph.EdgeCount(), len(res.Sentences)); err != nil {
		return fmt.Errorf("failed to finish document %s: %w", doc.ID, err)
	}

	return tx.Commit(ctx)
}

func (s *DocumentDBStorage) GetDocument(ctx context.Context, id uuid.UUID) (*store.DocumentRecord, error) {
	var rec store.DocumentRecord
	err := s.conn.QueryRow(ctx, getDocumentSQL, id).Scan(
		&rec.ID, &rec.Title, &rec.Status, &rec.Error,
		&rec.Vertices, &rec.Edges, &rec.Sentences,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrDocumentNotFound, id)
		}
		return nil, err
	}

	rows, err := s.conn.Query(ctx, getEntitiesSQL, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rec.Entities = make([]json.RawMessage, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		rec.Entities = append(rec.Entities, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &rec, nil
}

type tokenColumns struct {
	positions, ids, starts, ends, heads []int64
	tags, pos, lemmas, deps             []string
}

type edgeColumns struct {
	from, to []int64
	deps     []string
}

type sentenceColumns struct {
	positions, starts, ends []int64
}

type entityColumns struct {
	ids, kinds        []string
	archived          []bool
	attributes        [][]byte
	created, modified []time.Time
}

type resultRows struct {
	tokens    tokenColumns
	edges     edgeColumns
	sentences sentenceColumns
	entities  entityColumns
}

// buildResultRows flattens a result into column slices for the UNNEST
// inserts. Token positions follow the graph's vertex order. Ids and offsets
// are stored as bigint so no value of a Go int is truncated.
func buildResultRows(res *graph.Result) (*resultRows, error) {
	if res == nil || res.Graph == nil || res.Entities == nil {
		return nil, errors.New("incomplete pipeline result")
	}

	var r resultRows

	for i, v := range res.Graph.Vertices() {
		r.tokens.positions = append(r.tokens.positions, int64(i))
		r.tokens.ids = append(r.tokens.ids, int64(v.ID))
		r.tokens.starts = append(r.tokens.starts, int64(v.Start))
		r.tokens.ends = append(r.tokens.ends, int64(v.End))
		r.tokens.heads = append(r.tokens.heads, int64(v.Head))
		r.tokens.tags = append(r.tokens.tags, sanitizeText(v.Tag))
		r.tokens.pos = append(r.tokens.pos, sanitizeText(v.PartOfSpeech))
		r.tokens.lemmas = append(r.tokens.lemmas, sanitizeText(v.Lemma))
		r.tokens.deps = append(r.tokens.deps, sanitizeText(v.DependencyType))
	}

	for _, e := range res.Graph.Edges() {
		r.edges.from = append(r.edges.from, int64(e.From.ID))
		r.edges.to = append(r.edges.to, int64(e.To.ID))
		r.edges.deps = append(r.edges.deps, sanitizeText(e.From.DependencyType))
	}

	for i, s := range res.Sentences {
		r.sentences.positions = append(r.sentences.positions, int64(i))
		r.sentences.starts = append(r.sentences.starts, int64(s.Start))
		r.sentences.ends = append(r.sentences.ends, int64(s.End))
	}

	for _, obj := range res.Entities.All() {
		raw, err := entity.MarshalObject(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to encode entity: %w", err)
		}
		b := obj.Base()
		r.entities.ids = append(r.entities.ids, b.ID)
		r.entities.kinds = append(r.entities.kinds, string(obj.Kind()))
		r.entities.archived = append(r.entities.archived, b.Archived)
		r.entities.attributes = append(r.entities.attributes, raw)
		r.entities.created = append(r.entities.created, b.Created)
		r.entities.modified = append(r.entities.modified, b.Modified)
	}

	return &r, nil
}

// sanitizeText drops NUL bytes and invalid UTF-8, both rejected by
// PostgreSQL text columns.
func sanitizeText(value string) string {
	if value == "" {
		return value
	}
	return strings.ReplaceAll(strings.ToValidUTF8(value, ""), "\x00", "")
}
