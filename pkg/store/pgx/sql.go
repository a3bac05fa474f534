package pgx

const upsertDocumentSQL = `
INSERT INTO documents (id, title, content_key, status)
VALUES ($1, $2, NULLIF($3, ''), $4)
ON CONFLICT (id) DO UPDATE
SET title       = EXCLUDED.title,
    content_key = COALESCE(EXCLUDED.content_key, documents.content_key),
    status      = EXCLUDED.status,
    error       = '',
    updated_at  = now();
`

const setStatusSQL = `
UPDATE documents
SET status = $2, error = $3, updated_at = now()
WHERE id = $1;
`

var clearDocumentSQL = []string{
	`DELETE FROM document_entities WHERE document_id = $1;`,
	`DELETE FROM document_sentences WHERE document_id = $1;`,
	`DELETE FROM document_edges WHERE document_id = $1;`,
	`DELETE FROM document_tokens WHERE document_id = $1;`,
}

const insertTokensSQL = `
INSERT INTO document_tokens (document_id, position, token_id, start_offset, end_offset, tag, pos, lemma, dep, head)
SELECT $1, t.position, t.token_id, t.start_offset, t.end_offset, t.tag, t.pos, t.lemma, t.dep, t.head
FROM UNNEST($2::bigint[], $3::bigint[], $4::bigint[], $5::bigint[], $6::text[], $7::text[], $8::text[], $9::text[], $10::bigint[])
    AS t(position, token_id, start_offset, end_offset, tag, pos, lemma, dep, head);
`

const insertEdgesSQL = `
INSERT INTO document_edges (document_id, from_token, to_token, dep)
SELECT $1, e.from_token, e.to_token, e.dep
FROM UNNEST($2::bigint[], $3::bigint[], $4::text[]) AS e(from_token, to_token, dep);
`

const insertSentencesSQL = `
INSERT INTO document_sentences (document_id, position, start_offset, end_offset)
SELECT $1, s.position, s.start_offset, s.end_offset
FROM UNNEST($2::bigint[], $3::bigint[], $4::bigint[]) AS s(position, start_offset, end_offset);
`

const insertEntitiesSQL = `
INSERT INTO document_entities (id, document_id, kind, archived, attributes, created_at, modified_at)
SELECT e.id, $1, e.kind, e.archived, e.attributes, e.created_at, e.modified_at
FROM UNNEST($2::text[], $3::text[], $4::bool[], $5::jsonb[], $6::timestamptz[], $7::timestamptz[])
    AS e(id, kind, archived, attributes, created_at, modified_at);
`

const finishDocumentSQL = `
UPDATE documents
SET vertex_count = $2, edge_count = $3, sentence_count = $4, status = 'done', error = '', updated_at = now()
WHERE id = $1;
`

const getDocumentSQL = `
SELECT id, title, status, error, vertex_count, edge_count, sentence_count, created_at, updated_at
FROM documents
WHERE id = $1;
`

const getEntitiesSQL = `
SELECT attributes
FROM document_entities
WHERE document_id = $1
ORDER BY seq;
`
