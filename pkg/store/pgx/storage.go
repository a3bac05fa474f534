package pgx

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

const defaultChunkSize = 1000

// DocumentDBStorage implements store.DocumentStorage on PostgreSQL. Results
// of one document are written in a single transaction so readers never see
// a half stored graph.
type DocumentDBStorage struct {
	conn      pgxIConn
	chunkSize int
}

type DocumentDBStorageOption func(*DocumentDBStorage)

// WithChunkSize sets how many rows are sent per insert statement.
func WithChunkSize(n int) DocumentDBStorageOption {
	return func(s *DocumentDBStorage) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// NewDocumentDBStorageWithConnection creates a DocumentDBStorage on top of an
// existing pool or connection.
func NewDocumentDBStorageWithConnection(conn pgxIConn, opts ...DocumentDBStorageOption) *DocumentDBStorage {
	s := &DocumentDBStorage{
		conn:      conn,
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}
