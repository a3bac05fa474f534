// Package timing records how long documents take to process and predicts
// the duration of queued ones from recent history.
package timing

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// StatDocument measures the full worker pipeline. Amount is the content
// size in bytes.
const StatDocument = "document"

// historyWindow is how many recent samples a prediction averages over.
const historyWindow = 100

const addProcessingTimeSQL = `
INSERT INTO process_stats (stat_type, amount, duration_ms)
VALUES ($1, $2, $3)
`

const predictProcessingTimeSQL = `
SELECT COALESCE(CEIL(SUM(duration_ms)::float8 / NULLIF(SUM(amount), 0) * $2), 0)::bigint
FROM (
    SELECT amount, duration_ms
    FROM process_stats
    WHERE stat_type = $1
    ORDER BY created_at DESC
    LIMIT $3
) recent
`

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Recorder struct {
	conn dbConn
}

func NewRecorder(conn dbConn) *Recorder {
	return &Recorder{conn: conn}
}

func (r *Recorder) AddProcessingTime(ctx context.Context, statType string, amount, durationMs int64) error {
	if amount <= 0 {
		return nil
	}
	_, err := r.conn.Exec(ctx, addProcessingTimeSQL, statType, amount, durationMs)
	return err
}

// PredictProcessingTime scales the recent milliseconds-per-unit rate to
// amount. It returns 0 when there is no history yet.
func (r *Recorder) PredictProcessingTime(ctx context.Context, statType string, amount int64) (int64, error) {
	var ms int64
	err := r.conn.QueryRow(ctx, predictProcessingTimeSQL, statType, amount, historyWindow).Scan(&ms)
	if err != nil {
		return 0, err
	}
	return ms, nil
}
