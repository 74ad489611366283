package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"pagecache/internal/domain"
)

// OperationLogStore is the append-only audit of cache mutations. Its only
// consumer is the freshness gate, which wants the newest timestamp per
// source.
type OperationLogStore struct {
	db *sqlx.DB
}

func NewOperationLogStore(db *sqlx.DB) *OperationLogStore {
	return &OperationLogStore{db: db}
}

func (s *OperationLogStore) Append(ctx context.Context, entry domain.OperationLogEntry) error {
	query := `
		INSERT INTO operation_log (timestamp, source_id, operation)
		VALUES ($1, $2, $3)`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		entry.Timestamp, entry.SourceID, entry.Operation)
	return err
}

func (s *OperationLogStore) LastTimestamp(ctx context.Context, sourceID string) (*time.Time, error) {
	var ts time.Time
	query := `
		SELECT timestamp FROM operation_log
		WHERE source_id = $1
		ORDER BY timestamp DESC
		LIMIT 1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &ts, query, sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (s *OperationLogStore) DeleteBySource(ctx context.Context, sourceID string) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM operation_log WHERE source_id = $1", sourceID)
	return err
}
