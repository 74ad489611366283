package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"pagecache/internal/domain"
	"pagecache/internal/service"
)

// RemoteKeyStore holds one pagination cursor row per source.
type RemoteKeyStore struct {
	db *sqlx.DB
}

func NewRemoteKeyStore(db *sqlx.DB) *RemoteKeyStore {
	return &RemoteKeyStore{db: db}
}

func (s *RemoteKeyStore) Get(ctx context.Context, sourceID string) (*domain.RemoteKey, error) {
	var key domain.RemoteKey
	query := "SELECT source_id, next_page_key FROM remote_keys WHERE source_id = $1"

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &key, query, sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, service.ErrNoRemoteKey
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (s *RemoteKeyStore) Upsert(ctx context.Context, sourceID string, nextPageKey *string) error {
	query := `
		INSERT INTO remote_keys (source_id, next_page_key)
		VALUES ($1, $2)
		ON CONFLICT (source_id) DO UPDATE SET
			next_page_key = EXCLUDED.next_page_key`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, sourceID, nextPageKey)
	return err
}

func (s *RemoteKeyStore) DeleteBySource(ctx context.Context, sourceID string) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM remote_keys WHERE source_id = $1", sourceID)
	return err
}
