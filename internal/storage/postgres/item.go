package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"pagecache/internal/domain"
)

// ItemStore persists normalized content items. Items are keyed by
// (source_id, id); a serial seq column preserves insertion order for the
// paged reads the stream layer issues.
type ItemStore struct {
	db *sqlx.DB
}

func NewItemStore(db *sqlx.DB) *ItemStore {
	return &ItemStore{db: db}
}

func (s *ItemStore) Insert(ctx context.Context, item *domain.ContentItem) error {
	query := `
		INSERT INTO items (
			id, source_id, title, description, author, source,
			score_label, score_value, timestamp, tag, content_type,
			click_url, mark_click_url, index_in_response
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
		ON CONFLICT (source_id, id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			author = EXCLUDED.author,
			source = EXCLUDED.source,
			score_label = EXCLUDED.score_label,
			score_value = EXCLUDED.score_value,
			timestamp = EXCLUDED.timestamp,
			tag = EXCLUDED.tag,
			content_type = EXCLUDED.content_type,
			click_url = EXCLUDED.click_url,
			mark_click_url = EXCLUDED.mark_click_url,
			index_in_response = EXCLUDED.index_in_response`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		item.ID,
		item.SourceID,
		item.Title,
		item.Description,
		item.Author,
		item.Source,
		item.ScoreLabel,
		item.ScoreValue,
		item.Timestamp,
		item.Tag,
		item.ContentType,
		item.ClickURL,
		item.MarkClickURL,
		item.IndexInResponse,
	)
	return err
}

func (s *ItemStore) DeleteBySource(ctx context.Context, sourceID string) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM items WHERE source_id = $1", sourceID)
	return err
}

func (s *ItemStore) CountBySource(ctx context.Context, sourceID string) (int64, error) {
	var count int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count,
		"SELECT COUNT(*) FROM items WHERE source_id = $1", sourceID)
	return count, err
}

func (s *ItemStore) ListBySource(ctx context.Context, sourceID string, limit, offset int64) ([]domain.ContentItem, error) {
	query := `
		SELECT id, source_id, title, description, author, source,
			score_label, score_value, timestamp, tag, content_type,
			click_url, mark_click_url, index_in_response
		FROM items
		WHERE source_id = $1
		ORDER BY seq
		LIMIT $2 OFFSET $3`

	var items []domain.ContentItem
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &items, query, sourceID, limit, offset)
	return items, err
}
