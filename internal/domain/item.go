package domain

import "time"

// ContentType is the coarse classification of what an item links to.
type ContentType string

const (
	ContentTypeImage ContentType = "IMAGE"
	ContentTypeOther ContentType = "OTHER"
)

// ContentItem is a normalized unit of content from a source.
// (SourceID, ID) is unique within the cache.
type ContentItem struct {
	ID           int64        `db:"id"`
	SourceID     string       `db:"source_id"`
	Title        string       `db:"title"`
	Description  *string      `db:"description"`
	Author       *string      `db:"author"`
	Source       *string      `db:"source"` // display domain (e.g., "i.imgur.com")
	ScoreLabel   *string      `db:"score_label"`
	ScoreValue   *int64       `db:"score_value"`
	Timestamp    *time.Time   `db:"timestamp"`
	Tag          *string      `db:"tag"`
	ContentType  *ContentType `db:"content_type"` // nil indicates unset, inferred before persisting
	ClickURL     *string      `db:"click_url"`
	MarkClickURL *string      `db:"mark_click_url"`

	// IndexInResponse is the item's position in the overall response
	// sequence for its source. Append loads resume from the last
	// persisted value.
	IndexInResponse int `db:"index_in_response"`
}

// RemoteKey is the per-source pagination cursor. A nil NextPageKey means
// pagination is exhausted.
type RemoteKey struct {
	SourceID    string  `db:"source_id"`
	NextPageKey *string `db:"next_page_key"`
}

// OpInsert is the only operation currently recorded in the operation log.
const OpInsert = "insert"

// OperationLogEntry is one row of the append-only cache mutation log.
type OperationLogEntry struct {
	Timestamp time.Time `db:"timestamp"`
	SourceID  string    `db:"source_id"`
	Operation string    `db:"operation"`
}
