package domain

import "time"

// PageCommitted is emitted after a load's transaction commits.
type PageCommitted struct {
	SourceID        string    `json:"source_id"`
	LoadType        string    `json:"load_type"`
	ItemCount       int       `json:"item_count"`
	EndOfPagination bool      `json:"end_of_pagination"`
	Timestamp       time.Time `json:"timestamp"`
}
