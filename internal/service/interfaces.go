package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"pagecache/internal/domain"
)

// ErrNoRemoteKey is returned when a source has no stored pagination cursor.
// Seeing it on an append path means the caller skipped the initial refresh.
var ErrNoRemoteKey = errors.New("no remote key for source")

type ItemStore interface {
	Insert(ctx context.Context, item *domain.ContentItem) error
	DeleteBySource(ctx context.Context, sourceID string) error
	CountBySource(ctx context.Context, sourceID string) (int64, error)
	ListBySource(ctx context.Context, sourceID string, limit, offset int64) ([]domain.ContentItem, error)
}

type RemoteKeyStore interface {
	Get(ctx context.Context, sourceID string) (*domain.RemoteKey, error)
	Upsert(ctx context.Context, sourceID string, nextPageKey *string) error
	DeleteBySource(ctx context.Context, sourceID string) error
}

type OperationLogStore interface {
	Append(ctx context.Context, entry domain.OperationLogEntry) error
	LastTimestamp(ctx context.Context, sourceID string) (*time.Time, error)
	DeleteBySource(ctx context.Context, sourceID string) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Source interface {
	Meta() domain.SourceMeta
	Fetch(ctx context.Context, req domain.LoadRequest) (*domain.DataResult, error)
}

type Classifier interface {
	Classify(rawURL string) domain.ContentType
}

type Publisher interface {
	Publish(ctx context.Context, event domain.PageCommitted) error
	Close() error
}

// Clock is injected so freshness decisions are testable.
type Clock func() time.Time
