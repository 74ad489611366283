package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pagecache/internal/domain"
)

// cacheTimeout is how old cached data may be before a startup refresh is
// forced.
const cacheTimeout = time.Hour

// Mediator reconciles a remote paginated source with the local item cache.
// It decides what to fetch for a REFRESH/PREPEND/APPEND request and commits
// the result atomically.
//
// The mediator holds no mutable state; everything cross-call lives in the
// stores. Callers must not issue two concurrent Load calls for the same
// source — serialization is the paging consumer's job.
type Mediator struct {
	source     Source
	items      ItemStore
	remoteKeys RemoteKeyStore
	operations OperationLogStore
	txManager  TransactionManager
	classifier Classifier
	publisher  Publisher
	clock      Clock
	fakeMode   bool
	logger     *slog.Logger
}

func NewMediator(
	source Source,
	items ItemStore,
	remoteKeys RemoteKeyStore,
	operations OperationLogStore,
	txManager TransactionManager,
	classifier Classifier,
	publisher Publisher,
	clock Clock,
	fakeMode bool,
	logger *slog.Logger,
) *Mediator {
	if clock == nil {
		clock = time.Now
	}
	return &Mediator{
		source:     source,
		items:      items,
		remoteKeys: remoteKeys,
		operations: operations,
		txManager:  txManager,
		classifier: classifier,
		publisher:  publisher,
		clock:      clock,
		fakeMode:   fakeMode,
		logger:     logger.With("source", source.Meta().ID),
	}
}

// Load performs one synchronization attempt. A fetch either fully commits
// its page or commits nothing; a failed load leaves the cache untouched.
func (m *Mediator) Load(ctx context.Context, loadType domain.LoadType, state PagingState) (domain.LoadResult, error) {
	meta := m.source.Meta()
	m.logger.Debug("loading", "load_type", loadType.String(), "pages_held", state.PageCount())

	var pageKey *string
	var pageOffset int

	switch loadType {
	case domain.LoadRefresh:
		// Always restart from the source-defined first page, ignoring
		// any stored cursor.
		pageKey = meta.FirstPageKey

	case domain.LoadPrepend:
		// The first page loaded is always the earliest available, so
		// there is never anything before it.
		return domain.LoadResult{EndOfPagination: true}, nil

	case domain.LoadAppend:
		remoteKey, err := m.remoteKeys.Get(ctx, meta.ID)
		if errors.Is(err, ErrNoRemoteKey) {
			// Nothing was ever refreshed for this source; there is no
			// cursor to continue from.
			return domain.LoadResult{EndOfPagination: true}, nil
		}
		if err != nil {
			return domain.LoadResult{}, fmt.Errorf("get remote key: %w", err)
		}
		// A stored nil key is how an exhausted source is recorded.
		// Passing it to the source would re-fetch the first page.
		if remoteKey.NextPageKey == nil {
			m.logger.Debug("append with nil key, end of pagination")
			return domain.LoadResult{EndOfPagination: true}, nil
		}
		pageKey = remoteKey.NextPageKey
		if last := state.LastItem(); last != nil {
			pageOffset = last.IndexInResponse
		}
	}

	limit := state.Config.PageSize
	if loadType == domain.LoadRefresh {
		limit = state.Config.InitialLoadSize
	}

	result, err := m.fetch(ctx, domain.LoadRequest{
		PageKey:     pageKey,
		PageOffset:  pageOffset,
		Limit:       limit,
		UseFakeData: m.fakeMode,
	})
	if err != nil {
		return domain.LoadResult{}, fmt.Errorf("fetch %s: %w", meta.ID, err)
	}

	err = m.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if loadType == domain.LoadRefresh {
			if err := m.items.DeleteBySource(txCtx, meta.ID); err != nil {
				return fmt.Errorf("delete items: %w", err)
			}
			if err := m.operations.DeleteBySource(txCtx, meta.ID); err != nil {
				return fmt.Errorf("delete operations: %w", err)
			}
			if err := m.remoteKeys.DeleteBySource(txCtx, meta.ID); err != nil {
				return fmt.Errorf("delete remote key: %w", err)
			}
		}

		if err := m.remoteKeys.Upsert(txCtx, meta.ID, result.NextPageKey); err != nil {
			return fmt.Errorf("upsert remote key: %w", err)
		}
		for i := range result.Items {
			if err := m.items.Insert(txCtx, &result.Items[i]); err != nil {
				return fmt.Errorf("insert item: %w", err)
			}
		}
		return m.operations.Append(txCtx, domain.OperationLogEntry{
			Timestamp: m.clock(),
			SourceID:  meta.ID,
			Operation: domain.OpInsert,
		})
	})
	if err != nil {
		return domain.LoadResult{}, fmt.Errorf("commit %s page: %w", meta.ID, err)
	}

	loadResult := domain.LoadResult{
		EndOfPagination: result.NextPageKey == nil || len(result.Items) == 0,
	}

	m.logger.Info("page committed",
		"load_type", loadType.String(),
		"items", len(result.Items),
		"end_of_pagination", loadResult.EndOfPagination,
	)

	if m.publisher != nil {
		event := domain.PageCommitted{
			SourceID:        meta.ID,
			LoadType:        loadType.String(),
			ItemCount:       len(result.Items),
			EndOfPagination: loadResult.EndOfPagination,
			Timestamp:       m.clock().UTC(),
		}
		if err := m.publisher.Publish(ctx, event); err != nil {
			m.logger.Warn("publish page event failed", "error", err)
		}
	}

	return loadResult, nil
}

func (m *Mediator) fetch(ctx context.Context, req domain.LoadRequest) (*domain.DataResult, error) {
	meta := m.source.Meta()

	if req.UseFakeData && !meta.SupportsFakeData {
		return &domain.DataResult{
			Items:       domain.FakeItems(req.Limit, meta.ID, meta.IsVisual, req.PageOffset),
			NextPageKey: nil,
		}, nil
	}

	result, err := m.source.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	// Backfill content types for items the source left unset. A type the
	// source already assigned is never overwritten.
	for i := range result.Items {
		item := &result.Items[i]
		if item.ContentType == nil && item.ClickURL != nil {
			contentType := m.classifier.Classify(*item.ClickURL)
			item.ContentType = &contentType
		}
	}

	return result, nil
}

// Initialize decides whether the startup refresh can be skipped. Cached data
// younger than the cache timeout is considered fresh. Read-only.
func (m *Mediator) Initialize(ctx context.Context) (domain.InitializeAction, error) {
	meta := m.source.Meta()

	lastUpdate, err := m.operations.LastTimestamp(ctx, meta.ID)
	if err != nil {
		return domain.LaunchInitialRefresh, fmt.Errorf("last operation timestamp: %w", err)
	}

	if lastUpdate != nil && m.clock().Sub(*lastUpdate) < cacheTimeout {
		m.logger.Debug("cached data is fresh, skipping initial refresh")
		return domain.SkipInitialRefresh, nil
	}

	m.logger.Debug("cached data is stale or absent, launching initial refresh")
	return domain.LaunchInitialRefresh, nil
}
