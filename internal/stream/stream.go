package stream

import (
	"context"
	"log/slog"
	"sync"

	"pagecache/internal/domain"
	"pagecache/internal/service"
)

// Loader is the fetch-on-demand backstop behind a stream. Nil in offline
// mode.
type Loader interface {
	Load(ctx context.Context, loadType domain.LoadType, state service.PagingState) (domain.LoadResult, error)
	Initialize(ctx context.Context) (domain.InitializeAction, error)
}

// ItemReader is the cache query the stream re-emits pages from.
type ItemReader interface {
	CountBySource(ctx context.Context, sourceID string) (int64, error)
	ListBySource(ctx context.Context, sourceID string, limit, offset int64) ([]domain.ContentItem, error)
}

// Snapshot is one emission of the stream: everything currently cached for
// the source, in insertion order. Err carries the most recent load failure;
// Items still holds the previously cached data so consumers can keep
// showing it next to a retry affordance.
type Snapshot struct {
	Items           []domain.ContentItem
	EndOfPagination bool
	Err             error
}

// Stream is a hot, shareable sequence of item pages for one source.
// Multiple subscribers attach to the same underlying load driver, so
// concurrent observers never trigger duplicate fetches. All work stops when
// the context passed to the factory's Open ends.
type Stream struct {
	sourceID string
	reader   ItemReader
	loader   Loader
	config   service.PagingConfig
	logger   *slog.Logger

	requests chan domain.LoadType

	mu          sync.Mutex
	subscribers map[int]chan Snapshot
	nextSubID   int
	latest      Snapshot
	hasLatest   bool
	closed      bool

	// endOfPagination is only touched by the driver goroutine.
	endOfPagination bool
}

func newStream(sourceID string, reader ItemReader, loader Loader, config service.PagingConfig, logger *slog.Logger) *Stream {
	return &Stream{
		sourceID:    sourceID,
		reader:      reader,
		loader:      loader,
		config:      config,
		logger:      logger.With("source", sourceID),
		requests:    make(chan domain.LoadType, 1),
		subscribers: make(map[int]chan Snapshot),
	}
}

// Subscribe attaches an observer. The returned channel carries the latest
// snapshot immediately (if one exists) and every re-emission after that;
// it is closed when either ctx or the stream's own scope ends. Slow
// consumers only ever see the newest snapshot.
func (s *Stream) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	if s.hasLatest {
		ch <- s.latest
	}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
		s.mu.Unlock()
	}()

	return ch
}

// Refresh requests a full reload from the first page. Coalesced: while a
// load is pending, further triggers are dropped.
func (s *Stream) Refresh() {
	s.request(domain.LoadRefresh)
}

// LoadMore requests the next page when the consumer nears the end of what
// it holds. A no-op once pagination is exhausted.
func (s *Stream) LoadMore() {
	s.request(domain.LoadAppend)
}

func (s *Stream) request(loadType domain.LoadType) {
	select {
	case s.requests <- loadType:
	default:
		// A load is already queued; one in-flight load per source.
	}
}

// run is the single load driver. It owns all fetch decisions so that the
// mediator's one-load-in-flight contract holds regardless of how many
// subscribers are attached.
func (s *Stream) run(ctx context.Context) {
	defer s.close()

	if s.loader == nil {
		// Cache-only: nothing will ever be fetched.
		s.endOfPagination = true
		s.emit(ctx, nil)
	} else {
		action, err := s.loader.Initialize(ctx)
		if err != nil {
			s.logger.Warn("initialize failed", "error", err)
			action = domain.LaunchInitialRefresh
		}
		if action == domain.LaunchInitialRefresh {
			s.load(ctx, domain.LoadRefresh)
		} else {
			s.emit(ctx, nil)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case loadType := <-s.requests:
			s.load(ctx, loadType)
		}
	}
}

func (s *Stream) load(ctx context.Context, loadType domain.LoadType) {
	if s.loader == nil {
		s.emit(ctx, nil)
		return
	}
	if loadType == domain.LoadAppend && s.endOfPagination {
		return
	}

	state, err := s.pagingState(ctx)
	if err != nil {
		s.logger.Error("read paging state", "error", err)
		s.emit(ctx, err)
		return
	}

	result, err := s.loader.Load(ctx, loadType, state)
	if err != nil {
		s.logger.Error("load failed", "load_type", loadType.String(), "error", err)
		s.emit(ctx, err)
		return
	}

	if loadType == domain.LoadRefresh {
		s.endOfPagination = result.EndOfPagination
	} else {
		s.endOfPagination = s.endOfPagination || result.EndOfPagination
	}
	s.emit(ctx, nil)
}

// pagingState rebuilds the consumer-held pages from the cache query.
func (s *Stream) pagingState(ctx context.Context) (service.PagingState, error) {
	state := service.PagingState{Config: s.config}

	count, err := s.reader.CountBySource(ctx, s.sourceID)
	if err != nil {
		return state, err
	}
	if count == 0 {
		return state, nil
	}

	items, err := s.reader.ListBySource(ctx, s.sourceID, count, 0)
	if err != nil {
		return state, err
	}

	pageSize := s.config.PageSize
	if pageSize <= 0 {
		pageSize = len(items)
	}
	for start := 0; start < len(items); start += pageSize {
		end := start + pageSize
		if end > len(items) {
			end = len(items)
		}
		state.Pages = append(state.Pages, items[start:end])
	}
	return state, nil
}

func (s *Stream) emit(ctx context.Context, loadErr error) {
	snapshot := Snapshot{EndOfPagination: s.endOfPagination, Err: loadErr}

	count, err := s.reader.CountBySource(ctx, s.sourceID)
	if err == nil && count > 0 {
		snapshot.Items, err = s.reader.ListBySource(ctx, s.sourceID, count, 0)
	}
	if err != nil {
		s.logger.Error("read cache for emission", "error", err)
		if snapshot.Err == nil {
			snapshot.Err = err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.latest = snapshot
	s.hasLatest = true
	for _, sub := range s.subscribers {
		select {
		case sub <- snapshot:
		default:
			// Replace the stale pending snapshot.
			select {
			case <-sub:
			default:
			}
			sub <- snapshot
		}
	}
}

func (s *Stream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, sub := range s.subscribers {
		delete(s.subscribers, id)
		close(sub)
	}
}
