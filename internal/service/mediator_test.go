package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"pagecache/internal/domain"
	"pagecache/internal/service/mocks"
)

func strPtr(s string) *string { return &s }

func ctPtr(ct domain.ContentType) *domain.ContentType { return &ct }

type MediatorTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	source     *mocks.MockSource
	items      *mocks.MockItemStore
	remoteKeys *mocks.MockRemoteKeyStore
	operations *mocks.MockOperationLogStore
	txManager  *mocks.MockTransactionManager
	classifier *mocks.MockClassifier
	publisher  *mocks.MockPublisher

	mediator *Mediator
	meta     domain.SourceMeta
	now      time.Time
	state    PagingState
	logger   *slog.Logger
}

func (s *MediatorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.source = mocks.NewMockSource(s.ctrl)
	s.items = mocks.NewMockItemStore(s.ctrl)
	s.remoteKeys = mocks.NewMockRemoteKeyStore(s.ctrl)
	s.operations = mocks.NewMockOperationLogStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)
	s.classifier = mocks.NewMockClassifier(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)

	s.meta = domain.SourceMeta{
		ID:           "hn",
		Name:         "Hacker News",
		FirstPageKey: strPtr("0"),
	}
	s.source.EXPECT().Meta().Return(s.meta).AnyTimes()

	s.now = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	s.state = PagingState{Config: PagingConfig{PageSize: 20, InitialLoadSize: 25}}

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.mediator = s.newMediator(false)
}

func (s *MediatorTestSuite) newMediator(fakeMode bool) *Mediator {
	return NewMediator(
		s.source,
		s.items,
		s.remoteKeys,
		s.operations,
		s.txManager,
		s.classifier,
		s.publisher,
		func() time.Time { return s.now },
		fakeMode,
		s.logger,
	)
}

func (s *MediatorTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestMediatorTestSuite(t *testing.T) {
	suite.Run(t, new(MediatorTestSuite))
}

func (s *MediatorTestSuite) expectTransaction(ctx context.Context) {
	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
}

func (s *MediatorTestSuite) TestRefresh_ClearsAndCommitsPage() {
	ctx := context.Background()

	items := make([]domain.ContentItem, 25)
	for i := range items {
		items[i] = domain.ContentItem{
			ID:              int64(i + 1),
			SourceID:        "hn",
			Title:           "story",
			ContentType:     ctPtr(domain.ContentTypeOther),
			IndexInResponse: i,
		}
	}

	s.source.EXPECT().
		Fetch(ctx, domain.LoadRequest{PageKey: strPtr("0"), PageOffset: 0, Limit: 25}).
		Return(&domain.DataResult{Items: items, NextPageKey: strPtr("cursor2")}, nil)

	s.expectTransaction(ctx)
	s.items.EXPECT().DeleteBySource(ctx, "hn").Return(nil)
	s.operations.EXPECT().DeleteBySource(ctx, "hn").Return(nil)
	s.remoteKeys.EXPECT().DeleteBySource(ctx, "hn").Return(nil)
	s.remoteKeys.EXPECT().Upsert(ctx, "hn", strPtr("cursor2")).Return(nil)
	s.items.EXPECT().Insert(ctx, gomock.Any()).Return(nil).Times(25)
	s.operations.EXPECT().Append(ctx, domain.OperationLogEntry{
		Timestamp: s.now,
		SourceID:  "hn",
		Operation: domain.OpInsert,
	}).Return(nil)
	s.publisher.EXPECT().Publish(ctx, domain.PageCommitted{
		SourceID:        "hn",
		LoadType:        "refresh",
		ItemCount:       25,
		EndOfPagination: false,
		Timestamp:       s.now,
	}).Return(nil)

	result, err := s.mediator.Load(ctx, domain.LoadRefresh, s.state)

	s.NoError(err)
	s.False(result.EndOfPagination)
}

func (s *MediatorTestSuite) TestPrepend_IsAlwaysExhausted() {
	result, err := s.mediator.Load(context.Background(), domain.LoadPrepend, s.state)

	s.NoError(err)
	s.True(result.EndOfPagination)
}

func (s *MediatorTestSuite) TestAppend_NilStoredKeySkipsFetch() {
	ctx := context.Background()

	s.remoteKeys.EXPECT().Get(ctx, "hn").Return(&domain.RemoteKey{SourceID: "hn"}, nil)

	result, err := s.mediator.Load(ctx, domain.LoadAppend, s.state)

	s.NoError(err)
	s.True(result.EndOfPagination)
}

func (s *MediatorTestSuite) TestAppend_MissingKeyRowSkipsFetch() {
	ctx := context.Background()

	s.remoteKeys.EXPECT().Get(ctx, "hn").Return(nil, ErrNoRemoteKey)

	result, err := s.mediator.Load(ctx, domain.LoadAppend, s.state)

	s.NoError(err)
	s.True(result.EndOfPagination)
}

func (s *MediatorTestSuite) TestAppend_ResumesFromLastItemOffset() {
	ctx := context.Background()

	state := s.state
	state.Pages = [][]domain.ContentItem{
		{
			{ID: 1, SourceID: "hn", IndexInResponse: 23},
			{ID: 2, SourceID: "hn", IndexInResponse: 24},
		},
	}

	s.remoteKeys.EXPECT().Get(ctx, "hn").
		Return(&domain.RemoteKey{SourceID: "hn", NextPageKey: strPtr("cursor2")}, nil)

	appended := []domain.ContentItem{
		{ID: 3, SourceID: "hn", ContentType: ctPtr(domain.ContentTypeOther), IndexInResponse: 25},
	}
	s.source.EXPECT().
		Fetch(ctx, domain.LoadRequest{PageKey: strPtr("cursor2"), PageOffset: 24, Limit: 20}).
		Return(&domain.DataResult{Items: appended, NextPageKey: strPtr("cursor3")}, nil)

	s.expectTransaction(ctx)
	s.remoteKeys.EXPECT().Upsert(ctx, "hn", strPtr("cursor3")).Return(nil)
	s.items.EXPECT().Insert(ctx, &appended[0]).Return(nil)
	s.operations.EXPECT().Append(ctx, gomock.Any()).Return(nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	result, err := s.mediator.Load(ctx, domain.LoadAppend, state)

	s.NoError(err)
	s.False(result.EndOfPagination)
}

func (s *MediatorTestSuite) TestAppend_EmptyPageEndsPagination() {
	ctx := context.Background()

	s.remoteKeys.EXPECT().Get(ctx, "hn").
		Return(&domain.RemoteKey{SourceID: "hn", NextPageKey: strPtr("cursor2")}, nil)

	// Non-nil next key, but an empty item list alone is enough to end
	// pagination.
	s.source.EXPECT().Fetch(ctx, gomock.Any()).
		Return(&domain.DataResult{Items: nil, NextPageKey: strPtr("cursor3")}, nil)

	s.expectTransaction(ctx)
	s.remoteKeys.EXPECT().Upsert(ctx, "hn", strPtr("cursor3")).Return(nil)
	s.operations.EXPECT().Append(ctx, gomock.Any()).Return(nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	result, err := s.mediator.Load(ctx, domain.LoadAppend, s.state)

	s.NoError(err)
	s.True(result.EndOfPagination)
}

func (s *MediatorTestSuite) TestRefresh_FetchErrorLeavesCacheUntouched() {
	ctx := context.Background()

	s.source.EXPECT().Fetch(ctx, gomock.Any()).Return(nil, errors.New("connection reset"))

	result, err := s.mediator.Load(ctx, domain.LoadRefresh, s.state)

	s.Error(err)
	s.Contains(err.Error(), "fetch hn")
	s.False(result.EndOfPagination)
}

func (s *MediatorTestSuite) TestRefresh_TransactionErrorSurfaces() {
	ctx := context.Background()

	s.source.EXPECT().Fetch(ctx, gomock.Any()).
		Return(&domain.DataResult{Items: nil, NextPageKey: nil}, nil)

	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).Return(errors.New("deadlock"))

	_, err := s.mediator.Load(ctx, domain.LoadRefresh, s.state)

	s.Error(err)
	s.Contains(err.Error(), "commit hn page")
}

func (s *MediatorTestSuite) TestLoad_BackfillsUnsetContentTypes() {
	ctx := context.Background()

	items := []domain.ContentItem{
		{ID: 1, SourceID: "hn", ClickURL: strPtr("https://i.imgur.com/abc")},
		{ID: 2, SourceID: "hn", ClickURL: strPtr("https://example.com/page"), ContentType: ctPtr(domain.ContentTypeOther)},
		{ID: 3, SourceID: "hn"},
	}

	s.source.EXPECT().Fetch(ctx, gomock.Any()).
		Return(&domain.DataResult{Items: items, NextPageKey: nil}, nil)

	// Only the first item needs classification: the second already has a
	// type set, the third has no click URL.
	s.classifier.EXPECT().Classify("https://i.imgur.com/abc").Return(domain.ContentTypeImage)

	s.expectTransaction(ctx)
	s.items.EXPECT().DeleteBySource(ctx, "hn").Return(nil)
	s.operations.EXPECT().DeleteBySource(ctx, "hn").Return(nil)
	s.remoteKeys.EXPECT().DeleteBySource(ctx, "hn").Return(nil)
	s.remoteKeys.EXPECT().Upsert(ctx, "hn", nil).Return(nil)

	var inserted []*domain.ContentItem
	s.items.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, item *domain.ContentItem) error {
			inserted = append(inserted, item)
			return nil
		},
	).Times(3)
	s.operations.EXPECT().Append(ctx, gomock.Any()).Return(nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	result, err := s.mediator.Load(ctx, domain.LoadRefresh, s.state)

	s.NoError(err)
	s.True(result.EndOfPagination)
	s.Require().Len(inserted, 3)
	s.Equal(domain.ContentTypeImage, *inserted[0].ContentType)
	s.Equal(domain.ContentTypeOther, *inserted[1].ContentType)
	s.Nil(inserted[2].ContentType)
}

func (s *MediatorTestSuite) TestFakeMode_SubstitutesWithoutNetwork() {
	ctx := context.Background()

	mediator := s.newMediator(true)

	s.expectTransaction(ctx)
	s.items.EXPECT().DeleteBySource(ctx, "hn").Return(nil)
	s.operations.EXPECT().DeleteBySource(ctx, "hn").Return(nil)
	s.remoteKeys.EXPECT().DeleteBySource(ctx, "hn").Return(nil)
	s.remoteKeys.EXPECT().Upsert(ctx, "hn", nil).Return(nil)
	s.items.EXPECT().Insert(ctx, gomock.Any()).Return(nil).Times(25)
	s.operations.EXPECT().Append(ctx, gomock.Any()).Return(nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	result, err := mediator.Load(ctx, domain.LoadRefresh, s.state)

	s.NoError(err)
	s.True(result.EndOfPagination)
}

func (s *MediatorTestSuite) TestInitialize_NoHistoryLaunchesRefresh() {
	ctx := context.Background()

	s.operations.EXPECT().LastTimestamp(ctx, "hn").Return(nil, nil)

	action, err := s.mediator.Initialize(ctx)

	s.NoError(err)
	s.Equal(domain.LaunchInitialRefresh, action)
}

func (s *MediatorTestSuite) TestInitialize_FreshCacheSkipsRefresh() {
	ctx := context.Background()

	last := s.now.Add(-30 * time.Minute)
	s.operations.EXPECT().LastTimestamp(ctx, "hn").Return(&last, nil)

	action, err := s.mediator.Initialize(ctx)

	s.NoError(err)
	s.Equal(domain.SkipInitialRefresh, action)
}

func (s *MediatorTestSuite) TestInitialize_StaleCacheLaunchesRefresh() {
	ctx := context.Background()

	last := s.now.Add(-2 * time.Hour)
	s.operations.EXPECT().LastTimestamp(ctx, "hn").Return(&last, nil)

	action, err := s.mediator.Initialize(ctx)

	s.NoError(err)
	s.Equal(domain.LaunchInitialRefresh, action)
}
