package stream

import (
	"context"
	"log/slog"

	"pagecache/internal/domain"
	"pagecache/internal/service"
)

// Factory binds a content source, the item cache, and a mediator into one
// observable page stream per source and mode.
type Factory struct {
	items      service.ItemStore
	remoteKeys service.RemoteKeyStore
	operations service.OperationLogStore
	txManager  service.TransactionManager
	classifier service.Classifier
	publisher  service.Publisher
	clock      service.Clock
	config     service.PagingConfig
	logger     *slog.Logger
}

func NewFactory(
	items service.ItemStore,
	remoteKeys service.RemoteKeyStore,
	operations service.OperationLogStore,
	txManager service.TransactionManager,
	classifier service.Classifier,
	publisher service.Publisher,
	clock service.Clock,
	config service.PagingConfig,
	logger *slog.Logger,
) *Factory {
	return &Factory{
		items:      items,
		remoteKeys: remoteKeys,
		operations: operations,
		txManager:  txManager,
		classifier: classifier,
		publisher:  publisher,
		clock:      clock,
		config:     config,
		logger:     logger,
	}
}

// Open starts the stream for one source. In offline mode no mediator is
// attached and the stream serves the cache as-is. The stream and all its
// subscriptions shut down when ctx ends.
func (f *Factory) Open(ctx context.Context, source service.Source, mode domain.Mode) *Stream {
	var loader Loader
	if mode != domain.ModeOffline {
		loader = service.NewMediator(
			source,
			f.items,
			f.remoteKeys,
			f.operations,
			f.txManager,
			f.classifier,
			f.publisher,
			f.clock,
			mode == domain.ModeFake,
			f.logger,
		)
	}

	s := newStream(source.Meta().ID, f.items, loader, f.config, f.logger)
	go s.run(ctx)
	return s
}
