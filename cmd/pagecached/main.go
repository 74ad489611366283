package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"pagecache/internal/classify"
	"pagecache/internal/config"
	"pagecache/internal/domain"
	"pagecache/internal/publisher"
	"pagecache/internal/scheduler"
	"pagecache/internal/service"
	"pagecache/internal/source"
	"pagecache/internal/source/hackernews"
	"pagecache/internal/source/reddit"
	"pagecache/internal/source/rss"
	"pagecache/internal/storage/postgres"
	"pagecache/internal/stream"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	mode, err := domain.ParseMode(cfg.Mode)
	if err != nil {
		logger.Error("failed to parse mode", "error", err)
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	registry := source.NewRegistry()
	for _, sc := range cfg.Sources {
		src, err := buildSource(sc, logger)
		if err != nil {
			logger.Error("failed to build source", "type", sc.Type, "error", err)
			os.Exit(1)
		}
		if err := registry.Register(src); err != nil {
			logger.Error("failed to register source", "type", sc.Type, "error", err)
			os.Exit(1)
		}
	}

	factory := stream.NewFactory(
		postgres.NewItemStore(db),
		postgres.NewRemoteKeyStore(db),
		postgres.NewOperationLogStore(db),
		postgres.NewTransactionManager(db),
		classify.New(),
		pub,
		time.Now,
		service.PagingConfig{
			PageSize:        cfg.Sync.PageSize,
			InitialLoadSize: cfg.Sync.InitialLoadSize,
		},
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	refreshers := make([]scheduler.Refresher, 0, len(registry.All()))
	for _, src := range registry.All() {
		st := factory.Open(ctx, src, mode)
		refreshers = append(refreshers, st)
		logger.Info("stream opened", "source", src.Meta().ID, "mode", mode)
	}

	logger.Info("starting page cache daemon",
		"sources", len(refreshers),
		"interval", cfg.Sync.Interval,
		"mode", mode,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched := scheduler.NewScheduler(refreshers, cfg.Sync.Interval, logger)
		return sched.Start(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func buildSource(sc config.SourceConfig, logger *slog.Logger) (service.Source, error) {
	switch sc.Type {
	case "hackernews":
		return hackernews.New(hackernews.Config{
			BaseURL: sc.BaseURL,
			Timeout: sc.Timeout,
		}, logger), nil
	case "reddit":
		return reddit.New(reddit.Config{
			BaseURL:   sc.BaseURL,
			Subreddit: sc.Subreddit,
			Timeout:   sc.Timeout,
		}, logger), nil
	case "rss":
		if sc.FeedURL == "" {
			return nil, fmt.Errorf("rss source requires feed_url")
		}
		id := sc.ID
		if id == "" {
			id = "rss"
		}
		name := sc.Name
		if name == "" {
			name = "RSS"
		}
		return rss.New(rss.Config{
			ID:      id,
			Name:    name,
			FeedURL: sc.FeedURL,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", sc.Type)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
