package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"spotlight/internal/article"
	"spotlight/internal/config"
	"spotlight/internal/dispatch"
	"spotlight/internal/domain"
	"spotlight/internal/favorite"
	"spotlight/internal/metrics"
	"spotlight/internal/publisher"
	"spotlight/internal/screen"
	"spotlight/internal/service"
	"spotlight/internal/source/newsapi"
	"spotlight/internal/storage/sqlstore"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	var opts options
	flag.StringVar(&opts.list, "list", listHome, "list to show: home, headlines, latest, search or favorites")
	flag.StringVar(&opts.query, "query", "", "search query")
	flag.StringVar(&opts.category, "category", "", "category to select")
	flag.StringVar(&opts.sortBy, "sort", "", "search sort order: relevancy, popularity or publishedAt")
	flag.StringVar(&opts.language, "language", "", "search language, e.g. en")
	flag.IntVar(&opts.pages, "pages", 1, "number of pages to load")
	flag.StringVar(&opts.toggle, "toggle", "", "title of a listed article whose favorite state to flip")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	if err := opts.validate(); err != nil {
		logger.Error("invalid flags", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	db, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database", "driver", cfg.Database.Driver)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.Metrics.Addr != "" {
		startMetricsServer(ctx, cfg.Metrics.Addr, reg, logger)
	}

	store := favorite.NewStore(sqlstore.NewFavoriteStore(db), logger)
	if err := store.Load(ctx); err != nil {
		logger.Error("failed to load favorites", "error", err)
		os.Exit(1)
	}

	hub := favorite.NewHub()
	m.TrackSubscribers(hub.Len)

	var events service.Publisher
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
		events = rabbitMQ
	}

	favorites := service.NewFavoriteService(store, hub, events, m, logger)

	source := newsapi.New(newsapi.Config{
		BaseURL:                 cfg.API.BaseURL,
		APIKey:                  cfg.API.APIKey,
		PageSize:                cfg.API.PageSize,
		Timeout:                 cfg.API.Timeout,
		MaxAttempts:             cfg.API.Retry.MaxAttempts,
		InitialBackoff:          cfg.API.Retry.InitialBackoff,
		MaxBackoff:              cfg.API.Retry.MaxBackoff,
		RequestsPerSecond:       cfg.API.RateLimit.RequestsPerSecond,
		Burst:                   cfg.API.RateLimit.Burst,
		BreakerMaxRequests:      cfg.API.Breaker.MaxRequests,
		BreakerInterval:         cfg.API.Breaker.Interval,
		BreakerTimeout:          cfg.API.Breaker.Timeout,
		BreakerFailureThreshold: cfg.API.Breaker.FailureThreshold,
		BreakerMinRequests:      cfg.API.Breaker.MinRequests,
	}, logger)

	loop := dispatch.NewLoop(64, logger)
	loopErr := make(chan error, 1)
	go func() { loopErr <- loop.Run(ctx) }()

	r := &reader{
		loop:  loop,
		store: store,
		feeds: cfg.Feeds,
		deps: screen.Deps{
			Source:   source,
			Factory:  article.NewFactory(store, hub, favorites, logger),
			Executor: loop,
			Metrics:  m,
			Logger:   logger,
			PageSize: source.PageSize(),
		},
		out:    os.Stdout,
		logger: logger,
	}

	logger.Info("starting reader",
		"source", source.Name(),
		"source_id", source.ID(),
		"list", opts.list,
		"pages", opts.pages,
		"favorites", len(store.All()),
	)

	err = r.run(ctx, opts)
	cancel()
	<-loopErr

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("reader failed", "error", err)
		os.Exit(1)
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
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

// categoryOf maps a flag value to a category, defaulting to def.
func categoryOf(value string, def domain.Category) domain.Category {
	if value == "" {
		return def
	}
	return domain.Category(value)
}
