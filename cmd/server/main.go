package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"                        // Echo web framework
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iliyamo/movie-storefront/internal/broadcast"
	"github.com/iliyamo/movie-storefront/internal/cart"
	"github.com/iliyamo/movie-storefront/internal/checkout"
	"github.com/iliyamo/movie-storefront/internal/config" // Internal config loader
	"github.com/iliyamo/movie-storefront/internal/database"
	"github.com/iliyamo/movie-storefront/internal/gateway"
	"github.com/iliyamo/movie-storefront/internal/handler"
	"github.com/iliyamo/movie-storefront/internal/listing"
	"github.com/iliyamo/movie-storefront/internal/logger"
	"github.com/iliyamo/movie-storefront/internal/queue"
	"github.com/iliyamo/movie-storefront/internal/router" // Internal router setup
	queue_publisher "github.com/iliyamo/movie-storefront/internal/service"
	"github.com/iliyamo/movie-storefront/internal/session"
	"github.com/iliyamo/movie-storefront/internal/storage"
)

func main() {
	cfg := config.MustLoad() // Load environment config
	log := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		FilePath:   cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.Into(ctx, log)

	// Redis is optional; nil means in-process fallbacks everywhere.
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable; using in-memory session state")
	} else {
		defer rdb.Close()
	}

	db, durable := openDurable(ctx, cfg, log)
	if db != nil {
		defer db.Close()
	}
	var sessionKV storage.KV = storage.NewMemory(cfg.Session.StateTTL)
	if rdb != nil {
		sessionKV = storage.NewRedis(rdb, cfg.Redis.Prefix+":", cfg.Session.StateTTL)
	}

	bus := broadcast.New()
	if rdb != nil {
		relay := broadcast.NewRedisRelay(bus, rdb, cfg.Redis.Channel)
		go func() {
			if err := relay.Run(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("signal relay stopped", "err", err)
			}
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	api := gateway.New(cfg.APIBaseURL,
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
		gateway.WithMetrics(gateway.NewMetrics(reg)),
	)
	var jars *gateway.Jars
	if rdb != nil {
		jars = gateway.NewSharedJars(sessionKV)
	} else {
		jars = gateway.NewJars(cfg.Session.StateTTL)
		go sweepJars(ctx, jars, log)
	}

	var orders checkout.OrderPublisher
	if cfg.AMQP.URL != "" {
		orders = queue_publisher.New(cfg.AMQP.URL, cfg.AMQP.OrdersQueue)
		if cfg.AMQP.RunConsumer {
			consumer := queue.OrderConsumer{URL: cfg.AMQP.URL, Queue: cfg.AMQP.OrdersQueue, LogPath: cfg.AMQP.OrdersLog}
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("order consumer stopped", "err", err)
				}
			}()
		}
	}

	carts := cart.NewCoordinator(bus)
	sf := &handler.Storefront{
		API:       api,
		Jars:      jars,
		Bus:       bus,
		Carts:     carts,
		Sessions:  session.NewStore(durable, bus),
		Snapshots: listing.NewSnapshots(sessionKV),
		Checkout:  checkout.NewService(cfg.Checkout.CustomerID, carts, orders),
	}
	if cfg.OMDb.APIKey != "" {
		sf.Posters = &gateway.Posters{
			APIKey:  cfg.OMDb.APIKey,
			BaseURL: cfg.OMDb.BaseURL,
			HTTP:    &http.Client{Timeout: 5 * time.Second},
			Redis:   rdb,
			TTL:     cfg.OMDb.TTL,
		}
	}

	renderer, err := handler.NewRenderer()
	if err != nil {
		log.Error("templates", "err", err)
		os.Exit(1)
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Renderer = renderer
	router.RegisterRoutes(e, router.Deps{ // Register application routes
		Cfg:        cfg,
		Logger:     log,
		Storefront: sf,
		Health:     handler.Health{Redis: rdb, DB: db},
		Redis:      rdb,
		Registry:   reg,
	})

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env, "api", cfg.APIBaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}

// openDurable returns the MySQL-backed store when a database is configured
// and reachable, otherwise an in-memory one.
func openDurable(ctx context.Context, cfg config.Config, log *slog.Logger) (*sql.DB, storage.KV) {
	if !cfg.DB.Enabled() {
		return nil, storage.NewMemory(0)
	}
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		log.Warn("mysql unavailable; durable state kept in memory", "addr", cfg.DB.Addr(), "err", err)
		return nil, storage.NewMemory(0)
	}
	kv := storage.NewSQL(db, cfg.DB.Table)
	if err := kv.EnsureSchema(ctx); err != nil {
		log.Warn("kv schema", "err", err)
	}
	return db, kv
}

func sweepJars(ctx context.Context, jars *gateway.Jars, log *slog.Logger) {
	t := time.NewTicker(10 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := jars.Sweep(); n > 0 {
				log.Debug("idle cookie jars dropped", "count", n)
			}
		}
	}
}
