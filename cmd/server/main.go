package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/seatflow/internal/catalog"
	"github.com/iliyamo/seatflow/internal/client"
	"github.com/iliyamo/seatflow/internal/config"
	"github.com/iliyamo/seatflow/internal/logging"
	"github.com/iliyamo/seatflow/internal/queue"
	"github.com/iliyamo/seatflow/internal/router"
	"github.com/iliyamo/seatflow/internal/service"
	"github.com/iliyamo/seatflow/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis backs the catalog cache, the limiter and the layout cache.  All
	// three work without it.
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		logger.Warn("redis unavailable, running without shared cache and rate limiting", zap.String("addr", cfg.Redis.Addr))
	} else {
		defer rdb.Close()
	}

	opts := client.Options{
		Timeout: cfg.CollaboratorTimeout,
		Breaker: client.BreakerConfig(cfg.Breaker),
		Logger:  logger,
	}
	ledger := client.NewLedger(cfg.LedgerURL, opts)
	payments := client.NewPayments(cfg.PaymentURL, opts)

	events := catalog.New(client.NewCatalog(cfg.CatalogURL, opts), cacheClient(cfg, rdb), catalog.Options{
		TTL:    cfg.CatalogCache.TTL,
		Prefix: cfg.CatalogCache.Prefix,
		Logger: logger,
	})

	mgr := session.NewManager(events, ledger, payments, service.NewPublisher(cfg.RabbitMQURL, logger), session.Config{
		RefreshInterval: cfg.RefreshInterval,
		IdleTTL:         cfg.ViewIdleTTL,
	}, logger)
	defer mgr.Shutdown()

	e := router.New(cfg, router.Deps{
		Views:     mgr,
		Checkouts: mgr,
		Events:    events,
		OpenViews: mgr.Views,
		Redis:     rdb,
		Logger:    logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		mgr.Run(gctx)
		return nil
	})
	if cfg.AuditConsumer {
		consumer := queue.NewConsumer(cfg.RabbitMQURL, cfg.AuditLogDir, logger)
		g.Go(func() error {
			if err := consumer.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		addr := ":" + cfg.Port
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// cacheClient returns rdb unless the catalog cache is switched off.
func cacheClient(cfg config.Config, rdb *redis.Client) *redis.Client {
	if !cfg.CatalogCache.Enabled {
		return nil
	}
	return rdb
}
