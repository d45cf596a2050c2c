// Command searchd serves parameter searches over HTTP:
//
//	GET  /{entity}?status=open&author_name=ann&sortByDesc=created_at&limit=20
//	POST /{entity}/search   {"q": "ann", "offset": 20}
//	GET  /metrics
//
// Configuration is read from SEARCHD_* environment variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/handlers"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/manojoshi/paramsearch/config"
	"github.com/manojoshi/paramsearch/driver"
	"github.com/manojoshi/paramsearch/internal/httpapi"
	"github.com/manojoshi/paramsearch/internal/logger"
	"github.com/manojoshi/paramsearch/metrics"
	"github.com/manojoshi/paramsearch/query"
	"github.com/manojoshi/paramsearch/repository"
	"github.com/manojoshi/paramsearch/search"
)

func main() {
	if err := run(); err != nil {
		log.Fatalln(err)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	zl, err := logger.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	cat, err := config.Load(cfg.Catalog)
	if err != nil {
		return err
	}
	s, err := cat.Searcher(search.WithLogger(zl))
	if err != nil {
		return fmt.Errorf("catalog %s: %w", cfg.Catalog, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeFn, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	metrics.Register()

	repo := repository.New(s, backend, repository.WithLogger(zl))
	r := httpapi.NewRouter(repo, zl, httpapi.Limits{Default: cfg.DefaultLimit, Max: cfg.MaxLimit})
	chain := handlers.CompressHandler(http.StripPrefix(cfg.Prefix, r))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           chain,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		zl.Info("listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("backend", backend.Name()),
			zap.Strings("entities", s.Registry().Names()),
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openBackend(ctx context.Context, cfg *Config) (repository.Backend, func(), error) {
	if len(cfg.RedisAddrs) > 0 {
		conn, err := driver.NewRueidisConn(driver.RueidisConfig{Addrs: cfg.RedisAddrs})
		if err != nil {
			return nil, nil, err
		}
		if err := conn.Ping(ctx); err != nil {
			conn.Close()
			return nil, nil, err
		}
		indexName := func(entity string) string { return cfg.IndexPrefix + entity + "_idx" }
		return repository.Redis(conn, indexName), func() { _ = conn.Close() }, nil
	}

	dialect, err := query.ParseDialect(cfg.SQLDriver)
	if err != nil {
		return nil, nil, err
	}
	conn, err := driver.OpenSQL(ctx, cfg.SQLDriver, cfg.SQLDSN)
	if err != nil {
		return nil, nil, err
	}
	return repository.SQL(conn, dialect), func() { _ = conn.Close() }, nil
}
