package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"dealer_reviews/internal/adapters/backend"
	server "dealer_reviews/internal/adapters/http_server"
	"dealer_reviews/internal/adapters/observability"
	redisad "dealer_reviews/internal/adapters/redis"
	"dealer_reviews/internal/adapters/sentiment"
	"dealer_reviews/internal/app"
	"dealer_reviews/internal/shared"
	mysqlrepo "dealer_reviews/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db (car inventory only)
	db, err := openDB(cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cache.Ping(ctx); err != nil {
		// inventory still works uncached
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable")
	}
	cancel()

	// upstream clients
	bc := backend.New(cfg.BackendURL, cfg.BackendRPS, 15*time.Second)
	so := sentiment.DefaultOptions()
	so.Retries = cfg.SentimentRetries
	so.RawPath = cfg.SentimentRawPath
	so.Timeout = cfg.SentimentTimeout
	sc := sentiment.New(cfg.SentimentURL, so)

	log.Info().
		Str("backend", cfg.BackendURL).
		Str("sentiment", cfg.SentimentURL).
		Int("workers", cfg.SentimentWorkers).
		Dur("sentiment_timeout", cfg.SentimentTimeout).
		Msg("upstreams configured")

	h := &server.Handlers{
		Reviews: app.NewReviewAggregator(bc, sc, app.ReviewOptions{
			Workers: cfg.SentimentWorkers,
			Timeout: cfg.SentimentTimeout,
		}),
		Dealers:   app.NewDealerService(bc),
		Inventory: app.NewInventoryService(mysqlrepo.New(db), cache, cfg.CacheTTL),
	}

	// http
	srv := server.New(30 * time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

// openDB fails only on a malformed DSN. An unreachable database is logged and
// left to surface as /get_cars errors; the review pipeline doesn't need it.
func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Warn().Err(err).Msg("database unreachable, car inventory unavailable")
		return db, nil
	}
	log.Info().Msg("database connection ok")
	return db, nil
}
