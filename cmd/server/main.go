package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"structwhois/internal/platform/config"
	"structwhois/internal/platform/httpserver"
	"structwhois/internal/platform/logger"
	"structwhois/internal/platform/metrics"
	"structwhois/internal/platform/redis"
	"structwhois/internal/whois/cache"
	"structwhois/internal/whois/handler"
	"structwhois/internal/whois/parser"
	"structwhois/internal/whois/store"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the whois packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	m := metrics.New()

	whoisParser, err := parser.New(
		parser.WithLogger(log),
		parser.WithMetrics(m),
		parser.WithPreloadTLDs(cfg.PreloadTLDs...),
	)
	if err != nil {
		log.Error("parser construction failed", "error", err)
		os.Exit(1)
	}

	handlerOpts := []handler.Option{}

	var archive store.RecordStore = store.NewInMemoryRecordStore()
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pg := store.NewPostgres(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := pg.EnsureSchema(ctx); err != nil {
			cancel()
			log.Error("postgres schema bootstrap failed", "error", err)
			os.Exit(1)
		}
		cancel()
		archive = pg
		log.Info("record archive backed by postgres")
	}
	handlerOpts = append(handlerOpts, handler.WithArchive(archive))

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		handlerOpts = append(handlerOpts, handler.WithCache(cache.New(redisClient, cfg.CacheTTL)))
		log.Info("parse cache backed by redis", "ttl", cfg.CacheTTL)
	}

	whoisHandler := handler.New(whoisParser, log, cfg.AdminToken, handlerOpts...)

	router := chi.NewRouter()
	whoisHandler.Register(router)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting structwhois", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
