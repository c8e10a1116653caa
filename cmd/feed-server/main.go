package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/product-feed/pkg/cache"
	"github.com/Sternrassler/product-feed/pkg/config"
	"github.com/Sternrassler/product-feed/pkg/feed"
	"github.com/Sternrassler/product-feed/pkg/logging"
	"github.com/Sternrassler/product-feed/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Name:  "feed-server",
		Usage: "serve cached, retried product category feeds",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "listen address",
				Value:   ":8080",
				EnvVars: []string{"FEED_ADDR"},
			},
			&cli.StringFlag{
				Name:    "env-file",
				Usage:   "dotenv file with FEED_* settings",
				Value:   ".env",
				EnvVars: []string{"FEED_ENV_FILE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn, error or disabled",
				Value:   string(logging.LevelInfo),
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:    "log-pretty",
				Usage:   "human-readable console logs",
				EnvVars: []string{"LOG_PRETTY"},
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "share the cache through Redis (redis://host:port/db)",
				EnvVars: []string{"FEED_REDIS_URL"},
			},
		},
		Before: setupLogging,
		Action: runServe,
	}
	app.Commands = []*cli.Command{
		{
			Name:   "serve",
			Usage:  "run the HTTP server",
			Action: runServe,
		},
		{
			Name:      "fetch",
			Usage:     "fetch one category and print it as JSON",
			ArgsUsage: "<category>",
			Action:    runFetch,
		},
	}
	app.RunAndExitOnError()
}

func setupLogging(cctx *cli.Context) error {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(cctx.String("log-level"))
	cfg.Pretty = cctx.Bool("log-pretty")
	logging.Setup(cfg)
	return nil
}

// newService builds the service from env files, the environment and flags.
// The returned close function releases the Redis connection, if any.
func newService(cctx *cli.Context) (*feed.Service, func(), error) {
	cfg, err := config.Load(cctx.String("env-file"))
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if u := cctx.String("redis-url"); u != "" {
		cfg.Cache.RedisURL = u
	}

	store, closeStore, err := newStore(cctx.Context, cfg.Cache)
	if err != nil {
		return nil, nil, err
	}

	svc, err := feed.New(cfg, store)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return svc, closeStore, nil
}

// newStore returns a Redis store when a URL is configured, otherwise nil so
// the service falls back to its in-memory store.
func newStore(ctx context.Context, cfg config.Cache) (cache.Store, func(), error) {
	if cfg.RedisURL == "" {
		return nil, func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	redisClient := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}

	logger := logging.NewLogger("feed-server")
	logger.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("Connected to Redis")

	return cache.NewRedisStore(redisClient, cfg.MaxSize, cfg.KeyPrefix, nil), func() { redisClient.Close() }, nil
}

func runServe(cctx *cli.Context) error {
	logger := logging.NewLogger("feed-server")

	svc, closeStore, err := newService(cctx)
	if err != nil {
		return err
	}
	defer closeStore()

	addr := cctx.String("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Int("categories", len(svc.Categories())).Msg("Starting feed server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down feed server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runFetch(cctx *cli.Context) error {
	category := cctx.Args().First()
	if category == "" {
		return cli.Exit("need to provide a category as an argument", 1)
	}

	svc, closeStore, err := newService(cctx)
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := svc.FetchProducts(cctx.Context, category)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func newRouter(svc *feed.Service) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", readyHandler(svc))
	mux.HandleFunc("GET /categories", categoriesHandler(svc))
	mux.HandleFunc("GET /products/{category}", productsHandler(svc))
	mux.HandleFunc("GET /cache", cacheInfoHandler(svc))
	mux.HandleFunc("DELETE /cache", cacheClearHandler(svc))
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler reports 503 while the cache backend is unreachable.
func readyHandler(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if _, err := svc.CacheInfo(ctx); err != nil {
			http.Error(w, "cache backend unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

func categoriesHandler(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Categories())
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func productsHandler(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := svc.FetchProducts(r.Context(), r.PathValue("category"))
		if err != nil {
			var ferr *feed.Error
			if !errors.As(err, &ferr) {
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "InternalError", Message: err.Error()})
				return
			}
			status := http.StatusBadGateway
			if ferr.Kind == feed.KindTimeout {
				status = http.StatusGatewayTimeout
			}
			writeJSON(w, status, errorResponse{Error: string(ferr.Kind), Message: ferr.Message})
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func cacheInfoHandler(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := svc.CacheInfo(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

func cacheClearHandler(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.ClearCache(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := logging.NewLogger("feed-server")
		logger.Error().Err(err).Msg("Failed to write response")
	}
}
