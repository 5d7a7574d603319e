package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"

	"github.com/go-chi/httplog/v2"
	"golang.org/x/sync/errgroup"

	api "github.com/na3work/shortlink/internal/api/http"
	"github.com/na3work/shortlink/internal/auth"
	"github.com/na3work/shortlink/internal/config"
	"github.com/na3work/shortlink/internal/service"
	"github.com/na3work/shortlink/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		panic(err)
	}
}

func run(ctx context.Context) error {
	const op = "main.run"

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	logger := httplog.NewLogger("shortlink", httplog.Options{
		JSON:     cfg.Env == config.EnvProd,
		LogLevel: slog.LevelInfo,
		Concise:  cfg.Env != config.EnvProd,
	})

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to record store: %w", op, err)
	}

	verifier := auth.NewGoogleVerifier(cfg.Auth.GoogleClientID, cfg.Auth.JWKSURL)
	svc := service.NewLinkService(store, logger.Logger)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        api.NewRouter(logger, cfg, svc, verifier),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		// Let in-flight access-count writes land before the store goes away.
		svc.Drain()
		closeStore()

		return nil
	})

	return g.Wait()
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, func(), error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return storage.NewMemoryStore(), func() {}, nil
	default:
		store, err := storage.NewRedisStore(ctx, cfg.Redis.DSN())
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
}
