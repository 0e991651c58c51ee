package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/db"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			defer e.Close()
			return serve(cmd.Context(), e)
		},
	}
}

func serve(ctx context.Context, e *env) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Index builds and seeding run on their own connection so a slow
	// submission index does not block request handling.
	go func() {
		initPool, err := db.NewPool(e.cfg.OxiDBHost, e.cfg.OxiDBPort, 1, db.WithLogger(e.log.Named("init-pool")))
		if err != nil {
			e.log.Warn("init pool connect failed, using main pool", zap.Error(err))
			initPool = e.pool
		}
		defer func() {
			if initPool != e.pool {
				initPool.Close()
			}
		}()
		if err := e.app.Bootstrap(initPool); err != nil {
			e.log.Error("background init failed", zap.Error(err))
			return
		}
		e.log.Info("background init done")
	}()

	srv := &http.Server{
		Addr:              e.cfg.HTTPAddr,
		Handler:           e.app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		e.log.Info("grove server starting", zap.String("addr", e.cfg.HTTPAddr))
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

	e.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
