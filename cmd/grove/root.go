package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/app"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/config"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/db"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/logging"
)

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "grove",
		Short:         "Customer feedback surveys that route happy guests to public reviews",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to grove.yaml (default ./grove.yaml or ./config/grove.yaml)")

	root.AddCommand(
		newServeCmd(&cfgPath),
		newInitCmd(&cfgPath),
		newAdminCmd(&cfgPath),
		newDemoCmd(&cfgPath),
		newExportCmd(&cfgPath),
	)
	return root
}

// env is what every subcommand needs: config, logger and a connected App.
type env struct {
	cfg     *config.Config
	log     *zap.Logger
	pool    *db.Pool
	app     *app.App
	cleanup func()
}

func (e *env) Close() {
	e.app.Close()
	e.pool.Close()
	e.cleanup()
}

func setup(cfgPath string) (*env, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logger, cleanup, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	pool, err := db.NewPool(cfg.OxiDBHost, cfg.OxiDBPort, cfg.PoolSize, db.WithLogger(logger.Named("pool")))
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("connect to OxiDB at %s:%d: %w", cfg.OxiDBHost, cfg.OxiDBPort, err)
	}
	logger.Info("connected to OxiDB",
		zap.String("host", cfg.OxiDBHost), zap.Int("port", cfg.OxiDBPort), zap.Int("poolSize", cfg.PoolSize))
	return &env{
		cfg:     cfg,
		log:     logger,
		pool:    pool,
		app:     app.New(cfg, pool, logger, nil),
		cleanup: cleanup,
	}, nil
}
