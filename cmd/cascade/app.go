package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cascade-engine/internal/cascade"
	"cascade-engine/internal/config"
	"cascade-engine/internal/derive"
	"cascade-engine/internal/derive/builtin"
	"cascade-engine/internal/logging"
	"cascade-engine/internal/mapping"
	"cascade-engine/internal/store"
	"cascade-engine/internal/transition"
)

// app is the wired engine behind every command.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	registry *derive.Registry
	table    *mapping.Table
	service  *transition.Service
}

func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	storePath, _ := cmd.Flags().GetString("store")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if storePath != "" {
		cfg.StorePath = storePath
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	reg, err := builtin.NewRegistry(cfg.DerivationOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to register derivations: %w", err)
	}

	table, err := mapping.Load(cfg.MappingTable, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to load prefill table: %w", err)
	}

	log.Debug("cascade: engine ready",
		zap.String("store", cfg.StorePath),
		zap.Int("mappings", table.Len()),
		zap.Strings("derivations", reg.Keys()),
	)

	svc := transition.NewService(
		store.NewFile(cfg.StorePath),
		cascade.New(table, reg),
		transition.WithLogger(log),
		transition.WithConcurrency(cfg.PreviewConcurrency),
	)

	return &app{cfg: cfg, log: log, registry: reg, table: table, service: svc}, nil
}

// withApp wires the engine before running fn and flushes the logger after.
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		defer func() { _ = a.log.Sync() }()

		return fn(cmd, a, args)
	}
}
