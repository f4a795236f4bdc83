// Package bootstrap wires configuration into a ready engine: it loads the
// lookup tables from the configured source, the correction profile and the
// engine options. Any failure here is fatal for the commands that call it.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zapponejosh/saju-api/internal/config"
	"github.com/zapponejosh/saju-api/internal/correction"
	"github.com/zapponejosh/saju-api/internal/database"
	"github.com/zapponejosh/saju-api/internal/engine"
	"github.com/zapponejosh/saju-api/internal/tables"
)

// Runtime is everything a front end needs.
type Runtime struct {
	Engine *engine.Engine
	Tables *tables.Tables
	// DB is set only when tables come from the SQLite store.
	DB *database.DB
}

// Close releases the store, if any.
func (rt *Runtime) Close() error {
	if rt.DB == nil {
		return nil
	}
	return rt.DB.Close()
}

// Load builds the runtime described by cfg.
func Load(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{}

	var err error
	switch cfg.TableSource {
	case config.SourceSQLite:
		// The store is written only by cmd/import; everything else reads.
		rt.DB, err = database.Open(database.ReaderConfig(cfg.DatabasePath), logger)
		if err != nil {
			return nil, fmt.Errorf("open table store: %w", err)
		}
		rt.Tables, err = rt.DB.LoadTables(ctx)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("load table store: %w", err)
		}
		st := rt.Tables.Stats()
		logger.Info("lookup tables loaded",
			slog.String("source", config.SourceSQLite),
			slog.String("path", cfg.DatabasePath),
			slog.Int("days", st.Days),
			slog.Int("term_years", st.TermYears),
		)
	default:
		rt.Tables, err = tables.LoadFiles(ctx, cfg.CalendarPath, cfg.TermsPath, logger)
		if err != nil {
			return nil, fmt.Errorf("load tables: %w", err)
		}
	}

	profile, err := correction.Load(cfg.CorrectionProfilePath)
	if err != nil {
		rt.Close()
		return nil, err
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.Engine, err = engine.New(rt.Tables, profile, opts)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}

	logger.Debug("engine ready",
		slog.String("weights", opts.Weights.String()),
		slog.String("tie_break", opts.TieBreak.String()),
		slog.Int("luck_periods", rt.Engine.Options().LuckPeriods),
	)
	return rt, nil
}
