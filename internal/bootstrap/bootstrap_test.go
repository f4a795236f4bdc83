package bootstrap

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zapponejosh/saju-api/internal/config"
	"github.com/zapponejosh/saju-api/internal/database"
	"github.com/zapponejosh/saju-api/internal/engine"
	"github.com/zapponejosh/saju-api/internal/logger"
	"github.com/zapponejosh/saju-api/internal/tables/tablestest"
)

func baseConfig() *config.Config {
	return &config.Config{
		TableSource:      config.SourceJSON,
		WeightScheme:     "positional",
		BoundaryTieBreak: "strictly-after",
		LuckDecades:      11,
	}
}

func TestLoadJSON(t *testing.T) {
	want := tablestest.New(t)
	cfg := baseConfig()
	cfg.CalendarPath, cfg.TermsPath = tablestest.WriteFiles(t, want)

	rt, err := Load(context.Background(), cfg, logger.Discard())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer rt.Close()

	if rt.DB != nil {
		t.Error("json source opened a store")
	}
	if diff := cmp.Diff(want.Stats(), rt.Tables.Stats()); diff != "" {
		t.Errorf("stats differ (-want +got):\n%s", diff)
	}
	opts := rt.Engine.Options()
	if opts.Weights != engine.WeightPositional || opts.TieBreak != engine.StrictlyAfter || opts.LuckPeriods != 11 {
		t.Errorf("options = %+v", opts)
	}
}

func TestLoadSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tables.db")

	db, err := database.Open(database.DefaultConfig(path), logger.Discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := db.ImportTables(ctx, tablestest.New(t), "fixture"); err != nil {
		t.Fatalf("import: %v", err)
	}
	db.Close()

	cfg := baseConfig()
	cfg.TableSource = config.SourceSQLite
	cfg.DatabasePath = path

	rt, err := Load(ctx, cfg, logger.Discard())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer rt.Close()

	if rt.DB == nil {
		t.Fatal("sqlite source left DB nil")
	}
	if _, err := rt.DB.ImportTables(ctx, rt.Tables, "runtime"); !errors.Is(err, database.ErrReadOnly) {
		t.Errorf("ImportTables() through runtime error = %v, want ErrReadOnly", err)
	}
	res, err := rt.Engine.Analyze(engine.Input{Moment: "2024-08-07 12:00", Location: "Reference"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if res.Chart.Month.String() != "壬申" {
		t.Errorf("month = %s, want 壬申", res.Chart.Month)
	}
}

func TestLoadFailures(t *testing.T) {
	t.Run("missing store", func(t *testing.T) {
		cfg := baseConfig()
		cfg.TableSource = config.SourceSQLite
		cfg.DatabasePath = filepath.Join(t.TempDir(), "missing.db")

		_, err := Load(context.Background(), cfg, logger.Discard())
		if !errors.Is(err, database.ErrEmptyStore) {
			t.Errorf("Load() error = %v, want ErrEmptyStore", err)
		}
	})

	t.Run("migrated but never imported", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.db")
		db, err := database.Open(database.DefaultConfig(path), logger.Discard())
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if _, err := db.Migrate(context.Background()); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		db.Close()

		cfg := baseConfig()
		cfg.TableSource = config.SourceSQLite
		cfg.DatabasePath = path
		if _, err := Load(context.Background(), cfg, logger.Discard()); !errors.Is(err, database.ErrEmptyStore) {
			t.Errorf("Load() error = %v, want ErrEmptyStore", err)
		}
	})

	t.Run("missing files", func(t *testing.T) {
		cfg := baseConfig()
		cfg.CalendarPath = filepath.Join(t.TempDir(), "nope.json")
		cfg.TermsPath = cfg.CalendarPath
		if _, err := Load(context.Background(), cfg, logger.Discard()); err == nil {
			t.Error("Load() with missing files succeeded")
		}
	})

	t.Run("missing profile", func(t *testing.T) {
		cfg := baseConfig()
		cfg.CalendarPath, cfg.TermsPath = tablestest.WriteFiles(t, tablestest.New(t))
		cfg.CorrectionProfilePath = filepath.Join(t.TempDir(), "profile.yaml")
		if _, err := Load(context.Background(), cfg, logger.Discard()); err == nil {
			t.Error("Load() with missing profile succeeded")
		}
	})
}
