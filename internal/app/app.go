package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/text2sql/text2sql/internal/archive"
	"github.com/text2sql/text2sql/internal/config"
	"github.com/text2sql/text2sql/internal/database"
	"github.com/text2sql/text2sql/internal/nl2sql"
	"github.com/text2sql/text2sql/internal/observability"
	"github.com/text2sql/text2sql/internal/pipeline"
	"github.com/text2sql/text2sql/internal/query/sqldb"
	"github.com/text2sql/text2sql/internal/schema"
	"github.com/text2sql/text2sql/internal/storage"
	"github.com/text2sql/text2sql/internal/storage/local"
	s3store "github.com/text2sql/text2sql/internal/storage/s3"
)

// App holds the collaborators shared by the CLI and the API server.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	DB        *database.DB
	Catalog   *schema.Catalog
	Engine    *sqldb.Engine
	Generator nl2sql.Generator
	// Archive is nil when the archive backend is "none".
	Archive *archive.Recorder
	Runner  *pipeline.Runner
}

type Options struct {
	// Generator replaces the configured model client, mainly for tests.
	Generator nl2sql.Generator
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = observability.Nop()
	}

	db, err := database.Open(ctx, database.DBConfig{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	app := &App{Config: cfg, Logger: logger, DB: db}

	if err := app.wire(ctx, opts); err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context, opts Options) error {
	catalog, err := schema.NewCatalog(a.DB.DB, a.DB.Dialect)
	if err != nil {
		return err
	}
	a.Catalog = catalog
	a.Engine = sqldb.NewEngine(a.DB.DB)

	a.Generator = opts.Generator
	if a.Generator == nil {
		a.Generator, err = nl2sql.New(nl2sql.Config{
			Provider:    a.Config.LLM.Provider,
			Model:       a.Config.LLM.Model,
			Temperature: a.Config.LLM.Temperature,
			APIKey:      a.Config.LLM.APIKey,
			BaseURL:     a.Config.LLM.BaseURL,
			Timeout:     a.Config.LLM.Timeout,
		}, a.Logger)
		if err != nil {
			return fmt.Errorf("initialize sql generator: %w", err)
		}
	}

	store, err := OpenArchiveStore(ctx, a.Config.Archive)
	if err != nil {
		return fmt.Errorf("initialize archive store: %w", err)
	}
	var recorder pipeline.Recorder
	if store != nil {
		a.Archive, err = archive.NewRecorder(store, a.Logger)
		if err != nil {
			return err
		}
		recorder = a.Archive
		a.Logger.Info("run archive enabled", slog.String("backend", a.Config.Archive.Backend))
	}

	a.Runner, err = pipeline.NewRunner(a.Catalog, a.Generator, a.Engine, pipeline.Options{
		Recorder: recorder,
		Logger:   a.Logger,
	})
	return err
}

func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// OpenArchiveStore returns nil for the "none" backend.
func OpenArchiveStore(ctx context.Context, cfg config.ArchiveConfig) (storage.ObjectStore, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "local":
		store, err := local.NewStore(cfg.LocalDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		store, err := s3store.New(ctx, s3store.Config{
			Endpoint:         cfg.Endpoint,
			Region:           cfg.Region,
			Bucket:           cfg.Bucket,
			AccessKeyID:      cfg.AccessKeyID,
			SecretAccessKey:  cfg.SecretAccessKey,
			UseSSL:           cfg.UseSSL,
			Prefix:           cfg.Prefix,
			AutoCreateBucket: cfg.AutoCreate,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported archive backend %q", cfg.Backend)
	}
}
