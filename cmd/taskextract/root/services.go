package root

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"

	"github.com/cleberrangel/schedule-progress-api/internal/config"
	"github.com/cleberrangel/schedule-progress-api/internal/database"
	"github.com/cleberrangel/schedule-progress-api/internal/migration"
	"github.com/cleberrangel/schedule-progress-api/internal/repository"
	"github.com/cleberrangel/schedule-progress-api/internal/service"
	"github.com/cleberrangel/schedule-progress-api/internal/source"
)

var errNoDatabase = errors.New("DB_HOST não configurado; este comando precisa do PostgreSQL")

func newUploads(cfg *config.Config) (*service.UploadService, error) {
	registry := source.NewRegistry(source.Options{
		OCRCommand:  cfg.OCRCommand,
		OCRLanguage: cfg.OCRLanguage,
		OCRTimeout:  cfg.OCRTimeout,
	})
	pipeline, err := service.NewPipeline(cfg.NoiseExtraPatterns)
	if err != nil {
		return nil, err
	}
	return service.NewUploadService(service.UploadConfig{
		TempDir:   cfg.DataDir,
		MaxBytes:  cfg.MaxUploadBytes,
		CacheSize: 1,
		CacheTTL:  cfg.CacheTTL,
	}, registry, pipeline), nil
}

// openProgress conecta no banco e monta o serviço de progresso.
// O chamador fecha o *sql.DB.
func openProgress(ctx context.Context, cfg *config.Config) (*service.ProgressService, *sql.DB, error) {
	if !cfg.Database.Enabled() {
		return nil, nil, errNoDatabase
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := migration.NewMigrator(db).Run(ctx); err != nil {
		database.Close(db)
		return nil, nil, err
	}

	uploads, err := newUploads(cfg)
	if err != nil {
		database.Close(db)
		return nil, nil, err
	}

	svc := service.NewProgressService(service.ProgressDeps{
		Store:    repository.NewProgressRepository(db),
		Uploads:  uploads,
		History:  service.NewHistoryService(repository.NewHistoryRepository(db), cfg.HistoryMaxRecords),
		Location: cfg.Timezone,
	})
	return svc, db, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
