package main

import (
	"context"
	"database/sql"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/config"
	"github.com/cleberrangel/schedule-progress-api/internal/database"
	"github.com/cleberrangel/schedule-progress-api/internal/handler"
	"github.com/cleberrangel/schedule-progress-api/internal/logger"
	"github.com/cleberrangel/schedule-progress-api/internal/migration"
	"github.com/cleberrangel/schedule-progress-api/internal/repository"
	"github.com/cleberrangel/schedule-progress-api/internal/service"
	"github.com/cleberrangel/schedule-progress-api/internal/source"
	"github.com/cleberrangel/schedule-progress-api/internal/websocket"
	"github.com/gin-gonic/gin"
)

const Version = "2.0.0"

func main() {
	// Carrega configurações
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Erro ao carregar configurações: %v", err)
	}

	// Inicializa logger estruturado
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Global()
	log.Info().
		Str("version", Version).
		Str("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Bool("log_json", cfg.LogJSON).
		Str("timezone", cfg.Timezone.String()).
		Msg("Schedule Progress API iniciando")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Armazenamento: PostgreSQL quando configurado, memória caso contrário
	var (
		progressStore repository.ProgressStore
		historyStore  repository.HistoryStore
		db            *sql.DB
	)
	if cfg.Database.Enabled() {
		db, err = database.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Erro ao conectar no banco de dados")
		}
		defer database.Close(db)

		if err := migration.NewMigrator(db).Run(ctx); err != nil {
			log.Fatal().Err(err).Msg("Erro ao aplicar migrations")
		}
		progressStore = repository.NewProgressRepository(db)
		historyStore = repository.NewHistoryRepository(db)
	} else {
		historyStore = repository.NewMemoryHistoryStore()
		if cfg.ProgressDir != "" {
			fileStore, err := repository.NewFileProgressStore(cfg.ProgressDir)
			if err != nil {
				log.Fatal().Err(err).Msg("Erro ao preparar PROGRESS_DIR")
			}
			progressStore = fileStore
		} else {
			log.Warn().Msg("DB_HOST e PROGRESS_DIR não configurados, usando armazenamento em memória")
			progressStore = repository.NewMemoryProgressStore()
		}
	}

	// Inicializa dependências
	registry := source.NewRegistry(source.Options{
		OCRCommand:  cfg.OCRCommand,
		OCRLanguage: cfg.OCRLanguage,
		OCRTimeout:  cfg.OCRTimeout,
	})
	pipeline, err := service.NewPipeline(cfg.NoiseExtraPatterns)
	if err != nil {
		log.Fatal().Err(err).Msg("Padrão de ruído inválido em NOISE_EXTRA_PATTERNS")
	}

	uploads := service.NewUploadService(service.UploadConfig{
		TempDir:   cfg.DataDir,
		MaxBytes:  cfg.MaxUploadBytes,
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
	}, registry, pipeline)
	history := service.NewHistoryService(historyStore, cfg.HistoryMaxRecords)

	hub := websocket.NewHub()
	go hub.Run(ctx)
	go uploads.RunCleanup(ctx)

	progressService := service.NewProgressService(service.ProgressDeps{
		Store:    progressStore,
		Uploads:  uploads,
		History:  history,
		Notifier: hub,
		Location: cfg.Timezone,
	})

	// Configura modo do Gin
	gin.SetMode(cfg.GinMode)

	r := handler.NewRouter(handler.RouterConfig{
		TokenAPI:           cfg.TokenAPI,
		Version:            Version,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		Uploads:            uploads,
		Progress:           progressService,
		History:            history,
		Hub:                hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Inicia servidor
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Servidor iniciando")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Erro ao iniciar servidor")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Sinal recebido, encerrando servidor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Erro no shutdown do servidor")
	}
	history.Wait()

	log.Info().Msg("Servidor encerrado")
}
