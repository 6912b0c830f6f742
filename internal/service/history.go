package service

import (
	"context"
	"sync"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/logger"
	"github.com/cleberrangel/schedule-progress-api/internal/repository"
)

const (
	// DefaultHistoryLimit é o tamanho padrão da listagem de histórico
	DefaultHistoryLimit = 50
	// MaxHistoryLimit limita o parâmetro ?limit=
	MaxHistoryLimit = 500
)

// HistoryService registra cada extração e mantém o histórico limitado
type HistoryService struct {
	store      repository.HistoryStore
	maxRecords int

	// garante uma limpeza por vez
	cleaning sync.Mutex
	wg       sync.WaitGroup
}

// NewHistoryService creates a new history service
func NewHistoryService(store repository.HistoryStore, maxRecords int) *HistoryService {
	if maxRecords <= 0 {
		maxRecords = 1000
	}
	return &HistoryService{
		store:      store,
		maxRecords: maxRecords,
	}
}

// Record grava uma extração. Falhas são logadas e não interrompem o upload.
func (s *HistoryService) Record(ctx context.Context, run repository.ExtractionRun) *repository.ExtractionRun {
	log := logger.Get(ctx)

	created, err := s.store.Create(ctx, run)
	if err != nil {
		log.Error().Err(err).Str("record_date", run.RecordDate).Msg("Erro ao criar registro de histórico")
		return nil
	}

	log.Debug().
		Int("history_id", created.ID).
		Str("status", created.Status).
		Str("file_name", created.FileName).
		Msg("Registro de histórico criado")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.cleanupIfNeeded()
	}()

	return created
}

// Recent retorna as extrações mais recentes primeiro
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]repository.ExtractionRun, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.store.ListRecent(ctx, limit)
}

// Count retorna o total de registros de histórico
func (s *HistoryService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Wait blocks until pending cleanups finish
func (s *HistoryService) Wait() {
	s.wg.Wait()
}

// cleanupIfNeeded checks if cleanup is needed and performs it
func (s *HistoryService) cleanupIfNeeded() {
	if !s.cleaning.TryLock() {
		return
	}
	defer s.cleaning.Unlock()

	log := logger.Global()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := s.store.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Erro ao verificar contagem de histórico")
		return
	}

	if count <= s.maxRecords {
		return
	}

	log.Info().Int("count", count).Int("max", s.maxRecords).Msg("Iniciando limpeza de histórico")
	removed, err := s.store.Cleanup(ctx, s.maxRecords)
	if err != nil {
		log.Error().Err(err).Msg("Erro ao limpar histórico antigo")
		return
	}

	logger.Audit(ctx, logger.AuditEvent{
		Action:   logger.AuditActionHistoryClean,
		Resource: "history",
		Success:  true,
		Details:  map[string]interface{}{"removed": removed, "kept": s.maxRecords},
	})
}
