package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/model"
)

// MemoryProgressStore guarda registros em memória. Usado quando não há
// banco configurado e nos testes.
type MemoryProgressStore struct {
	mu      sync.RWMutex
	records map[string]*model.DailyRecord
}

// NewMemoryProgressStore cria um store vazio
func NewMemoryProgressStore() *MemoryProgressStore {
	return &MemoryProgressStore{records: make(map[string]*model.DailyRecord)}
}

// Get retorna uma cópia do registro da data
func (s *MemoryProgressStore) Get(ctx context.Context, date time.Time) (*model.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[model.ProgressKey(date)]
	if !ok {
		return nil, nil
	}
	return cloneRecord(record), nil
}

// Save grava uma cópia do registro
func (s *MemoryProgressStore) Save(ctx context.Context, record *model.DailyRecord) error {
	date, err := time.Parse(model.DateLayout, record.Date)
	if err != nil {
		return model.ErrInvalidDate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[model.ProgressKey(date)] = cloneRecord(record)
	return nil
}

// Delete remove o registro da data
func (s *MemoryProgressStore) Delete(ctx context.Context, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, model.ProgressKey(date))
	return nil
}

// List retorna cópias de todos os registros
func (s *MemoryProgressStore) List(ctx context.Context) (map[string]*model.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*model.DailyRecord, len(s.records))
	for key, record := range s.records {
		out[key] = cloneRecord(record)
	}
	return out, nil
}

// Keys retorna as chaves em ordem crescente
func (s *MemoryProgressStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Ping sempre responde
func (s *MemoryProgressStore) Ping(ctx context.Context) error {
	return nil
}

func cloneRecord(record *model.DailyRecord) *model.DailyRecord {
	clone := *record
	clone.Tasks = make([]model.DailyTask, len(record.Tasks))
	copy(clone.Tasks, record.Tasks)
	return &clone
}
