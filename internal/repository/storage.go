package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/logger"
	"github.com/cleberrangel/schedule-progress-api/internal/model"
)

const recordFileExt = ".json"

// FileProgressStore persiste cada registro diário num arquivo JSON
// (<dir>/progress_YYYY-MM-DD.json). Usado sem PostgreSQL quando os dados
// precisam sobreviver a um restart.
type FileProgressStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileProgressStore cria o diretório se necessário
func NewFileProgressStore(dir string) (*FileProgressStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("criar diretório de registros: %w", err)
	}
	logger.Global().Info().Str("dir", dir).Msg("Usando armazenamento de registros em arquivo")
	return &FileProgressStore{dir: dir}, nil
}

func (s *FileProgressStore) path(key string) string {
	return filepath.Join(s.dir, key+recordFileExt)
}

// Get retorna nil, nil quando o dia não tem arquivo
func (s *FileProgressStore) Get(ctx context.Context, date time.Time) (*model.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.path(model.ProgressKey(date)))
}

func (s *FileProgressStore) read(path string) (*model.DailyRecord, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ler registro: %w", err)
	}
	return decodeRecord(strings.TrimSuffix(filepath.Base(path), recordFileExt), data)
}

// Save grava o registro num arquivo temporário e renomeia, para que um
// leitor nunca veja um arquivo pela metade
func (s *FileProgressStore) Save(ctx context.Context, record *model.DailyRecord) error {
	date, err := time.Parse(model.DateLayout, record.Date)
	if err != nil {
		return model.ErrInvalidDate
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode registro: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "progress_*.tmp")
	if err != nil {
		return fmt.Errorf("criar arquivo temporário: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("gravar registro: %w", err)
	}
	// Flush para garantir escrita em disco
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), s.path(model.ProgressKey(date)))
}

// Delete remove o arquivo do dia; dia inexistente não é erro
func (s *FileProgressStore) Delete(ctx context.Context, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(model.ProgressKey(date)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remover registro: %w", err)
	}
	return nil
}

// List lê todos os registros. Arquivos corrompidos são ignorados com aviso.
func (s *FileProgressStore) List(ctx context.Context) (map[string]*model.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listar registros: %w", err)
	}

	out := make(map[string]*model.DailyRecord)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "progress_") || !strings.HasSuffix(name, recordFileExt) {
			continue
		}

		record, err := s.read(filepath.Join(s.dir, name))
		if err != nil {
			logger.Get(ctx).Warn().Err(err).Str("file", name).Msg("Registro ignorado")
			continue
		}
		if record != nil {
			out[strings.TrimSuffix(name, recordFileExt)] = record
		}
	}
	return out, nil
}

// Ping verifica se o diretório ainda existe
func (s *FileProgressStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s não é um diretório", s.dir)
	}
	return nil
}
