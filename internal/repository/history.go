package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Status de uma extração
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ExtractionRun representa uma entrada no histórico de extrações
type ExtractionRun struct {
	ID             int       `json:"id" db:"id"`
	RecordDate     string    `json:"record_date" db:"record_date"`
	FileName       string    `json:"file_name" db:"file_name"`
	FileType       string    `json:"file_type" db:"file_type"`
	ContentHash    string    `json:"content_hash,omitempty" db:"content_hash"`
	TotalLines     int       `json:"total_lines" db:"total_lines"`
	DiscardedLines int       `json:"discarded_lines" db:"discarded_lines"`
	TaskCount      int       `json:"task_count" db:"task_count"`
	Cached         bool      `json:"cached" db:"cached"`
	Status         string    `json:"status" db:"status"`
	Error          string    `json:"error,omitempty" db:"error"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// HistoryStore guarda o histórico de extrações
type HistoryStore interface {
	Create(ctx context.Context, run ExtractionRun) (*ExtractionRun, error)
	ListRecent(ctx context.Context, limit int) ([]ExtractionRun, error)
	Count(ctx context.Context) (int, error)
	// Cleanup mantém apenas as keep entradas mais recentes
	Cleanup(ctx context.Context, keep int) (int, error)
}

// HistoryRepository implementa HistoryStore no PostgreSQL
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository cria um novo repositório de histórico
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create registra uma extração
func (r *HistoryRepository) Create(ctx context.Context, run ExtractionRun) (*ExtractionRun, error) {
	query := `
		INSERT INTO extraction_runs (record_date, file_name, file_type, content_hash, total_lines,
			discarded_lines, task_count, cached, status, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING id, created_at
	`

	created := run
	err := r.db.QueryRowContext(ctx, query, run.RecordDate, run.FileName, run.FileType,
		nullString(run.ContentHash), run.TotalLines, run.DiscardedLines, run.TaskCount,
		run.Cached, run.Status, nullString(run.Error)).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("erro ao registrar extração: %w", err)
	}

	return &created, nil
}

// ListRecent retorna as extrações mais recentes primeiro
func (r *HistoryRepository) ListRecent(ctx context.Context, limit int) ([]ExtractionRun, error) {
	query := `
		SELECT id, to_char(record_date, 'YYYY-MM-DD'), file_name, file_type, COALESCE(content_hash, ''),
			total_lines, discarded_lines, task_count, cached, status, COALESCE(error, ''), created_at
		FROM extraction_runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar histórico: %w", err)
	}
	defer rows.Close()

	runs := []ExtractionRun{}
	for rows.Next() {
		var run ExtractionRun
		if err := rows.Scan(&run.ID, &run.RecordDate, &run.FileName, &run.FileType, &run.ContentHash,
			&run.TotalLines, &run.DiscardedLines, &run.TaskCount, &run.Cached, &run.Status,
			&run.Error, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("erro ao ler histórico: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Count retorna o total de entradas
func (r *HistoryRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM extraction_runs").Scan(&count); err != nil {
		return 0, fmt.Errorf("erro ao contar histórico: %w", err)
	}
	return count, nil
}

// Cleanup remove entradas antigas além das keep mais recentes
func (r *HistoryRepository) Cleanup(ctx context.Context, keep int) (int, error) {
	query := `
		DELETE FROM extraction_runs
		WHERE id NOT IN (
			SELECT id FROM extraction_runs ORDER BY created_at DESC, id DESC LIMIT $1
		)
	`
	result, err := r.db.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("erro ao limpar histórico: %w", err)
	}
	removed, _ := result.RowsAffected()
	return int(removed), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// MemoryHistoryStore implementa HistoryStore em memória
type MemoryHistoryStore struct {
	mu     sync.Mutex
	runs   []ExtractionRun
	nextID int
	now    func() time.Time
}

// NewMemoryHistoryStore cria um histórico vazio
func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{nextID: 1, now: time.Now}
}

// Create registra uma extração
func (s *MemoryHistoryStore) Create(ctx context.Context, run ExtractionRun) (*ExtractionRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.ID = s.nextID
	run.CreatedAt = s.now()
	s.nextID++
	s.runs = append(s.runs, run)

	created := run
	return &created, nil
}

// ListRecent retorna as extrações mais recentes primeiro
func (s *MemoryHistoryStore) ListRecent(ctx context.Context, limit int) ([]ExtractionRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := make([]ExtractionRun, len(s.runs))
	copy(runs, s.runs)
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Count retorna o total de entradas
func (s *MemoryHistoryStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs), nil
}

// Cleanup mantém apenas as keep entradas mais recentes
func (s *MemoryHistoryStore) Cleanup(ctx context.Context, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.runs) <= keep {
		return 0, nil
	}
	removed := len(s.runs) - keep
	s.runs = append([]ExtractionRun(nil), s.runs[removed:]...)
	return removed, nil
}
