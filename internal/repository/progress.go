package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/logger"
	"github.com/cleberrangel/schedule-progress-api/internal/model"
)

// ProgressStore é o armazenamento chave-valor dos registros diários.
// Get retorna (nil, nil) quando não há registro para a data.
type ProgressStore interface {
	Get(ctx context.Context, date time.Time) (*model.DailyRecord, error)
	Save(ctx context.Context, record *model.DailyRecord) error
	Delete(ctx context.Context, date time.Time) error
	List(ctx context.Context) (map[string]*model.DailyRecord, error)
	Ping(ctx context.Context) error
}

// ProgressRepository persiste registros diários no PostgreSQL (JSONB)
type ProgressRepository struct {
	db *sql.DB
}

// NewProgressRepository cria um novo repositório de progresso
func NewProgressRepository(db *sql.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Get busca o registro de uma data
func (r *ProgressRepository) Get(ctx context.Context, date time.Time) (*model.DailyRecord, error) {
	key := model.ProgressKey(date)

	var data []byte
	err := r.db.QueryRowContext(ctx,
		"SELECT data FROM progress_records WHERE storage_key = $1", key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar %s: %w", key, err)
	}

	return decodeRecord(key, data)
}

// Save grava o registro substituindo o anterior da mesma data
func (r *ProgressRepository) Save(ctx context.Context, record *model.DailyRecord) error {
	date, err := time.Parse(model.DateLayout, record.Date)
	if err != nil {
		return fmt.Errorf("%q: %w", record.Date, model.ErrInvalidDate)
	}
	key := model.ProgressKey(date)

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("erro ao serializar %s: %w", key, err)
	}

	query := `
		INSERT INTO progress_records (storage_key, record_date, data, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (storage_key) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, key, record.Date, data); err != nil {
		logger.Get(ctx).Error().Err(err).Str("key", key).Msg("Erro ao salvar registro de progresso")
		return fmt.Errorf("erro ao salvar %s: %w", key, err)
	}

	return nil
}

// Delete remove o registro de uma data (sem erro se não existir)
func (r *ProgressRepository) Delete(ctx context.Context, date time.Time) error {
	key := model.ProgressKey(date)
	if _, err := r.db.ExecContext(ctx, "DELETE FROM progress_records WHERE storage_key = $1", key); err != nil {
		return fmt.Errorf("erro ao remover %s: %w", key, err)
	}
	return nil
}

// List retorna todos os registros indexados pela chave de persistência.
// Registros corrompidos são ignorados e registrados em log.
func (r *ProgressRepository) List(ctx context.Context) (map[string]*model.DailyRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT storage_key, data FROM progress_records ORDER BY record_date")
	if err != nil {
		return nil, fmt.Errorf("erro ao listar registros: %w", err)
	}
	defer rows.Close()

	records := make(map[string]*model.DailyRecord)
	for rows.Next() {
		var key string
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("erro ao ler registro: %w", err)
		}

		record, err := decodeRecord(key, data)
		if err != nil {
			logger.Get(ctx).Warn().Err(err).Str("key", key).Msg("Registro ignorado na exportação")
			continue
		}
		records[key] = record
	}

	return records, rows.Err()
}

// Ping verifica a conexão com o banco
func (r *ProgressRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// decodeRecord valida o JSON persistido. A data é obtida da chave quando o
// documento não a traz.
func decodeRecord(key string, data []byte) (*model.DailyRecord, error) {
	var record model.DailyRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", key, err, model.ErrMalformedRecord)
	}
	if record.Date == "" {
		record.Date = strings.TrimPrefix(key, "progress_")
	}
	if record.Tasks == nil {
		record.Tasks = []model.DailyTask{}
	}
	return &record, nil
}
