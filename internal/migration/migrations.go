package migration

// getAllMigrations retorna todas as migrações disponíveis
func getAllMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_progress_records",
			Up: `
				-- Registro diário de tarefas, chave "progress_YYYY-MM-DD"
				CREATE TABLE progress_records (
					storage_key VARCHAR(32) PRIMARY KEY,
					record_date DATE NOT NULL UNIQUE,
					data JSONB NOT NULL,
					created_at TIMESTAMP DEFAULT NOW(),
					updated_at TIMESTAMP DEFAULT NOW()
				);
			`,
			Down: `
				DROP TABLE IF EXISTS progress_records;
			`,
		},
		{
			Version: 2,
			Name:    "create_extraction_runs",
			Up: `
				-- Histórico de extrações a partir de arquivos enviados
				CREATE TABLE extraction_runs (
					id SERIAL PRIMARY KEY,
					record_date DATE NOT NULL,
					file_name VARCHAR(255) NOT NULL,
					file_type VARCHAR(16) NOT NULL,
					content_hash VARCHAR(64),
					total_lines INTEGER DEFAULT 0,
					discarded_lines INTEGER DEFAULT 0,
					task_count INTEGER DEFAULT 0,
					cached BOOLEAN DEFAULT FALSE,
					status VARCHAR(20) NOT NULL,
					error TEXT,
					created_at TIMESTAMP DEFAULT NOW(),
					CONSTRAINT chk_run_status CHECK (status IN ('completed', 'failed'))
				);
			`,
			Down: `
				DROP TABLE IF EXISTS extraction_runs;
			`,
		},
		{
			Version: 3,
			Name:    "create_indexes",
			Up: `
				CREATE INDEX idx_progress_records_updated_at ON progress_records(updated_at);
				CREATE INDEX idx_extraction_runs_created_at ON extraction_runs(created_at);
				CREATE INDEX idx_extraction_runs_record_date ON extraction_runs(record_date);
			`,
			Down: `
				DROP INDEX IF EXISTS idx_extraction_runs_record_date;
				DROP INDEX IF EXISTS idx_extraction_runs_created_at;
				DROP INDEX IF EXISTS idx_progress_records_updated_at;
			`,
		},
	}
}
