package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/logger"
	"github.com/cleberrangel/schedule-progress-api/internal/metrics"
	"github.com/cleberrangel/schedule-progress-api/internal/model"
	"github.com/cleberrangel/schedule-progress-api/internal/progress"
	"github.com/cleberrangel/schedule-progress-api/internal/repository"
	"github.com/cleberrangel/schedule-progress-api/internal/source"
	"github.com/cleberrangel/schedule-progress-api/internal/websocket"
)

// Notifier recebe mudanças de estado para clientes conectados
type Notifier interface {
	SendExtraction(update websocket.ExtractionUpdate)
	SendRecord(date string, record *model.DailyRecord)
}

// ProgressService gerencia os registros diários e os relatórios
type ProgressService struct {
	store      repository.ProgressStore
	uploads    *UploadService
	history    *HistoryService
	notifier   Notifier
	excel      *ExcelGenerator
	aggregator progress.Aggregator
	loc        *time.Location
	now        func() time.Time

	// serializa leitura-modificação-escrita do mesmo dia
	locks [16]sync.Mutex
}

// ProgressDeps agrupa as dependências do ProgressService
type ProgressDeps struct {
	Store    repository.ProgressStore
	Uploads  *UploadService
	History  *HistoryService
	Notifier Notifier
	Location *time.Location
	// Concurrency limita consultas paralelas ao montar relatórios
	Concurrency int
}

// NewProgressService cria o serviço; Notifier e History são opcionais
func NewProgressService(deps ProgressDeps) *ProgressService {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &ProgressService{
		store:      deps.Store,
		uploads:    deps.Uploads,
		history:    deps.History,
		notifier:   deps.Notifier,
		excel:      NewExcelGenerator(),
		aggregator: progress.Aggregator{Concurrency: deps.Concurrency},
		loc:        loc,
		now:        time.Now,
	}
}

// ParseDate interpreta YYYY-MM-DD no fuso configurado
func (s *ProgressService) ParseDate(raw string) (time.Time, error) {
	return progress.ParseDate(raw, s.loc)
}

// Today returns the current calendar day in the configured timezone
func (s *ProgressService) Today() time.Time {
	return progress.StartOfDay(s.now().In(s.loc))
}

func (s *ProgressService) lockDay(date time.Time) func() {
	m := &s.locks[date.YearDay()%len(s.locks)]
	m.Lock()
	return m.Unlock
}

// Get retorna o registro do dia, ou um registro vazio quando não existe
func (s *ProgressService) Get(ctx context.Context, date time.Time) (*model.DailyRecord, error) {
	return s.load(ctx, date)
}

// load trata registro ausente ou corrompido como dia sem tarefas
func (s *ProgressService) load(ctx context.Context, date time.Time) (*model.DailyRecord, error) {
	record, err := s.store.Get(ctx, date)
	if errors.Is(err, model.ErrMalformedRecord) {
		logger.Get(ctx).Warn().Err(err).
			Str("record_date", date.Format(model.DateLayout)).
			Msg("Registro corrompido tratado como vazio")
		return progress.EmptyRecord(date), nil
	}
	if err != nil {
		return nil, err
	}
	if record == nil {
		return progress.EmptyRecord(date), nil
	}
	return record, nil
}

// ImportFile extrai as tarefas de um arquivo e substitui o registro do dia
func (s *ProgressService) ImportFile(ctx context.Context, date time.Time, filename string, reader io.Reader, size int64) (*model.DailyRecord, *ExtractionResult, error) {
	day := date.Format(model.DateLayout)
	ctx = logger.WithDate(ctx, day)

	s.notify(websocket.ExtractionUpdate{Date: day, Status: websocket.StatusStarted, FileName: filename})

	result, err := s.uploads.ProcessFile(ctx, filename, reader, size)
	if err != nil {
		s.failImport(ctx, day, filename, err)
		return nil, nil, err
	}

	record, err := s.ReplaceFromExtraction(ctx, date, result.Entries)
	if err != nil {
		s.failImport(ctx, day, filename, err)
		return nil, nil, err
	}

	s.recordRun(ctx, repository.ExtractionRun{
		RecordDate:     day,
		FileName:       filename,
		FileType:       result.FileType,
		ContentHash:    result.ContentHash,
		TotalLines:     result.Stats.Lines,
		DiscardedLines: result.Stats.Discarded(),
		TaskCount:      len(result.Entries),
		Cached:         result.Cached,
		Status:         repository.RunStatusCompleted,
	})
	logger.AuditExtraction(ctx, day, filename, len(result.Entries), result.Stats.Discarded(), result.Cached, nil)

	s.notify(websocket.ExtractionUpdate{
		Date:           day,
		Status:         websocket.StatusCompleted,
		FileName:       filename,
		TaskCount:      len(result.Entries),
		DiscardedLines: result.Stats.Discarded(),
		Cached:         result.Cached,
	})

	return record, result, nil
}

func (s *ProgressService) failImport(ctx context.Context, day, filename string, err error) {
	logger.Get(ctx).Warn().Err(err).Str("file_name", filename).Msg("Falha na extração")

	s.recordRun(ctx, repository.ExtractionRun{
		RecordDate: day,
		FileName:   filename,
		Status:     repository.RunStatusFailed,
		Error:      err.Error(),
	})
	logger.AuditExtraction(ctx, day, filename, 0, 0, false, err)

	s.notify(websocket.ExtractionUpdate{
		Date:     day,
		Status:   websocket.StatusFailed,
		FileName: filename,
		Message:  err.Error(),
	})
}

func (s *ProgressService) recordRun(ctx context.Context, run repository.ExtractionRun) {
	if s.history == nil {
		return
	}
	if run.FileType == "" {
		run.FileType = source.Ext(run.FileName)
	}
	s.history.Record(ctx, run)
}

// ReplaceFromExtraction cria um registro novo para o dia, descartando o anterior
func (s *ProgressService) ReplaceFromExtraction(ctx context.Context, date time.Time, entries []model.TaskEntry) (*model.DailyRecord, error) {
	unlock := s.lockDay(date)
	defer unlock()

	record := progress.NewRecord(date, entries)
	if err := s.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("salvar registro: %w", err)
	}

	metrics.Get().IncrementRecordSaved()
	s.notifyRecord(record.Date, record)
	return record, nil
}

// SaveCompletion aplica os estados enviados pelo cliente ("salvar progresso")
func (s *ProgressService) SaveCompletion(ctx context.Context, date time.Time, states []model.CompletionState) (*model.DailyRecord, error) {
	return s.mutate(ctx, date, func(record *model.DailyRecord) error {
		if err := progress.ApplyCompletion(record, states); err != nil {
			return err
		}
		metrics.Get().IncrementTaskToggled(len(states))
		return nil
	})
}

// Toggle marca ou desmarca uma única tarefa
func (s *ProgressService) Toggle(ctx context.Context, date time.Time, id int, completed bool) (*model.DailyRecord, error) {
	return s.mutate(ctx, date, func(record *model.DailyRecord) error {
		if err := progress.Toggle(record, id, completed); err != nil {
			return err
		}
		metrics.Get().IncrementTaskToggled(1)
		return nil
	})
}

func (s *ProgressService) mutate(ctx context.Context, date time.Time, apply func(*model.DailyRecord) error) (*model.DailyRecord, error) {
	unlock := s.lockDay(date)
	defer unlock()

	record, err := s.load(ctx, date)
	if err != nil {
		return nil, err
	}

	if err := apply(record); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("salvar registro: %w", err)
	}

	metrics.Get().IncrementRecordSaved()
	logger.Audit(ctx, logger.AuditEvent{
		Action:     logger.AuditActionRecordUpdate,
		Resource:   "day",
		ResourceID: record.Date,
		Success:    true,
		Details: map[string]interface{}{
			"completed":  record.CompletedCount,
			"total":      record.TotalCount,
			"percentage": record.Percentage,
		},
	})
	s.notifyRecord(record.Date, record)
	return record, nil
}

// Clear remove o registro do dia
func (s *ProgressService) Clear(ctx context.Context, date time.Time) error {
	unlock := s.lockDay(date)
	defer unlock()

	day := date.Format(model.DateLayout)
	if err := s.store.Delete(ctx, date); err != nil {
		return fmt.Errorf("remover registro: %w", err)
	}

	metrics.Get().IncrementRecordCleared()
	logger.Audit(ctx, logger.AuditEvent{
		Action:     logger.AuditActionRecordClear,
		Resource:   "day",
		ResourceID: day,
		Success:    true,
	})
	s.notifyRecord(day, nil)
	return nil
}

// Report monta o relatório semanal ou mensal relativo a hoje
func (s *ProgressService) Report(ctx context.Context, window string) (progress.Report, error) {
	w, err := progress.Named(window, s.Today())
	if err != nil {
		metrics.Get().IncrementReportGenerated(false)
		return progress.Report{}, err
	}
	return s.build(ctx, w), nil
}

// CustomReport monta o relatório de um intervalo arbitrário
func (s *ProgressService) CustomReport(ctx context.Context, start, end time.Time) (progress.Report, error) {
	w, err := progress.Custom(start, end)
	if err != nil {
		metrics.Get().IncrementReportGenerated(false)
		return progress.Report{}, err
	}
	return s.build(ctx, w), nil
}

func (s *ProgressService) build(ctx context.Context, w progress.Window) progress.Report {
	start := time.Now()
	report := s.aggregator.BuildWindow(ctx, w, s.store.Get)

	metrics.Get().IncrementReportGenerated(true)
	logger.Get(ctx).Info().
		Str("window", w.Name).
		Str("start", report.Start).
		Str("end", report.End).
		Int("days_with_data", len(report.Rows)).
		Dur("duration", time.Since(start)).
		Msg("Relatório gerado")
	return report
}

// ReportXLSX gera a planilha de um relatório
func (s *ProgressService) ReportXLSX(ctx context.Context, report progress.Report) (*bytes.Buffer, error) {
	buf, err := s.excel.GenerateReport(report)
	if err != nil {
		return nil, err
	}

	metrics.Get().IncrementReportExported()
	logger.Audit(ctx, logger.AuditEvent{
		Action:     logger.AuditActionReportDownload,
		Resource:   "report",
		ResourceID: report.Window,
		Success:    true,
		Details:    map[string]interface{}{"start": report.Start, "end": report.End, "rows": len(report.Rows)},
	})
	return buf, nil
}

// DayXLSX gera a planilha de tarefas de um dia
func (s *ProgressService) DayXLSX(ctx context.Context, date time.Time) (*bytes.Buffer, error) {
	record, err := s.Get(ctx, date)
	if err != nil {
		return nil, err
	}
	buf, err := s.excel.GenerateDay(record)
	if err != nil {
		return nil, err
	}
	metrics.Get().IncrementReportExported()
	return buf, nil
}

// Export retorna todos os registros persistidos indexados pela chave de armazenamento
func (s *ProgressService) Export(ctx context.Context) (map[string]*model.DailyRecord, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	logger.Audit(ctx, logger.AuditEvent{
		Action:   logger.AuditActionDataExport,
		Resource: "records",
		Success:  true,
		Details:  map[string]interface{}{"count": len(records)},
	})
	return records, nil
}

// Ping verifica o armazenamento
func (s *ProgressService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *ProgressService) notify(update websocket.ExtractionUpdate) {
	if s.notifier != nil {
		s.notifier.SendExtraction(update)
	}
}

func (s *ProgressService) notifyRecord(date string, record *model.DailyRecord) {
	if s.notifier != nil {
		s.notifier.SendRecord(date, record)
	}
}
