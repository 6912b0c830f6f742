package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/model"
	"github.com/cleberrangel/schedule-progress-api/internal/repository"
	"github.com/cleberrangel/schedule-progress-api/internal/source"
	"github.com/cleberrangel/schedule-progress-api/internal/websocket"
	"github.com/xuri/excelize/v2"
)

type recordingNotifier struct {
	mu          sync.Mutex
	extractions []websocket.ExtractionUpdate
	records     []*model.DailyRecord
	cleared     []string
}

func (n *recordingNotifier) SendExtraction(update websocket.ExtractionUpdate) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.extractions = append(n.extractions, update)
}

func (n *recordingNotifier) SendRecord(date string, record *model.DailyRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if record == nil {
		n.cleared = append(n.cleared, date)
		return
	}
	n.records = append(n.records, record)
}

type progressFixture struct {
	svc      *ProgressService
	store    *repository.MemoryProgressStore
	history  *repository.MemoryHistoryStore
	notifier *recordingNotifier
}

func newProgressFixture(t *testing.T, today time.Time) progressFixture {
	t.Helper()
	store := repository.NewMemoryProgressStore()
	historyStore := repository.NewMemoryHistoryStore()
	notifier := &recordingNotifier{}

	svc := NewProgressService(ProgressDeps{
		Store:    store,
		Uploads:  newTestUploadService(t, 0),
		History:  NewHistoryService(historyStore, 100),
		Notifier: notifier,
		Location: time.UTC,
	})
	svc.now = func() time.Time { return today }

	return progressFixture{svc: svc, store: store, history: historyStore, notifier: notifier}
}

func mustDate(t *testing.T, svc *ProgressService, s string) time.Time {
	t.Helper()
	d, err := svc.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestImportFileReplacesRecord(t *testing.T) {
	fx := newProgressFixture(t, time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC))
	ctx := context.Background()
	day := mustDate(t, fx.svc, "2026-10-18")

	if _, err := fx.svc.ReplaceFromExtraction(ctx, day, []model.TaskEntry{{TaskName: "Old task", FullText: "Old task"}}); err != nil {
		t.Fatal(err)
	}

	record, result, err := fx.svc.ImportFile(ctx, day, "plan.txt", strings.NewReader(scheduleText), int64(len(scheduleText)))
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}

	if record.TotalCount != 3 || record.CompletedCount != 0 || record.Percentage != 0 {
		t.Errorf("record = %+v", record)
	}
	for i, task := range record.Tasks {
		if task.ID != i || task.Completed {
			t.Errorf("task %d = %+v", i, task)
		}
		if task.TaskName == "Old task" {
			t.Error("previous record must be replaced")
		}
	}
	if len(result.Entries) != 3 {
		t.Errorf("entries = %d", len(result.Entries))
	}

	stored, _ := fx.store.Get(ctx, day)
	if stored == nil || stored.TotalCount != 3 {
		t.Errorf("stored = %+v", stored)
	}

	fx.svc.history.Wait()
	runs, _ := fx.history.ListRecent(ctx, 10)
	if len(runs) != 1 || runs[0].Status != repository.RunStatusCompleted || runs[0].TaskCount != 3 || runs[0].RecordDate != "2026-10-18" {
		t.Errorf("history = %+v", runs)
	}

	if len(fx.notifier.extractions) != 2 ||
		fx.notifier.extractions[0].Status != websocket.StatusStarted ||
		fx.notifier.extractions[1].Status != websocket.StatusCompleted {
		t.Errorf("extraction updates = %+v", fx.notifier.extractions)
	}
}

func TestImportFileFailureIsRecorded(t *testing.T) {
	fx := newProgressFixture(t, time.Now())
	ctx := context.Background()
	day := mustDate(t, fx.svc, "2026-10-18")

	_, _, err := fx.svc.ImportFile(ctx, day, "plan.xls", strings.NewReader("x"), 1)
	if !errors.Is(err, source.ErrUnsupportedType) {
		t.Fatalf("err = %v", err)
	}

	fx.svc.history.Wait()
	runs, _ := fx.history.ListRecent(ctx, 10)
	if len(runs) != 1 || runs[0].Status != repository.RunStatusFailed || runs[0].Error == "" || runs[0].FileType != ".xls" {
		t.Errorf("history = %+v", runs)
	}
	last := fx.notifier.extractions[len(fx.notifier.extractions)-1]
	if last.Status != websocket.StatusFailed || last.Message == "" {
		t.Errorf("last update = %+v", last)
	}
	if rec, _ := fx.store.Get(ctx, day); rec != nil {
		t.Error("failed import must not create a record")
	}
}

func TestImportFileWithoutTextYieldsEmptyRecord(t *testing.T) {
	fx := newProgressFixture(t, time.Now())
	ctx := context.Background()
	day := mustDate(t, fx.svc, "2026-10-18")

	blank := "   \n\t\n"
	record, result, err := fx.svc.ImportFile(ctx, day, "blank.txt", strings.NewReader(blank), int64(len(blank)))
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if record.TotalCount != 0 || record.Percentage != 0 || record.Tasks == nil || len(record.Tasks) != 0 {
		t.Errorf("record = %+v", record)
	}
	if len(result.Entries) != 0 {
		t.Errorf("entries = %v", result.Entries)
	}

	fx.svc.history.Wait()
	runs, _ := fx.history.ListRecent(ctx, 10)
	if len(runs) != 1 || runs[0].Status != repository.RunStatusCompleted || runs[0].TaskCount != 0 {
		t.Errorf("history = %+v", runs)
	}
}

func TestMalformedRecordIsTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := repository.NewFileProgressStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "progress_2026-10-18.json"), []byte("{corrupt"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := NewProgressService(ProgressDeps{
		Store:    store,
		Uploads:  newTestUploadService(t, 0),
		Location: time.UTC,
	})
	ctx := context.Background()
	day := mustDate(t, svc, "2026-10-18")

	record, err := svc.Get(ctx, day)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record.Date != "2026-10-18" || record.TotalCount != 0 {
		t.Errorf("record = %+v", record)
	}

	if _, err := svc.Toggle(ctx, day, 0, true); !errors.Is(err, model.ErrTaskNotFound) {
		t.Errorf("Toggle on corrupt day = %v, want ErrTaskNotFound", err)
	}

	saved, err := svc.SaveCompletion(ctx, day, nil)
	if err != nil {
		t.Fatalf("SaveCompletion: %v", err)
	}
	if saved.TotalCount != 0 {
		t.Errorf("saved = %+v", saved)
	}
	if stored, err := store.Get(ctx, day); err != nil || stored == nil {
		t.Errorf("corrupt file must be replaced, got %+v, %v", stored, err)
	}
}

func TestGetMissingDayIsEmpty(t *testing.T) {
	fx := newProgressFixture(t, time.Now())
	record, err := fx.svc.Get(context.Background(), mustDate(t, fx.svc, "2026-01-02"))
	if err != nil {
		t.Fatal(err)
	}
	if record.Date != "2026-01-02" || record.TotalCount != 0 || len(record.Tasks) != 0 {
		t.Errorf("record = %+v", record)
	}
}

func TestSaveCompletionAndToggle(t *testing.T) {
	fx := newProgressFixture(t, time.Now())
	ctx := context.Background()
	day := mustDate(t, fx.svc, "2026-10-18")

	entries := []model.TaskEntry{
		{TaskName: "Gym", TimeRange: "8:30", FullText: "8:30 (Gym)"},
		{TaskName: "Read a book", FullText: "Read a book"},
		{TaskName: "Code review", FullText: "Code review"},
	}
	if _, err := fx.svc.ReplaceFromExtraction(ctx, day, entries); err != nil {
		t.Fatal(err)
	}

	record, err := fx.svc.SaveCompletion(ctx, day, []model.CompletionState{{ID: 0, Completed: true}, {ID: 2, Completed: true}})
	if err != nil {
		t.Fatal(err)
	}
	if record.CompletedCount != 2 || record.Percentage != 67 {
		t.Errorf("after save = %+v", record)
	}

	record, err = fx.svc.Toggle(ctx, day, 2, false)
	if err != nil {
		t.Fatal(err)
	}
	if record.CompletedCount != 1 || record.Percentage != 33 {
		t.Errorf("after toggle = %+v", record)
	}

	if _, err := fx.svc.Toggle(ctx, day, 9, true); !errors.Is(err, model.ErrTaskNotFound) {
		t.Errorf("unknown id: err = %v", err)
	}
	if _, err := fx.svc.SaveCompletion(ctx, day, []model.CompletionState{{ID: 1, Completed: true}, {ID: 7, Completed: true}}); !errors.Is(err, model.ErrTaskNotFound) {
		t.Errorf("unknown id in batch: err = %v", err)
	}

	stored, _ := fx.store.Get(ctx, day)
	if stored.CompletedCount != 1 || stored.Tasks[1].Completed {
		t.Errorf("failed batch must not be persisted: %+v", stored)
	}
}

func TestClear(t *testing.T) {
	fx := newProgressFixture(t, time.Now())
	ctx := context.Background()
	day := mustDate(t, fx.svc, "2026-10-18")

	if _, err := fx.svc.ReplaceFromExtraction(ctx, day, []model.TaskEntry{{TaskName: "Gym", FullText: "Gym"}}); err != nil {
		t.Fatal(err)
	}
	if err := fx.svc.Clear(ctx, day); err != nil {
		t.Fatal(err)
	}

	if rec, _ := fx.store.Get(ctx, day); rec != nil {
		t.Error("record must be gone")
	}
	if len(fx.notifier.cleared) != 1 || fx.notifier.cleared[0] != "2026-10-18" {
		t.Errorf("cleared = %v", fx.notifier.cleared)
	}
}

func TestWeeklyReport(t *testing.T) {
	fx := newProgressFixture(t, time.Date(2026, 10, 18, 22, 0, 0, 0, time.UTC))
	ctx := context.Background()

	seed := func(date string, total, completed int) {
		entries := make([]model.TaskEntry, total)
		for i := range entries {
			entries[i] = model.TaskEntry{TaskName: "Task " + string(rune('A'+i)), FullText: "x"}
		}
		d := mustDate(t, fx.svc, date)
		if _, err := fx.svc.ReplaceFromExtraction(ctx, d, entries); err != nil {
			t.Fatal(err)
		}
		states := make([]model.CompletionState, completed)
		for i := range states {
			states[i] = model.CompletionState{ID: i, Completed: true}
		}
		if _, err := fx.svc.SaveCompletion(ctx, d, states); err != nil {
			t.Fatal(err)
		}
	}
	seed("2026-10-11", 4, 4) // primeiro dia da janela
	seed("2026-10-15", 4, 1)
	seed("2026-10-18", 2, 0)
	seed("2026-10-10", 4, 4) // fora da janela

	report, err := fx.svc.Report(ctx, "weekly")
	if err != nil {
		t.Fatal(err)
	}

	if report.Start != "2026-10-11" || report.End != "2026-10-18" || len(report.Rows) != 3 {
		t.Fatalf("report = %+v", report)
	}
	if report.TotalCompleted != 5 || report.TotalTasks != 10 {
		t.Errorf("totals = %d/%d", report.TotalCompleted, report.TotalTasks)
	}
	// (100 + 25 + 0) / 3
	if avg, ok := report.Average(); !ok || avg < 41.66 || avg > 41.67 {
		t.Errorf("average = %v, %v", avg, ok)
	}

	if _, err := fx.svc.Report(ctx, "yearly"); !errors.Is(err, model.ErrInvalidWindow) {
		t.Errorf("unknown window: err = %v", err)
	}
}

func TestCustomReportValidation(t *testing.T) {
	fx := newProgressFixture(t, time.Now())
	ctx := context.Background()

	_, err := fx.svc.CustomReport(ctx, mustDate(t, fx.svc, "2026-10-18"), mustDate(t, fx.svc, "2026-10-01"))
	if !errors.Is(err, model.ErrInvalidWindow) {
		t.Errorf("reversed: err = %v", err)
	}

	report, err := fx.svc.CustomReport(ctx, mustDate(t, fx.svc, "2026-10-01"), mustDate(t, fx.svc, "2026-10-03"))
	if err != nil {
		t.Fatal(err)
	}
	if report.HasData || len(report.Rows) != 0 || report.Window != "custom" {
		t.Errorf("empty report = %+v", report)
	}
}

func TestReportXLSX(t *testing.T) {
	fx := newProgressFixture(t, time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()
	day := mustDate(t, fx.svc, "2026-10-18")

	if _, err := fx.svc.ReplaceFromExtraction(ctx, day, []model.TaskEntry{{TaskName: "Gym", FullText: "Gym"}, {TaskName: "Read", FullText: "Read"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := fx.svc.Toggle(ctx, day, 0, true); err != nil {
		t.Fatal(err)
	}

	report, _ := fx.svc.Report(ctx, "monthly")
	buf, err := fx.svc.ReportXLSX(ctx, report)
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(reportSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][0] != "Data" || rows[1][0] != "2026-10-18" || rows[1][1] != "1" || rows[1][2] != "2" {
		t.Errorf("data rows = %v", rows[:2])
	}
	if rows[2][0] != "Total" || rows[2][3] != "50%" {
		t.Errorf("totals row = %v", rows[2])
	}

	dayBuf, err := fx.svc.DayXLSX(ctx, day)
	if err != nil {
		t.Fatal(err)
	}
	df, err := excelize.OpenReader(dayBuf)
	if err != nil {
		t.Fatal(err)
	}
	defer df.Close()
	taskRows, _ := df.GetRows(tasksSheet)
	if len(taskRows) != 3 || taskRows[1][2] != "Gym" || taskRows[1][3] != "Sim" || taskRows[2][3] != "Não" {
		t.Errorf("task rows = %v", taskRows)
	}
}

func TestExport(t *testing.T) {
	fx := newProgressFixture(t, time.Now())
	ctx := context.Background()

	for _, d := range []string{"2026-10-17", "2026-10-18"} {
		if _, err := fx.svc.ReplaceFromExtraction(ctx, mustDate(t, fx.svc, d), []model.TaskEntry{{TaskName: "Gym", FullText: "Gym"}}); err != nil {
			t.Fatal(err)
		}
	}

	records, err := fx.svc.Export(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records["progress_2026-10-17"] == nil || records["progress_2026-10-18"] == nil {
		t.Errorf("export keys = %v", records)
	}
}
