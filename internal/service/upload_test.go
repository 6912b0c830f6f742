package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/extraction"
	"github.com/cleberrangel/schedule-progress-api/internal/middleware"
	"github.com/cleberrangel/schedule-progress-api/internal/source"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/xuri/excelize/v2"
)

func newTestUploadService(t *testing.T, maxBytes int64) *UploadService {
	t.Helper()
	return NewUploadService(UploadConfig{
		TempDir:   t.TempDir(),
		MaxBytes:  maxBytes,
		CacheSize: 16,
		CacheTTL:  time.Minute,
	}, source.NewRegistry(source.Options{}), nil)
}

const scheduleText = `Weekly Schedule
Monday Tuesday Wednesday
8:30 - 10:30 (Fullstack work)
8:30 Gym
Read a book
read a book
N/A
`

func TestProcessFileText(t *testing.T) {
	svc := newTestUploadService(t, 0)

	result, err := svc.ProcessFile(context.Background(), "plan.txt", strings.NewReader(scheduleText), int64(len(scheduleText)))
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}

	names := make([]string, len(result.Entries))
	for i, e := range result.Entries {
		names[i] = e.TaskName
	}
	want := []string{"Fullstack work", "Gym", "Read a book"}
	if strings.Join(names, "|") != strings.Join(want, "|") {
		t.Errorf("entries = %v, want %v", names, want)
	}
	if result.Entries[0].TimeRange != "8:30 - 10:30" {
		t.Errorf("time range = %q", result.Entries[0].TimeRange)
	}
	if result.Stats.Duplicates != 1 || result.Kind != source.KindText || result.FileType != ".txt" {
		t.Errorf("result = %+v", result)
	}
	if len(result.ContentHash) != 64 {
		t.Errorf("hash = %q, want 64 hex chars", result.ContentHash)
	}
	if result.Cached {
		t.Error("first upload must not be cached")
	}
	if svc.TrackedTempFiles() != 0 {
		t.Error("temp file must be removed after processing")
	}
}

func TestProcessFileCachedByContent(t *testing.T) {
	svc := newTestUploadService(t, 0)
	ctx := context.Background()

	first, err := svc.ProcessFile(ctx, "a.txt", strings.NewReader(scheduleText), int64(len(scheduleText)))
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.ProcessFile(ctx, "b.txt", strings.NewReader(scheduleText), int64(len(scheduleText)))
	if err != nil {
		t.Fatal(err)
	}

	if !second.Cached || second.FileName != "b.txt" || second.ContentHash != first.ContentHash {
		t.Errorf("second = %+v", second)
	}
	if len(second.Entries) != len(first.Entries) {
		t.Errorf("cached entries = %d, want %d", len(second.Entries), len(first.Entries))
	}
	if stats := svc.CacheStats(); stats.HitCount != 1 {
		t.Errorf("cache hits = %d", stats.HitCount)
	}

	// O mesmo conteúdo com outra extensão é decodificado de novo
	third, err := svc.ProcessFile(ctx, "c.csv", strings.NewReader(scheduleText), int64(len(scheduleText)))
	if err != nil {
		t.Fatal(err)
	}
	if third.Cached {
		t.Error("different extension must not hit the cache")
	}
}

func TestProcessFileXLSXRows(t *testing.T) {
	svc := newTestUploadService(t, 0)

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Weekly Schedule"},
		{"Time", "Monday", "Tuesday"},
		{"8:30", "Gym", "Read a book"},
		{"10:00", "Code review", ""},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	f.Close()

	result, err := svc.ProcessFile(context.Background(), "week.xlsx", &buf, int64(buf.Len()))
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if result.Kind != source.KindSpreadsheet {
		t.Errorf("kind = %s", result.Kind)
	}

	names := map[string]bool{}
	for _, e := range result.Entries {
		names[e.TaskName] = true
	}
	for _, want := range []string{"Read a book", "Code review"} {
		if !names[want] {
			t.Errorf("missing %q in %+v", want, result.Entries)
		}
	}
	if names["Monday"] || names["Weekly Schedule"] {
		t.Errorf("header rows leaked: %+v", result.Entries)
	}
}

func TestUploadService_FileSizeValidation(t *testing.T) {
	svc := newTestUploadService(t, 16)

	_, err := svc.ProcessFile(context.Background(), "big.txt", strings.NewReader(strings.Repeat("x", 17)), 17)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("declared size: err = %v, want ErrFileTooLarge", err)
	}

	// Tamanho declarado menor que o real
	_, err = svc.ProcessFile(context.Background(), "big.txt", strings.NewReader(strings.Repeat("x", 40)), 10)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("streamed size: err = %v, want ErrFileTooLarge", err)
	}
	if svc.TrackedTempFiles() != 0 {
		t.Error("oversized temp file must be removed")
	}
}

func TestUploadService_EmptyFile(t *testing.T) {
	svc := newTestUploadService(t, 0)

	_, err := svc.ProcessFile(context.Background(), "empty.txt", strings.NewReader(""), 0)
	if !errors.Is(err, source.ErrEmptyFile) {
		t.Errorf("err = %v, want ErrEmptyFile", err)
	}

	// arquivo com bytes mas sem texto extrai zero tarefas
	result, err := svc.ProcessFile(context.Background(), "blank.txt", strings.NewReader("\n\n  \n"), 5)
	if err != nil {
		t.Fatalf("blank lines: %v", err)
	}
	if len(result.Entries) != 0 || result.Stats.Blank != 3 {
		t.Errorf("blank lines: entries = %v, stats = %+v", result.Entries, result.Stats)
	}
}

func TestUploadService_UnsupportedFormat(t *testing.T) {
	svc := newTestUploadService(t, 0)

	for _, name := range []string{"data.xls", "notes.rtf", "noext"} {
		_, err := svc.ProcessFile(context.Background(), name, strings.NewReader("abc"), 3)
		if !errors.Is(err, source.ErrUnsupportedType) {
			t.Errorf("%s: err = %v, want ErrUnsupportedType", name, err)
		}
	}
}

func TestCleanupExpiredFiles(t *testing.T) {
	svc := newTestUploadService(t, 0)

	f, err := os.CreateTemp(svc.tempDir, "upload_*.txt")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	svc.trackTempFile(f.Name())

	if n := svc.cleanupExpiredFiles(time.Now()); n != 0 {
		t.Errorf("fresh file removed: %d", n)
	}
	if n := svc.cleanupExpiredFiles(time.Now().Add(TempFileExpiry + time.Minute)); n != 1 {
		t.Errorf("removed = %d, want 1", n)
	}
	if _, err := os.Stat(f.Name()); !os.IsNotExist(err) {
		t.Error("expired temp file still on disk")
	}
}

func TestNewPipelineExtraPatterns(t *testing.T) {
	p, err := NewPipeline([]string{`^lunch\b`})
	if err != nil {
		t.Fatal(err)
	}
	exp := p.Explain("Lunch with team")
	if exp.NoiseRule != "custom_1" {
		t.Errorf("noise rule = %q, want custom_1", exp.NoiseRule)
	}

	if _, err := NewPipeline([]string{"("}); err == nil {
		t.Error("invalid pattern must fail")
	}
}

func TestUploadAndLinesAreSanitizedAlike(t *testing.T) {
	svc := newTestUploadService(t, 0)
	ctx := context.Background()

	long := "Read " + strings.Repeat("a", middleware.MaxLineLength)
	lines := []string{"8:30 Gy\x00m", "Deep\x07 work block", long}
	text := strings.Join(lines, "\n")

	fromUpload, err := svc.ProcessFile(ctx, "dirty.txt", strings.NewReader(text), int64(len(text)))
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	fromLines, _ := svc.ExtractLines(ctx, lines)

	if len(fromUpload.Entries) != 3 || len(fromLines) != 3 {
		t.Fatalf("upload = %+v, lines = %+v", fromUpload.Entries, fromLines)
	}
	for i := range fromLines {
		if fromUpload.Entries[i] != fromLines[i] {
			t.Errorf("entry %d: upload %+v, lines %+v", i, fromUpload.Entries[i], fromLines[i])
		}
	}
	if fromLines[0].TaskName != "Gym" || fromLines[1].TaskName != "Deep work block" {
		t.Errorf("control characters must be removed: %+v", fromLines)
	}
	if len(fromLines[2].TaskName) != middleware.MaxLineLength {
		t.Errorf("long line length = %d, want %d", len(fromLines[2].TaskName), middleware.MaxLineLength)
	}
}

func TestExtractLinesMatchesPipeline(t *testing.T) {
	svc := newTestUploadService(t, 0)

	properties := gopter.NewProperties(nil)
	properties.Property("service extraction equals pure pipeline", prop.ForAll(
		func(lines []string) bool {
			got, _ := svc.ExtractLines(context.Background(), lines)
			want := extraction.Extract(lines)
			if len(got) != len(want) {
				return false
			}
			for i := range got {
				if got[i] != want[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.OneConstOf("8:30 Gym", "Read a book", "Monday", "10:00 - 11:00 (Deep work)", "", "N/A", "gym")),
	))
	properties.TestingRun(t)
}
