package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/database"
	"github.com/cleberrangel/schedule-progress-api/internal/migration"
	"github.com/cleberrangel/schedule-progress-api/internal/model"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	_ "github.com/lib/pq"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	dbConfig := database.Config{
		Host:     getEnvOrDefault("TEST_DB_HOST", "127.0.0.1"),
		Port:     getEnvOrDefault("TEST_DB_PORT", "5432"),
		User:     getEnvOrDefault("TEST_DB_USER", "postgres"),
		Password: getEnvOrDefault("TEST_DB_PASSWORD", "postgres"),
		DBName:   fmt.Sprintf("test_progress_%d", time.Now().UnixNano()),
		SSLMode:  "disable",
	}

	adminConfig := dbConfig
	adminConfig.DBName = "postgres"

	adminDB, err := database.Connect(ctx, adminConfig)
	if err != nil {
		t.Skipf("Pulando teste: não foi possível conectar ao PostgreSQL: %v", err)
	}
	defer adminDB.Close()

	if _, err := adminDB.Exec(fmt.Sprintf("CREATE DATABASE %s", dbConfig.DBName)); err != nil {
		t.Fatalf("Erro ao criar banco de teste: %v", err)
	}

	testDB, err := database.Connect(ctx, dbConfig)
	if err != nil {
		t.Fatalf("Erro ao conectar ao banco de teste: %v", err)
	}

	if err := migration.NewMigrator(testDB).Run(ctx); err != nil {
		testDB.Close()
		t.Fatalf("Erro ao executar migrações: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
		adminDB, _ := database.Connect(ctx, adminConfig)
		if adminDB != nil {
			adminDB.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbConfig.DBName))
			adminDB.Close()
		}
	})

	return testDB
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func testRecord(date string, completed ...bool) *model.DailyRecord {
	record := &model.DailyRecord{Date: date, Tasks: []model.DailyTask{}}
	for i, done := range completed {
		name := fmt.Sprintf("Task %d", i)
		record.Tasks = append(record.Tasks, model.DailyTask{
			ID:        i,
			TaskEntry: model.TaskEntry{TaskName: name, TimeRange: "8:30", FullText: "8:30 (" + name + ")"},
			Completed: done,
		})
		record.TotalCount++
		if done {
			record.CompletedCount++
		}
	}
	return record
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

// exerciseStore runs the same contract against every ProgressStore
func exerciseStore(t *testing.T, store ProgressStore) {
	ctx := context.Background()
	day := mustDate(t, "2026-10-18")

	got, err := store.Get(ctx, day)
	if err != nil || got != nil {
		t.Fatalf("Get on empty store = %+v, %v; want nil, nil", got, err)
	}

	first := testRecord("2026-10-18", true, false)
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err = store.Get(ctx, day)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || len(got.Tasks) != 2 || got.CompletedCount != 1 || !got.Tasks[0].Completed {
		t.Fatalf("unexpected record %+v", got)
	}

	// a new extraction replaces the whole record
	if err := store.Save(ctx, testRecord("2026-10-18", false)); err != nil {
		t.Fatalf("Save replace: %v", err)
	}
	got, _ = store.Get(ctx, day)
	if len(got.Tasks) != 1 || got.CompletedCount != 0 {
		t.Errorf("record not replaced: %+v", got)
	}

	if err := store.Save(ctx, testRecord("2026-10-17", true)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all["progress_2026-10-17"] == nil || all["progress_2026-10-18"] == nil {
		t.Errorf("List keys = %v", all)
	}

	if err := store.Delete(ctx, day); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := store.Get(ctx, day); got != nil {
		t.Errorf("record still present after delete: %+v", got)
	}
	if err := store.Delete(ctx, day); err != nil {
		t.Errorf("deleting a missing record should not fail: %v", err)
	}

	if err := store.Save(ctx, &model.DailyRecord{Date: "18/10/2026"}); !errors.Is(err, model.ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}

	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestMemoryProgressStore(t *testing.T) {
	exerciseStore(t, NewMemoryProgressStore())
}

func TestMemoryProgressStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryProgressStore()
	record := testRecord("2026-10-18", false)
	if err := store.Save(ctx, record); err != nil {
		t.Fatal(err)
	}

	record.Tasks[0].Completed = true
	got, _ := store.Get(ctx, mustDate(t, "2026-10-18"))
	if got.Tasks[0].Completed {
		t.Error("store must not share task slices with callers")
	}

	got.Tasks[0].Completed = true
	again, _ := store.Get(ctx, mustDate(t, "2026-10-18"))
	if again.Tasks[0].Completed {
		t.Error("mutating a returned record must not affect the store")
	}

	if keys := store.Keys(); len(keys) != 1 || keys[0] != "progress_2026-10-18" {
		t.Errorf("Keys = %v", keys)
	}
}

func TestDecodeRecord(t *testing.T) {
	record, err := decodeRecord("progress_2026-10-18", []byte(`{"tasks":[{"id":0,"text":"8:30 (Gym)","taskName":"Gym","timeRange":"8:30","completed":true}],"completedCount":1,"totalCount":1,"percentage":100}`))
	if err != nil {
		t.Fatalf("decodeRecord: %v", err)
	}
	if record.Date != "2026-10-18" {
		t.Errorf("date should come from the key, got %q", record.Date)
	}
	if record.Tasks[0].FullText != "8:30 (Gym)" || record.Tasks[0].TimeRange != "8:30" {
		t.Errorf("unexpected task %+v", record.Tasks[0])
	}

	if _, err := decodeRecord("progress_2026-10-18", []byte(`{"tasks": "oops"`)); !errors.Is(err, model.ErrMalformedRecord) {
		t.Errorf("expected ErrMalformedRecord, got %v", err)
	}

	empty, err := decodeRecord("progress_2026-10-18", []byte(`{"date":"2026-10-18"}`))
	if err != nil || empty.Tasks == nil {
		t.Errorf("missing tasks should decode as empty list, got %+v, %v", empty, err)
	}
}

func TestProgressRepository(t *testing.T) {
	db := setupTestDB(t)
	exerciseStore(t, NewProgressRepository(db))
}

func TestProgressRepositoryMalformedRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO progress_records (storage_key, record_date, data) VALUES ($1, $2, $3)`,
		"progress_2026-10-01", "2026-10-01", `{"tasks": 42}`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := repo.Get(ctx, mustDate(t, "2026-10-01")); !errors.Is(err, model.ErrMalformedRecord) {
		t.Errorf("expected ErrMalformedRecord, got %v", err)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("malformed rows must be skipped by List, got %v", all)
	}
}

// Property: what is saved is what is read back
func TestProgressStoreRoundTripProperty(t *testing.T) {
	store := NewMemoryProgressStore()
	ctx := context.Background()
	base := mustDate(t, "2026-01-01")

	properties := gopter.NewProperties(nil)
	properties.Property("Get returns the saved completion flags", prop.ForAll(
		func(offset int, flags []bool) bool {
			date := base.AddDate(0, 0, offset)
			record := testRecord(date.Format(model.DateLayout), flags...)
			if err := store.Save(ctx, record); err != nil {
				return false
			}
			got, err := store.Get(ctx, date)
			if err != nil || got == nil || len(got.Tasks) != len(flags) {
				return false
			}
			for i, done := range flags {
				if got.Tasks[i].Completed != done {
					return false
				}
			}
			return got.CompletedCount == record.CompletedCount
		},
		gen.IntRange(0, 365),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
