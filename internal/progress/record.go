// Package progress manages per-day completion state and builds reports over
// persisted daily records.
package progress

import (
	"fmt"
	"math"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/model"
)

// Percentage returns round(100*completed/total), or 0 when total is 0
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// NewRecord creates a fresh record for a date. Ids follow extraction order
// starting at 0 and every task starts pending.
func NewRecord(date time.Time, entries []model.TaskEntry) *model.DailyRecord {
	tasks := make([]model.DailyTask, len(entries))
	for i, entry := range entries {
		tasks[i] = model.DailyTask{ID: i, TaskEntry: entry}
	}

	record := &model.DailyRecord{
		Date:  date.Format(model.DateLayout),
		Tasks: tasks,
	}
	Recount(record)
	return record
}

// EmptyRecord returns a record with no tasks for a date
func EmptyRecord(date time.Time) *model.DailyRecord {
	return NewRecord(date, nil)
}

// Recount recomputes counters and percentage from the task list
func Recount(record *model.DailyRecord) {
	completed := 0
	for _, task := range record.Tasks {
		if task.Completed {
			completed++
		}
	}
	record.CompletedCount = completed
	record.TotalCount = len(record.Tasks)
	record.Percentage = Percentage(completed, record.TotalCount)
}

// Toggle sets the completion flag of a single task
func Toggle(record *model.DailyRecord, id int, completed bool) error {
	for i := range record.Tasks {
		if record.Tasks[i].ID == id {
			record.Tasks[i].Completed = completed
			Recount(record)
			return nil
		}
	}
	return fmt.Errorf("id %d: %w", id, model.ErrTaskNotFound)
}

// ApplyCompletion applies the states sent by a client. Unknown ids fail the
// whole operation and leave the record untouched.
func ApplyCompletion(record *model.DailyRecord, states []model.CompletionState) error {
	index := make(map[int]int, len(record.Tasks))
	for i, task := range record.Tasks {
		index[task.ID] = i
	}

	for _, state := range states {
		if _, ok := index[state.ID]; !ok {
			return fmt.Errorf("id %d: %w", state.ID, model.ErrTaskNotFound)
		}
	}

	for _, state := range states {
		record.Tasks[index[state.ID]].Completed = state.Completed
	}
	Recount(record)
	return nil
}

// Summary derives the report row of a record
func Summary(record *model.DailyRecord) model.ReportRow {
	completed := 0
	for _, task := range record.Tasks {
		if task.Completed {
			completed++
		}
	}
	total := len(record.Tasks)

	// records written by older clients may carry counters without tasks
	if total == 0 && record.TotalCount > 0 {
		completed, total = record.CompletedCount, record.TotalCount
	}

	return model.ReportRow{
		Date:           record.Date,
		CompletedCount: completed,
		TotalCount:     total,
		Percentage:     Percentage(completed, total),
	}
}
