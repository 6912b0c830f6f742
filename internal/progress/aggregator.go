package progress

import (
	"context"
	"sync"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/logger"
	"github.com/cleberrangel/schedule-progress-api/internal/model"
)

// DefaultConcurrency is the number of parallel lookups per report
const DefaultConcurrency = 4

// Lookup returns the persisted record of a date, or nil when there is none
type Lookup func(ctx context.Context, date time.Time) (*model.DailyRecord, error)

// Report is the result of aggregating a window
type Report struct {
	Window            string            `json:"window,omitempty"`
	Start             string            `json:"start"`
	End               string            `json:"end"`
	Rows              []model.ReportRow `json:"rows"`
	TotalCompleted    int               `json:"totalCompleted"`
	TotalTasks        int               `json:"totalTasks"`
	AveragePercentage float64           `json:"averagePercentage"`
	HasData           bool              `json:"hasData"`
}

// Average returns the mean percentage; ok is false when no day had data
func (r Report) Average() (float64, bool) {
	return r.AveragePercentage, r.HasData
}

// Aggregator builds reports from per-date lookups
type Aggregator struct {
	Concurrency int
}

// BuildReport aggregates a range with the default concurrency
func BuildReport(ctx context.Context, start, end time.Time, lookup Lookup) Report {
	return Aggregator{}.BuildReport(ctx, start, end, lookup)
}

// BuildWindow aggregates a named window
func (a Aggregator) BuildWindow(ctx context.Context, w Window, lookup Lookup) Report {
	report := a.BuildReport(ctx, w.Start, w.End, lookup)
	report.Window = w.Name
	return report
}

// BuildReport visits every day from start to end inclusive. Days without a
// record are skipped; failed or cancelled lookups count as no data.
func (a Aggregator) BuildReport(ctx context.Context, start, end time.Time, lookup Lookup) Report {
	days := Days(start, end)
	rows := make([]*model.ReportRow, len(days))

	workers := a.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, day := range days {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, day time.Time) {
			defer wg.Done()
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			record, err := lookup(ctx, day)
			if err != nil {
				logger.Get(ctx).Warn().
					Err(err).
					Str("date", day.Format(model.DateLayout)).
					Msg("Registro ignorado no relatório")
				return
			}
			if record == nil {
				return
			}

			row := Summary(record)
			row.Date = day.Format(model.DateLayout)
			rows[i] = &row
		}(i, day)
	}
	wg.Wait()

	report := Report{
		Start: StartOfDay(start).Format(model.DateLayout),
		End:   StartOfDay(end).Format(model.DateLayout),
		Rows:  make([]model.ReportRow, 0, len(days)),
	}

	sum := 0
	for _, row := range rows {
		if row == nil {
			continue
		}
		report.Rows = append(report.Rows, *row)
		report.TotalCompleted += row.CompletedCount
		report.TotalTasks += row.TotalCount
		sum += row.Percentage
	}

	if n := len(report.Rows); n > 0 {
		report.HasData = true
		report.AveragePercentage = float64(sum) / float64(n)
	}

	return report
}
