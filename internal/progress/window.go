package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/model"
)

// MaxWindowDays bounds custom report ranges
const MaxWindowDays = 366

// Window is an inclusive range of calendar days
type Window struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Weekly covers today and the seven days before it
func Weekly(today time.Time) Window {
	end := StartOfDay(today)
	return Window{Name: "weekly", Start: end.AddDate(0, 0, -7), End: end}
}

// Monthly covers the first day of the current month through today
func Monthly(today time.Time) Window {
	end := StartOfDay(today)
	start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location())
	return Window{Name: "monthly", Start: start, End: end}
}

// Custom validates an arbitrary range
func Custom(start, end time.Time) (Window, error) {
	start, end = StartOfDay(start), StartOfDay(end)
	if end.Before(start) {
		return Window{}, fmt.Errorf("início %s após fim %s: %w",
			start.Format(model.DateLayout), end.Format(model.DateLayout), model.ErrInvalidWindow)
	}
	if start.AddDate(0, 0, MaxWindowDays-1).Before(end) {
		return Window{}, fmt.Errorf("mais de %d dias: %w", MaxWindowDays, model.ErrInvalidWindow)
	}
	return Window{Name: "custom", Start: start, End: end}, nil
}

// Named resolves "weekly" or "monthly" relative to today
func Named(name string, today time.Time) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "weekly", "week", "semanal":
		return Weekly(today), nil
	case "monthly", "month", "mensal":
		return Monthly(today), nil
	default:
		return Window{}, fmt.Errorf("janela %q desconhecida: %w", name, model.ErrInvalidWindow)
	}
}

// Days lists every calendar day from start to end inclusive
func (w Window) Days() []time.Time {
	return Days(w.Start, w.End)
}

// Days lists every calendar day from start to end inclusive, ascending
func Days(start, end time.Time) []time.Time {
	start, end = StartOfDay(start), StartOfDay(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// StartOfDay returns midnight of t in t's location
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseDate parses a YYYY-MM-DD date in loc
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(model.DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", s, model.ErrInvalidDate)
	}
	return d, nil
}
