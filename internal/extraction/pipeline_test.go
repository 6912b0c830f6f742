package extraction

import (
	"reflect"
	"testing"

	"github.com/cleberrangel/schedule-progress-api/internal/model"
)

func TestExtract(t *testing.T) {
	lines := []string{
		"Weekly Schedule",
		"",
		"   ",
		"Time Monday Tuesday Wednesday Thursday Friday",
		"8:30 - 10:30 (Fullstack work IDK)",
		"8:30 Gym",
		"9:00 gym",
		"RUN 101 RUN 101 RUN 101",
		"  Study block (Algorithms)  ",
		"12:00",
		"Read a book",
	}

	got, stats := Default().ExtractWithStats(lines)

	want := []model.TaskEntry{
		{TaskName: "Fullstack work IDK", TimeRange: "8:30 - 10:30", FullText: "8:30 - 10:30 (Fullstack work IDK)"},
		{TaskName: "Gym", TimeRange: "8:30", FullText: "8:30 (Gym)"},
		{TaskName: "Algorithms", FullText: "Study block (Algorithms)"},
		{TaskName: "Read a book", FullText: "Read a book"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract =\n%+v\nwant\n%+v", got, want)
	}

	wantStats := Stats{Lines: 11, Blank: 2, Noise: 3, Unmatched: 1, Parsed: 4, Duplicates: 1}
	if stats != wantStats {
		t.Errorf("stats = %+v, want %+v", stats, wantStats)
	}
	if stats.Discarded() != 5 {
		t.Errorf("Discarded = %d, want 5", stats.Discarded())
	}
}

func TestExtractEmptyInput(t *testing.T) {
	got := Extract(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", got)
	}

	got = Extract([]string{"Weekly Schedule", "Monday", "---"})
	if len(got) != 0 {
		t.Errorf("expected no tasks from pure noise, got %+v", got)
	}
}

func TestSpreadsheetLines(t *testing.T) {
	rows := [][]string{
		{"Weekly Schedule"},
		{"Time", "Monday", "Tuesday"},
		{"8:30", "Gym", "Read a book"},
		{},
		{"9:00", "Code review", ""},
	}

	got := SpreadsheetLines(rows)
	want := []string{
		"Gym",
		"Read a book",
		"8:30 Gym Read a book",
		"Code review",
		"9:00 Code review ",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SpreadsheetLines =\n%q\nwant\n%q", got, want)
	}
}

func TestExtractRows(t *testing.T) {
	rows := [][]string{
		{"Weekly Schedule"},
		{"Time", "Monday", "Tuesday"},
		{"8:30", "Gym", "Read a book"},
		{},
		{"9:00", "Code review"},
	}

	got := ExtractRows(rows)
	want := []model.TaskEntry{
		{TaskName: "Read a book", FullText: "Read a book"},
		{TaskName: "Gym Read a book", TimeRange: "8:30", FullText: "8:30 (Gym Read a book)"},
		{TaskName: "Code review", FullText: "Code review"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractRows =\n%+v\nwant\n%+v", got, want)
	}
}

func TestExtractRowsSkipsHeaderRows(t *testing.T) {
	rows := [][]string{
		{"8:00", "Meditation session"},
		{"9:00", "Journal writing"},
	}
	if got := ExtractRows(rows); len(got) != 0 {
		t.Errorf("header rows must be skipped, got %+v", got)
	}
}

func TestPipelineWithExtraRules(t *testing.T) {
	lunch, err := RegexRule("lunch", `^lunch`)
	if err != nil {
		t.Fatal(err)
	}

	p := New(DefaultPolicy().With(lunch))
	got := p.Extract([]string{"Lunch break", "Read a book"})
	if len(got) != 1 || got[0].TaskName != "Read a book" {
		t.Errorf("expected only the book, got %+v", got)
	}
}

func TestExplain(t *testing.T) {
	tests := []struct {
		line     string
		blank    bool
		rule     string
		tier     string
		taskName string
	}{
		{line: "   ", blank: true, tier: "none"},
		{line: "Weekly Schedule", rule: "header_weekly_schedule", tier: "none"},
		{line: "RUN 101 RUN 101 RUN 101", rule: "repeated_phrase", tier: "none"},
		{line: "8:30 Gym", tier: "single_time", taskName: "Gym"},
		{line: "8:30 - 10:30 (Fullstack work IDK)", tier: "time_range", taskName: "Fullstack work IDK"},
		{line: "Study block (Algorithms)", tier: "bracketed", taskName: "Algorithms"},
		{line: "Read a book", tier: "plain_text", taskName: "Read a book"},
		{line: "12:00", tier: "none"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			exp := Default().Explain(tt.line)
			if exp.Blank != tt.blank {
				t.Errorf("Blank = %v, want %v", exp.Blank, tt.blank)
			}
			if exp.NoiseRule != tt.rule {
				t.Errorf("NoiseRule = %q, want %q", exp.NoiseRule, tt.rule)
			}
			if exp.Tier != tt.tier {
				t.Errorf("Tier = %q, want %q", exp.Tier, tt.tier)
			}
			switch {
			case tt.taskName == "" && exp.Entry != nil:
				t.Errorf("unexpected entry %+v", exp.Entry)
			case tt.taskName != "" && (exp.Entry == nil || exp.Entry.TaskName != tt.taskName):
				t.Errorf("entry = %+v, want task %q", exp.Entry, tt.taskName)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("a\r\nb\rc\nd")
	want := []string{"a", "b", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitLines = %q, want %q", got, want)
	}
}
