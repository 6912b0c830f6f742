package extraction

import (
	"reflect"
	"strings"
	"testing"

	"github.com/cleberrangel/schedule-progress-api/internal/model"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDedupeKeepsFirst(t *testing.T) {
	entries := []model.TaskEntry{
		{TaskName: "Gym", TimeRange: "8:30", FullText: "8:30 (Gym)"},
		{TaskName: "Read a book", FullText: "Read a book"},
		{TaskName: "gym", TimeRange: "18:00", FullText: "18:00 (gym)"},
		{TaskName: "READ A BOOK", FullText: "READ A BOOK"},
	}

	got := Dedupe(entries)
	want := entries[:2]
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Dedupe = %+v, want %+v", got, want)
	}
}

func TestDedupeEmpty(t *testing.T) {
	if got := Dedupe(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %+v", got)
	}
}

// Property: dedupe is idempotent and keeps first-seen key order
func TestDedupeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	genEntries := gen.SliceOf(gen.OneConstOf("Gym", "gym", "GYM", "Read", "read", "Code review", "code Review", "Walk")).
		Map(func(names []string) []model.TaskEntry {
			entries := make([]model.TaskEntry, len(names))
			for i, n := range names {
				entries[i] = model.TaskEntry{TaskName: n, FullText: n}
			}
			return entries
		})

	properties.Property("dedupe(dedupe(x)) == dedupe(x)", prop.ForAll(
		func(entries []model.TaskEntry) bool {
			once := Dedupe(entries)
			return reflect.DeepEqual(Dedupe(once), once)
		},
		genEntries,
	))

	properties.Property("first-seen order of unique keys is preserved", prop.ForAll(
		func(entries []model.TaskEntry) bool {
			var order []string
			seen := map[string]bool{}
			for _, e := range entries {
				key := strings.ToLower(e.TaskName)
				if !seen[key] {
					seen[key] = true
					order = append(order, e.TaskName)
				}
			}

			got := Dedupe(entries)
			if len(got) != len(order) {
				return false
			}
			for i := range got {
				if got[i].TaskName != order[i] {
					return false
				}
			}
			return true
		},
		genEntries,
	))

	properties.TestingRun(t)
}
