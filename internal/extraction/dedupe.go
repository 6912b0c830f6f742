package extraction

import (
	"strings"

	"github.com/cleberrangel/schedule-progress-api/internal/model"
)

// Dedupe keeps the first entry for each task name, compared case-insensitively.
// Later duplicates are dropped even when their time range differs.
func Dedupe(entries []model.TaskEntry) []model.TaskEntry {
	seen := make(map[string]struct{}, len(entries))
	unique := make([]model.TaskEntry, 0, len(entries))

	for _, entry := range entries {
		key := strings.ToLower(entry.TaskName)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, entry)
	}

	return unique
}
