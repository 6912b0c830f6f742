// Package extraction turns flattened document text into task entries.
//
// Each line goes through the noise policy, then the tiered parser; the
// surviving entries are deduplicated by task name. Everything here is pure
// and safe to call from any goroutine.
package extraction

import (
	"strings"

	"github.com/cleberrangel/schedule-progress-api/internal/model"
)

// HeaderRows is the number of leading spreadsheet rows skipped as headers
const HeaderRows = 2

// Stats counts what happened to the input lines of one extraction
type Stats struct {
	Lines      int `json:"lines"`
	Blank      int `json:"blank"`
	Noise      int `json:"noise"`
	Unmatched  int `json:"unmatched"`
	Parsed     int `json:"parsed"`
	Duplicates int `json:"duplicates"`
}

// Discarded returns how many non-blank lines produced no entry
func (s Stats) Discarded() int {
	return s.Noise + s.Unmatched + s.Duplicates
}

// Pipeline combines a noise policy and a parser
type Pipeline struct {
	policy Policy
	parser *Parser
}

// New creates a pipeline with the given noise policy
func New(policy Policy) *Pipeline {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Pipeline{
		policy: policy,
		parser: NewParser(),
	}
}

var defaultPipeline = New(nil)

// Default returns the pipeline using the built-in policy
func Default() *Pipeline {
	return defaultPipeline
}

// Extract runs the default pipeline over raw lines
func Extract(lines []string) []model.TaskEntry {
	return defaultPipeline.Extract(lines)
}

// ExtractRows runs the default pipeline over spreadsheet rows
func ExtractRows(rows [][]string) []model.TaskEntry {
	return defaultPipeline.ExtractRows(rows)
}

// Extract filters, parses and deduplicates raw lines
func (p *Pipeline) Extract(lines []string) []model.TaskEntry {
	entries, _ := p.ExtractWithStats(lines)
	return entries
}

// ExtractWithStats is Extract plus per-stage counters
func (p *Pipeline) ExtractWithStats(lines []string) ([]model.TaskEntry, Stats) {
	stats := Stats{Lines: len(lines)}
	entries := make([]model.TaskEntry, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			stats.Blank++
			continue
		}

		if p.policy.IsNoise(line) {
			stats.Noise++
			continue
		}

		entry, ok := p.parser.Parse(line)
		if !ok {
			stats.Unmatched++
			continue
		}

		entries = append(entries, entry)
	}

	unique := Dedupe(entries)
	stats.Duplicates = len(entries) - len(unique)
	stats.Parsed = len(unique)

	return unique, stats
}

// ExtractRows extracts from spreadsheet rows (see SpreadsheetLines)
func (p *Pipeline) ExtractRows(rows [][]string) []model.TaskEntry {
	entries, _ := p.ExtractRowsWithStats(rows)
	return entries
}

// ExtractRowsWithStats is ExtractRows plus per-stage counters
func (p *Pipeline) ExtractRowsWithStats(rows [][]string) ([]model.TaskEntry, Stats) {
	return p.ExtractWithStats(SpreadsheetLines(rows))
}

// SpreadsheetLines flattens rows into candidate lines. The first HeaderRows
// rows and empty rows are skipped; every cell from column 1 on is a
// candidate, followed by the whole row joined by single spaces.
func SpreadsheetLines(rows [][]string) []string {
	var lines []string
	for i, row := range rows {
		if i < HeaderRows || len(row) == 0 {
			continue
		}

		for col, cell := range row {
			if col == 0 {
				continue
			}
			if strings.TrimSpace(cell) != "" {
				lines = append(lines, cell)
			}
		}

		lines = append(lines, strings.Join(row, " "))
	}
	return lines
}

// SplitLines splits decoded document text into raw lines
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// Explanation describes how a single line was classified
type Explanation struct {
	Line      string           `json:"line"`
	Blank     bool             `json:"blank,omitempty"`
	NoiseRule string           `json:"noise_rule,omitempty"`
	Tier      string           `json:"tier"`
	Entry     *model.TaskEntry `json:"entry,omitempty"`
}

// Explain classifies one line without deduplication
func (p *Pipeline) Explain(line string) Explanation {
	line = strings.TrimSpace(line)
	exp := Explanation{Line: line, Tier: TierNone.String()}

	if line == "" {
		exp.Blank = true
		return exp
	}

	if rule, noisy := p.policy.Classify(line); noisy {
		exp.NoiseRule = rule
		return exp
	}

	entry, tier := p.parser.Classify(line)
	exp.Tier = tier.String()
	if tier != TierNone {
		exp.Entry = &entry
	}
	return exp
}
