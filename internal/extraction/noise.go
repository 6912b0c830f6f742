package extraction

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinLineLength is the shortest trimmed line that can carry a task
const MinLineLength = 4

// Rule is a named predicate over a trimmed line.
// Match receives the line lower-cased; rules are therefore case-insensitive.
type Rule struct {
	Name  string
	Match func(lower string) bool
}

// RegexRule builds a rule from a pattern. The pattern is compiled
// case-insensitive and matched against the lower-cased line.
func RegexRule(name, pattern string) (Rule, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return Rule{}, err
	}
	return Rule{Name: name, Match: re.MatchString}, nil
}

func mustRegexRule(name, pattern string) Rule {
	r, err := RegexRule(name, pattern)
	if err != nil {
		panic(err)
	}
	return r
}

const (
	fullDays  = `monday|tuesday|wednesday|thursday|friday|saturday|sunday`
	shortDays = `mon|tue|wed|thu|fri|sat|sun`
)

// Policy is an ordered set of noise rules. The first matching rule wins.
type Policy []Rule

// DefaultPolicy returns the built-in rejection catalog
func DefaultPolicy() Policy {
	return Policy{
		// Generic headers
		mustRegexRule("header_weekly_schedule", `weekly\s+schedule`),
		mustRegexRule("header_month_plan", `months?['’]?s?\s+plan`),
		mustRegexRule("header_time", `^time$`),
		mustRegexRule("header_tasks", `^tasks?$`),
		mustRegexRule("header_todays_tasks", `^today['’]?s?\s+tasks?`),
		mustRegexRule("header_pending", `^pending$`),
		mustRegexRule("ui_save_progress", `^save\s+progress$`),
		mustRegexRule("ui_clear_tasks", `^clear\s+tasks$`),

		// Calendar artifacts
		mustRegexRule("date_token", `\d{1,2}/\d{1,2}/\d{4}`),
		mustRegexRule("weekday_alone", `^(`+fullDays+`)$`),
		mustRegexRule("weekday_short_alone", `^(`+shortDays+`)$`),
		mustRegexRule("year_alone", `^\d{4}$`),
		mustRegexRule("numeric_only", `^[\d\s\-/]+$`),
		mustRegexRule("time_weekday_header", `^time\s+(`+fullDays+`)`),
		mustRegexRule("time_weekday_short_header", `^time\s+(`+shortDays+`)\b`),
		mustRegexRule("weekday_pair", `(`+fullDays+`)\s+(tuesday|wednesday|thursday|friday|saturday|sunday)`),
		mustRegexRule("weekday_short_pair", `\b(`+shortDays+`)\s+(tue|wed|thu|fri|sat|sun)\b`),
		mustRegexRule("weekday_row", `^(`+fullDays+`)(\s+(`+fullDays+`))*$`),
		mustRegexRule("weekday_short_row", `^(`+shortDays+`)(\s+(`+shortDays+`))*$`),

		// Headers repeated across columns
		{Name: "repeated_phrase", Match: hasRepeatedPhrase},
		mustRegexRule("repeated_run_101", `run\s+101\s+run\s+101`),
		mustRegexRule("repeated_gym_101", `gym\s+101\s+gym\s+101`),
		mustRegexRule("repeated_fs_201", `fs\s+201\s+fs\s+201`),
		mustRegexRule("repeated_fullstack", `fullstack\s+stuff\s+idk\s+fullstack\s+stuff\s+idk`),

		// Placeholders
		mustRegexRule("placeholder_empty", `^empty$`),
		mustRegexRule("placeholder_na", `^n/a$`),
		mustRegexRule("placeholder_dashes", `^-+$`),
		mustRegexRule("placeholder_dots", `^\.+$`),

		// Structural heuristics
		{Name: "weekday_density", Match: hasWeekdayDensity},
		{Name: "word_repetition", Match: isMostlyRepeated},
		{Name: "too_short", Match: isTooShort},
	}
}

// With returns a copy of the policy with extra rules appended
func (p Policy) With(extra ...Rule) Policy {
	out := make(Policy, 0, len(p)+len(extra))
	out = append(out, p...)
	return append(out, extra...)
}

// Classify returns the name of the first rule the line matches
func (p Policy) Classify(text string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, rule := range p {
		if rule.Match(lower) {
			return rule.Name, true
		}
	}
	return "", false
}

// IsNoise reports whether the line is structural noise under this policy
func (p Policy) IsNoise(text string) bool {
	_, noisy := p.Classify(text)
	return noisy
}

var defaultPolicy = DefaultPolicy()

// IsNoise reports whether the line is noise under the default policy
func IsNoise(text string) bool {
	return defaultPolicy.IsNoise(text)
}

var weekdayTokens = map[string]string{
	"monday": "mon", "mon": "mon",
	"tuesday": "tue", "tue": "tue",
	"wednesday": "wed", "wed": "wed",
	"thursday": "thu", "thu": "thu",
	"friday": "fri", "fri": "fri",
	"saturday": "sat", "sat": "sat",
	"sunday": "sun", "sun": "sun",
}

// hasWeekdayDensity matches header rows naming three or more different days
func hasWeekdayDensity(lower string) bool {
	seen := make(map[string]struct{}, 7)
	for _, word := range strings.Fields(lower) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r)
		})
		if day, ok := weekdayTokens[word]; ok {
			seen[day] = struct{}{}
		}
	}
	return len(seen) >= 3
}

// isMostlyRepeated catches garbled OCR output such as "RUN 101 RUN 101 RUN 101"
func isMostlyRepeated(lower string) bool {
	words := strings.Fields(lower)
	if len(words) <= 4 {
		return false
	}
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	return float64(len(unique)) < float64(len(words))/2
}

// hasRepeatedPhrase matches a phrase of at least two words immediately
// followed by itself ("gym 101 gym 101").
func hasRepeatedPhrase(lower string) bool {
	words := strings.Fields(lower)
	for size := 2; size*2 <= len(words); size++ {
		for start := 0; start+size*2 <= len(words); start++ {
			if equalWords(words[start:start+size], words[start+size:start+size*2]) {
				return true
			}
		}
	}
	return false
}

func equalWords(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isTooShort(lower string) bool {
	return utf8.RuneCountInString(lower) < MinLineLength
}
