package extraction

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cleberrangel/schedule-progress-api/internal/model"
)

// Tier identifies which pattern produced an entry
type Tier int

const (
	TierNone Tier = iota
	TierTimeRange
	TierSingleTime
	TierBracketed
	TierPlainText
)

func (t Tier) String() string {
	switch t {
	case TierTimeRange:
		return "time_range"
	case TierSingleTime:
		return "single_time"
	case TierBracketed:
		return "bracketed"
	case TierPlainText:
		return "plain_text"
	default:
		return "none"
	}
}

var (
	// "8:30 - 10:30 (Fullstack work IDK)" or "8:30–10:30 Fullstack work"
	timeRangePattern = regexp.MustCompile(`(\d{1,2}:\d{2})\s*[-–]\s*(\d{1,2}:\d{2})\s*[\(\[]?(.*?)[\)\]]?$`)

	// "8:30 Gym" or "8:30 (Gym)"
	singleTimePattern = regexp.MustCompile(`^(\d{1,2}:\d{2})\s+(.+)$`)

	// "Study block (Algorithms)"
	bracketedPattern = regexp.MustCompile(`^(.+?)[\(\[](.+?)[\)\]]?$`)

	meridiemPattern  = regexp.MustCompile(`(?i)^(am|pm)$`)
	numericLikeToken = regexp.MustCompile(`^\d+[:.\-\s]*\d*$`)
)

// tierFunc tries one shape; ok is false when the shape does not match or
// the captured text fails validation.
type tierFunc func(text string) (model.TaskEntry, bool)

// Parser classifies a cleaned line into a task entry using ordered tiers
type Parser struct {
	tiers []struct {
		tier Tier
		fn   tierFunc
	}
}

// NewParser creates a parser with the four tiers in priority order
func NewParser() *Parser {
	p := &Parser{}
	p.add(TierTimeRange, parseTimeRange)
	p.add(TierSingleTime, parseSingleTime)
	p.add(TierBracketed, parseBracketed)
	p.add(TierPlainText, parsePlainText)
	return p
}

func (p *Parser) add(tier Tier, fn tierFunc) {
	p.tiers = append(p.tiers, struct {
		tier Tier
		fn   tierFunc
	}{tier, fn})
}

// Parse returns the entry of the first tier that matches and validates
func (p *Parser) Parse(text string) (model.TaskEntry, bool) {
	entry, tier := p.Classify(text)
	return entry, tier != TierNone
}

// Classify is Parse plus the tier that produced the entry
func (p *Parser) Classify(text string) (model.TaskEntry, Tier) {
	text = strings.TrimSpace(text)
	for _, t := range p.tiers {
		if entry, ok := t.fn(text); ok {
			return entry, t.tier
		}
	}
	return model.TaskEntry{}, TierNone
}

var defaultParser = NewParser()

// Parse classifies a line with the default parser
func Parse(text string) (model.TaskEntry, bool) {
	return defaultParser.Parse(text)
}

func parseTimeRange(text string) (model.TaskEntry, bool) {
	m := timeRangePattern.FindStringSubmatch(text)
	if m == nil {
		return model.TaskEntry{}, false
	}

	name := strings.TrimSpace(m[3])
	if name == "" {
		return model.TaskEntry{}, false
	}

	timeRange := fmt.Sprintf("%s - %s", m[1], m[2])
	return model.TaskEntry{
		TaskName:  name,
		TimeRange: timeRange,
		FullText:  fmt.Sprintf("%s (%s)", timeRange, name),
	}, true
}

func parseSingleTime(text string) (model.TaskEntry, bool) {
	m := singleTimePattern.FindStringSubmatch(text)
	if m == nil {
		return model.TaskEntry{}, false
	}

	// fullText wraps the name in brackets again, so it must be balanced
	name := dropUnmatchedBrackets(strings.TrimSpace(unwrapBrackets(strings.TrimSpace(m[2]))))
	if utf8.RuneCountInString(name) <= 2 || meridiemPattern.MatchString(name) {
		return model.TaskEntry{}, false
	}

	return model.TaskEntry{
		TaskName:  name,
		TimeRange: m[1],
		FullText:  fmt.Sprintf("%s (%s)", m[1], name),
	}, true
}

func parseBracketed(text string) (model.TaskEntry, bool) {
	m := bracketedPattern.FindStringSubmatch(text)
	if m == nil {
		return model.TaskEntry{}, false
	}

	name := strings.TrimSpace(m[2])
	if utf8.RuneCountInString(name) <= 2 {
		return model.TaskEntry{}, false
	}

	return model.TaskEntry{
		TaskName: name,
		FullText: text,
	}, true
}

func parsePlainText(text string) (model.TaskEntry, bool) {
	if utf8.RuneCountInString(text) < MinLineLength {
		return model.TaskEntry{}, false
	}
	if !containsASCIILetter(text) || numericLikeToken.MatchString(text) {
		return model.TaskEntry{}, false
	}
	if !hasRealWord(text) {
		return model.TaskEntry{}, false
	}

	return model.TaskEntry{
		TaskName: text,
		FullText: text,
	}, true
}

// unwrapBrackets removes one pair of brackets enclosing the whole string,
// so "(Gym)" becomes "Gym" but "Call (mom)" is kept as is.
func unwrapBrackets(s string) string {
	if len(s) < 2 {
		return s
	}
	open, closing := s[0], s[len(s)-1]
	if !(open == '(' && closing == ')') && !(open == '[' && closing == ']') {
		return s
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth == 0 && i != len(s)-1 {
				return s
			}
		}
	}
	if depth != 0 {
		return s
	}
	return s[1 : len(s)-1]
}

// dropUnmatchedBrackets removes brackets without a partner, common in OCR
// output: "Gym)" and "(Gym" become "Gym", "(a] b" becomes "a b".
func dropUnmatchedBrackets(s string) string {
	var stack []int
	unmatched := make(map[int]bool)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			stack = append(stack, i)
		case ')', ']':
			open := byte('(')
			if s[i] == ']' {
				open = '['
			}
			if len(stack) > 0 && s[stack[len(stack)-1]] == open {
				stack = stack[:len(stack)-1]
			} else {
				unmatched[i] = true
			}
		}
	}
	for _, i := range stack {
		unmatched[i] = true
	}
	if len(unmatched) == 0 {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if !unmatched[i] {
			b.WriteByte(s[i])
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func containsASCIILetter(s string) bool {
	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// hasRealWord reports whether any space-separated word is longer than two characters
func hasRealWord(s string) bool {
	for _, word := range strings.Split(s, " ") {
		if utf8.RuneCountInString(word) > 2 {
			return true
		}
	}
	return false
}
