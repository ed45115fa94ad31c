package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// Unicode-aware character classes: OCR of Japanese print yields full-width digits and
// ideographic spaces, which RE2's ASCII \d and \s would miss. reSpace matches the same
// runes as isSpace.
const (
	reSpace = `[\s\x{0b}\x{1c}-\x{1f}\p{Z}\x{85}]*`
	reDigit = `\p{Nd}`
	reYear  = `[2２][0０]` + reDigit + `{2}`
)

var defaultDateRules = []DateRuleSpec{
	{
		// 2025年8月10日 / 2025-8-10 / 2025.8.10 / 2025/8/10
		Name: "ymd",
		Pattern: `(?P<y>` + reYear + `)` + reSpace + `[./年-]` + reSpace +
			`(?P<m>` + reDigit + `{1,2})` + reSpace + `[./月-]` + reSpace +
			`(?P<d>` + reDigit + `{1,2})`,
	},
	{
		// 8月10日(日)2025年
		Name: "md-y",
		Pattern: `(?P<m>` + reDigit + `{1,2})` + reSpace + `月` + reSpace +
			`(?P<d>` + reDigit + `{1,2})` + reSpace + `日(?:\([^)]+\)|（[^）]+）)?` + reSpace +
			`(?P<y>` + reYear + `)` + reSpace + `年?`,
	},
	{
		// 25年8月10日
		Name: "yy-md",
		Pattern: `(?P<yy>` + reDigit + `{2})` + reSpace + `年` + reSpace +
			`(?P<m>` + reDigit + `{1,2})` + reSpace + `月` + reSpace +
			`(?P<d>` + reDigit + `{1,2})`,
	},
}

// CandidateDate is one validated date match.
type CandidateDate struct {
	Date   Date
	Offset int // rune offset of the match start in the scanned text
	Rule   string
}

// DateRule is a compiled date matcher. The pattern names its groups y (four-digit year) or
// yy (two-digit year, read as 20yy), m and d.
type DateRule struct {
	name    string
	re      *regexp.Regexp
	yearIdx int
	twoYear bool
	monIdx  int
	dayIdx  int
}

// CompileDateRule compiles spec and checks it exposes the groups the matcher reads.
func CompileDateRule(spec DateRuleSpec) (*DateRule, error) {
	re, err := regexp.Compile(spec.Pattern)
	if err != nil {
		return nil, fmt.Errorf("date rule %q: %w", spec.Name, err)
	}
	rule := &DateRule{
		name:    spec.Name,
		re:      re,
		yearIdx: re.SubexpIndex("y"),
		monIdx:  re.SubexpIndex("m"),
		dayIdx:  re.SubexpIndex("d"),
	}
	if yy := re.SubexpIndex("yy"); yy >= 0 {
		if rule.yearIdx >= 0 {
			return nil, fmt.Errorf("date rule %q: groups y and yy are mutually exclusive", spec.Name)
		}
		rule.yearIdx = yy
		rule.twoYear = true
	}
	if rule.yearIdx < 0 || rule.monIdx < 0 || rule.dayIdx < 0 {
		return nil, fmt.Errorf("date rule %q: pattern must name groups y|yy, m and d", spec.Name)
	}
	return rule, nil
}

func (r *DateRule) Name() string {
	return r.name
}

// Match returns every valid calendar date the rule finds in text. Matches whose groups do
// not form a real date are dropped.
func (r *DateRule) Match(text string) []CandidateDate {
	var out []CandidateDate
	runes, scanned := 0, 0
	for _, loc := range r.re.FindAllStringSubmatchIndex(text, -1) {
		year, ok := submatchInt(text, loc, r.yearIdx)
		if !ok {
			continue
		}
		if r.twoYear {
			year += 2000
		}
		month, ok := submatchInt(text, loc, r.monIdx)
		if !ok {
			continue
		}
		day, ok := submatchInt(text, loc, r.dayIdx)
		if !ok {
			continue
		}
		date, ok := NewDate(year, month, day)
		if !ok {
			continue
		}
		runes += utf8.RuneCountInString(text[scanned:loc[0]])
		scanned = loc[0]
		out = append(out, CandidateDate{Date: date, Offset: runes, Rule: r.name})
	}
	return out
}

func submatchInt(text string, loc []int, idx int) (int, bool) {
	start, end := loc[2*idx], loc[2*idx+1]
	if start < 0 || end <= start {
		return 0, false
	}
	n, err := strconv.Atoi(width.Narrow.String(text[start:end]))
	if err != nil {
		return 0, false
	}
	return n, true
}

// CollectDates runs every date rule over the whole text, in rule order.
func (e *Extractor) CollectDates(text string) []CandidateDate {
	var out []CandidateDate
	for _, rule := range e.dateRules {
		out = append(out, rule.Match(text)...)
	}
	return out
}

// EventDate returns the latest date found in text. Tickets also print issue and sale-start
// dates, which precede the performance.
func (e *Extractor) EventDate(text string) *Date {
	return latestDate(e.CollectDates(text))
}

func latestDate(candidates []CandidateDate) *Date {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0].Date
	for _, c := range candidates[1:] {
		if best.Before(c.Date) {
			best = c.Date
		}
	}
	return &best
}
