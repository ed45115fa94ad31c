package extract

import (
	"regexp"
	"strings"
)

// maxTitleLines bounds how much adjacent print a title span can absorb.
const maxTitleLines = 3

var defaultTitleKeywords = []string{
	"ミュージカル",
	"コンサート",
	"ライブ",
	"公演",
	"レ・ミゼラブル",
	"LES MISERABLES",
	"WORLD TOUR",
	"ワールドツアー",
	"スペクタキュラー",
	"スペクタクル",
}

// Lines matching any of these end a title span: credits, sponsorship, inquiries, URLs,
// outlets, payment slips, seat labels, tax and resale notices, ticket agencies.
var defaultStopPatterns = []string{
	"主催", "招聘", "製作", "制作", "共同制作", "企画", "協賛", "協力",
	"お問い合わせ", "お問合せ", "問合せ",
	`HP[:：]`, `https?://`, `TEL[:：]`,
	"発券店", "払込票",
	"指定席", "自由席", "席", "扉", "列", "番",
	"消費税込", "特定チケット", "転売",
	"CNプレイガイド", "セブン-イレブン",
}

func compileStopPatterns(patterns []string) (*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return nil, err
		}
	}
	return regexp.Compile(`(?i)(?:` + strings.Join(patterns, "|") + `)`)
}

// Title finds the first line carrying a title keyword and extends the span over following
// title-like lines. Without an anchor it falls back to the first upper-case English line.
func (e *Extractor) Title(text string) *string {
	lines := SplitLines(text)
	start := -1
	for i, line := range lines {
		if containsAny(line, e.titleKeywords) {
			start = i
			break
		}
	}
	if start == -1 {
		for _, line := range lines {
			if isUpperEnglish(line) {
				return nonEmpty(CollapseSpace(line))
			}
		}
		return nil
	}

	parts := make([]string, 0, maxTitleLines)
	for _, line := range lines[start:] {
		if e.isStopLine(line) || !e.isTitleLine(line) {
			break
		}
		parts = append(parts, line)
		if len(parts) >= maxTitleLines {
			break
		}
	}
	return nonEmpty(CollapseSpace(strings.Join(parts, " ")))
}

func (e *Extractor) isStopLine(line string) bool {
	return e.stop != nil && e.stop.MatchString(line)
}

func (e *Extractor) isTitleLine(line string) bool {
	return containsAny(line, e.titleKeywords) ||
		strings.ContainsAny(line, "『』") ||
		isUpperEnglish(line)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
