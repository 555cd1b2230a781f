// Package validator runs heuristic bias, formatting and quality checks over
// assembled assistant answers. It is a surface-pattern checker, not a model;
// failures are a telemetry signal, never a hard block on showing the answer.
package validator

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Category string

const (
	CategoryBias       Category = "bias"
	CategoryFormatting Category = "formatting"
	CategoryQuality    Category = "quality"
)

type Issue struct {
	Category   Category `json:"category"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion"`
}

// Result holds the outcome of validating one response.
type Result struct {
	Score   int     `json:"score"`
	Issues  []Issue `json:"issues"`
	IsValid bool    `json:"is_valid"`
}

// minResponseLength is the character threshold below which an answer is
// flagged as too brief to be useful legal guidance.
const minResponseLength = 500

// biasFamilies map a family name to its patterns. Any match within a family
// produces exactly one high-severity issue for that family.
var biasFamilies = []struct {
	name     string
	patterns []*regexp.Regexp
}{
	{"gender", compileAll(
		`\b(women are|men are|girls are|boys are)\b`,
		`\b(typical woman|typical man)\b`,
		`\b(like a woman|like a man)\b`,
		`\b(emotional woman|aggressive man)\b`,
	)},
	{"caste", compileAll(
		`\b(upper caste|lower caste|scheduled caste|SC|ST|OBC)\b`,
		`\b(brahmin|dalit|shudra)\b`,
	)},
	{"religion", compileAll(
		`\b(muslims are|hindus are|christians are)\b`,
		`\b(typical muslim|typical hindu)\b`,
	)},
	{"region", compileAll(
		`\b(north indians are|south indians are)\b`,
		`\b(typical northerner|typical southerner)\b`,
	)},
	{"economic", compileAll(
		`\b(poor people|rich people)\s+(are|can't|don't)\b`,
		`\b(you probably can't afford)\b`,
	)},
	{"stereotypes", compileAll(
		`\b(all|every|always|never)\s+(women|men|muslims|hindus|poor|rich)\b`,
		`\b(naturally|obviously|typically)\s+(emotional|aggressive|submissive)\b`,
	)},
}

var (
	stepPattern     = regexp.MustCompile(`(?i)Step \d+:`)
	actionIcons     = regexp.MustCompile(`✓|📍|👤|📄|⏰|💰|🔄|⚠️`)
	sectionPattern  = regexp.MustCompile(`##\s+\d+\.`)
	citationPattern = regexp.MustCompile(`(?i)BNS|BSA|BNSS|Section \d+`)
)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// Validate checks a response for bias, formatting and quality. Each check
// deducts from a starting score of 100; the score never drops below 0.
func Validate(response string) Result {
	var issues []Issue
	score := 100

	for _, family := range biasFamilies {
		for _, p := range family.patterns {
			if p.MatchString(response) {
				issues = append(issues, Issue{
					Category:   CategoryBias,
					Severity:   SeverityHigh,
					Message:    fmt.Sprintf("Potential %s bias detected", family.name),
					Suggestion: "Remove stereotypical language and provide neutral guidance",
				})
				score -= 20
				break
			}
		}
	}

	if !stepPattern.MatchString(response) {
		issues = append(issues, Issue{
			Category:   CategoryFormatting,
			Severity:   SeverityMedium,
			Message:    "Missing step-by-step format",
			Suggestion: "Response should include numbered steps (Step 1:, Step 2:, etc.)",
		})
		score -= 15
	}

	if !actionIcons.MatchString(response) {
		issues = append(issues, Issue{
			Category:   CategoryFormatting,
			Severity:   SeverityLow,
			Message:    "Missing action item indicators",
			Suggestion: "Include icons for clarity (✓, 📍, 👤, 📄, etc.)",
		})
		score -= 5
	}

	if !sectionPattern.MatchString(response) {
		issues = append(issues, Issue{
			Category:   CategoryFormatting,
			Severity:   SeverityMedium,
			Message:    "Missing section headers",
			Suggestion: "Use numbered section headers (## 1., ## 2., etc.)",
		})
		score -= 10
	}

	if !citationPattern.MatchString(response) {
		issues = append(issues, Issue{
			Category:   CategoryQuality,
			Severity:   SeverityMedium,
			Message:    "Missing legal citations",
			Suggestion: "Include specific BNS/BSA/BNSS section references",
		})
		score -= 10
	}

	// Counted in runes: Indic scripts take three bytes per character and
	// must not get a looser threshold.
	if utf8.RuneCountInString(response) < minResponseLength {
		issues = append(issues, Issue{
			Category:   CategoryQuality,
			Severity:   SeverityMedium,
			Message:    "Response too brief",
			Suggestion: "Provide more detailed guidance",
		})
		score -= 10
	}

	if score < 0 {
		score = 0
	}

	return Result{
		Score:   score,
		Issues:  issues,
		IsValid: score >= 70 && !hasHighSeverity(issues),
	}
}

func hasHighSeverity(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// NeedsRegeneration reports whether the response contains high-severity bias.
// The caller logs and surfaces a quality notice; the LLM is not re-invoked
// automatically.
func NeedsRegeneration(r Result) bool {
	for _, i := range r.Issues {
		if i.Category == CategoryBias && i.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// Feedback summarises a result for logging and user-facing notices.
func Feedback(r Result) string {
	if r.IsValid {
		return "Response meets quality standards"
	}

	var high []string
	for _, i := range r.Issues {
		if i.Severity == SeverityHigh {
			high = append(high, i.Message)
		}
	}
	if len(high) > 0 {
		msg := "Critical issues detected: " + high[0]
		for _, m := range high[1:] {
			msg += ", " + m
		}
		return msg
	}

	return fmt.Sprintf("Quality score: %d/100. %d issues found.", r.Score, len(r.Issues))
}
