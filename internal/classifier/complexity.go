// Package classifier scores free-text legal queries for complexity and
// urgency to decide when a professional lawyer should be recommended.
package classifier

import (
	"regexp"
	"strings"
)

// Urgency levels, ordered. Urgency only ever moves upward during scoring.
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyMedium
	UrgencyHigh
	UrgencyEmergency
)

func (u Urgency) String() string {
	switch u {
	case UrgencyMedium:
		return "medium"
	case UrgencyHigh:
		return "high"
	case UrgencyEmergency:
		return "emergency"
	default:
		return "low"
	}
}

// Analysis is the result of scoring a single query. Immutable once produced.
type Analysis struct {
	Score       int      `json:"score"`
	Urgency     Urgency  `json:"-"`
	UrgencyName string   `json:"urgency"`
	Reasons     []string `json:"reasons"`
	NeedsLawyer bool     `json:"needs_lawyer"`
}

// rule is one scoring category. The first matching pattern wins for the
// category; a category contributes its delta at most once per query.
type rule struct {
	patterns     []*regexp.Regexp
	delta        int
	reason       string
	urgencyFloor Urgency
}

var emergencyPatterns = compileAll(
	`immediate danger`,
	`life threatening`,
	`being attacked`,
	`kidnapped`,
	`held captive`,
	`suicide`,
	`self harm`,
)

var rules = []rule{
	{
		patterns: compileAll(
			`criminal.*civil`,
			`property.*family`,
			`constitutional.*criminal`,
			`tax.*criminal`,
		),
		delta:  20,
		reason: "Multiple legal domains involved",
	},
	{
		patterns: compileAll(
			`murder|homicide|death`,
			`rape|sexual assault`,
			`kidnapping|abduction`,
			`terrorism|sedition`,
			`life imprisonment`,
			`death penalty|capital punishment`,
			`crore|lakh rupees`,
			`property worth`,
		),
		delta:        25,
		reason:       "High-stakes legal matter",
		urgencyFloor: UrgencyHigh,
	},
	{
		patterns: compileAll(
			`accused of|charged with|arrested for`,
			`facing charges|facing trial`,
		),
		delta:        20,
		reason:       "Criminal charges require professional defence",
		urgencyFloor: UrgencyMedium,
	},
	{
		patterns: compileAll(
			`multiple defendants`,
			`class action`,
			`joint family dispute`,
			`partnership dispute`,
			`corporate`,
		),
		delta:  15,
		reason: "Multiple parties involved",
	},
	{
		patterns: compileAll(
			`constitutional validity`,
			`supreme court`,
			`high court`,
			`landmark case`,
			`public interest litigation|PIL`,
		),
		delta:  30,
		reason: "Precedent-setting or constitutional matter",
	},
	{
		patterns: compileAll(
			`intellectual property|IP\b|patent|trademark|copyright`,
			`cyber crime|hacking|data breach`,
			`securities|stock market|SEBI`,
			`international law`,
			`arbitration`,
			`merger|acquisition`,
		),
		delta:  20,
		reason: "Technically complex legal area",
	},
	{
		patterns: compileAll(
			`arrest warrant`,
			`police custody`,
			`\bbail\b`,
			`anticipatory bail`,
			`injunction`,
			`stay order`,
			`tomorrow|today|urgent`,
		),
		delta:        10,
		reason:       "Time-sensitive matter",
		urgencyFloor: UrgencyMedium,
	},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// Analyze scores a query against the emergency patterns and the rule table.
// Threshold comparisons use the raw accumulated score; the returned Score is
// clamped to 100 for display.
func Analyze(query string) Analysis {
	if strings.TrimSpace(query) == "" {
		return Analysis{UrgencyName: UrgencyLow.String()}
	}

	// Emergency detection takes absolute precedence.
	for _, p := range emergencyPatterns {
		if p.MatchString(query) {
			return Analysis{
				Score:       100,
				Urgency:     UrgencyEmergency,
				UrgencyName: UrgencyEmergency.String(),
				Reasons:     []string{"Emergency situation detected"},
				NeedsLawyer: true,
			}
		}
	}

	score := 0
	urgency := UrgencyLow
	var reasons []string

	for _, r := range rules {
		for _, p := range r.patterns {
			if p.MatchString(query) {
				score += r.delta
				reasons = append(reasons, r.reason)
				if r.urgencyFloor > urgency {
					urgency = r.urgencyFloor
				}
				break
			}
		}
	}

	needsLawyer := score >= 40

	if score >= 70 && urgency < UrgencyHigh {
		urgency = UrgencyHigh
	} else if score >= 40 && urgency < UrgencyMedium {
		urgency = UrgencyMedium
	}

	display := score
	if display > 100 {
		display = 100
	}

	return Analysis{
		Score:       display,
		Urgency:     urgency,
		UrgencyName: urgency.String(),
		Reasons:     reasons,
		NeedsLawyer: needsLawyer,
	}
}

// IsEmergency reports whether the analysis calls for an immediate emergency
// response.
func IsEmergency(a Analysis) bool {
	return a.Urgency == UrgencyEmergency
}
