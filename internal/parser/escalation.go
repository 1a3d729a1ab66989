package parser

import "strings"

const (
	EscalationHigh   = "high"
	EscalationNormal = "normal"
)

// escalationKeywords is the urgency rule table. Any match in summary or
// intent wins; there is no scoring.
var escalationKeywords = []string{
	"emergency", "stranded", "accident", "tow", "unsafe",
	"angry", "frustrated", "complaint", "manager", "supervisor",
	"urgent", "asap", "immediately",
}

// DeriveEscalation classifies a call for operational triage: any urgency
// keyword in the summary or intent, or an Emergency intent, marks the
// row high priority.
func DeriveEscalation(summary, intent string) string {
	haystack := strings.ToLower(summary + " " + intent)
	for _, kw := range escalationKeywords {
		if strings.Contains(haystack, kw) {
			return EscalationHigh
		}
	}
	if strings.EqualFold(intent, "Emergency") {
		return EscalationHigh
	}
	return EscalationNormal
}
