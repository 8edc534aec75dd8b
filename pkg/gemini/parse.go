package gemini

import (
	"strconv"
	"strings"
	"time"

	"carelink-backend/pkg/ai"
)

// ParseIntentAnalysis parses the INTENT/URGENCY/REQUIRES_REPLY/REASONING
// line format. Missing fields fall back to safe defaults (medium urgency,
// reply required).
func ParseIntentAnalysis(text string) *ai.IntentAnalysis {
	analysis := &ai.IntentAnalysis{
		Intent:        "unknown",
		Urgency:       "medium",
		RequiresReply: true,
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "INTENT:"):
			analysis.Intent = strings.ToLower(fieldValue(line))
		case strings.HasPrefix(upper, "URGENCY:"):
			analysis.Urgency = strings.ToLower(fieldValue(line))
		case strings.HasPrefix(upper, "REQUIRES_REPLY:"):
			analysis.RequiresReply = strings.HasPrefix(strings.ToLower(fieldValue(line)), "y")
		case strings.HasPrefix(upper, "REASONING:"):
			analysis.Reasoning = fieldValue(line)
		}
	}
	return analysis
}

// ParseSchedulingProposal parses the HAS_PROPOSAL/DATETIME/DURATION_MINUTES/
// SUMMARY line format
func ParseSchedulingProposal(text string) *ai.SchedulingProposal {
	proposal := &ai.SchedulingProposal{DurationMinutes: 60}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "HAS_PROPOSAL:"):
			proposal.HasProposal = strings.HasPrefix(strings.ToLower(fieldValue(line)), "y")
		case strings.HasPrefix(upper, "DATETIME:"):
			raw := fieldValue(line)
			if raw != "" && !strings.EqualFold(raw, "none") {
				if t, err := time.Parse(time.RFC3339, raw); err == nil {
					proposal.DateTime = &t
				}
			}
		case strings.HasPrefix(upper, "DURATION_MINUTES:"):
			if n, err := strconv.Atoi(fieldValue(line)); err == nil && n > 0 {
				proposal.DurationMinutes = n
			}
		case strings.HasPrefix(upper, "SUMMARY:"):
			if v := fieldValue(line); !strings.EqualFold(v, "none") {
				proposal.Summary = v
			}
		}
	}
	return proposal
}

// ParseReplyDraft extracts SUBJECT: and BODY: sections. When the model does
// not follow the format, the whole text becomes the body under a "Re:"
// subject.
func ParseReplyDraft(text, originalSubject string) (string, string) {
	subject := "Re: " + originalSubject
	body := strings.TrimSpace(text)

	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(line)), "SUBJECT:") {
			subject = fieldValue(line)
			for j := i + 1; j < len(lines); j++ {
				if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(lines[j])), "BODY:") {
					body = strings.TrimSpace(strings.Join(lines[j+1:], "\n"))
					break
				}
			}
			break
		}
	}
	return subject, body
}

// ParseSymptomAnalysis parses the symptom triage line format
func ParseSymptomAnalysis(text string) *ai.SymptomAnalysis {
	analysis := &ai.SymptomAnalysis{
		Urgency:            "moderate",
		SuggestAppointment: true,
		SuggestedTimeframe: "within 3 days",
	}

	inQuestions := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "URGENCY:"):
			analysis.Urgency = strings.ToLower(fieldValue(line))
			inQuestions = false
		case strings.HasPrefix(upper, "RECOMMENDATION:"):
			analysis.Recommendation = fieldValue(line)
			inQuestions = false
		case strings.HasPrefix(upper, "SUGGEST_APPOINTMENT:"):
			analysis.SuggestAppointment = strings.HasPrefix(strings.ToLower(fieldValue(line)), "y")
			inQuestions = false
		case strings.HasPrefix(upper, "SUGGESTED_TIMEFRAME:"):
			analysis.SuggestedTimeframe = fieldValue(line)
			inQuestions = false
		case strings.HasPrefix(upper, "QUESTIONS_TO_ASK:"):
			inQuestions = true
		case inQuestions && strings.HasPrefix(line, "-"):
			analysis.QuestionsToAsk = append(analysis.QuestionsToAsk, strings.TrimSpace(line[1:]))
		}
	}
	return analysis
}

func fieldValue(line string) string {
	if idx := strings.Index(line, ":"); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}
	return ""
}
