package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// OllamaService implements Classifier against a local Ollama instance
type OllamaService struct {
	getBaseURL func() string
	getModel   func() string
	client     *http.Client
}

// NewOllamaService creates a new Ollama service
func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &OllamaService{
		getBaseURL: func() string { return baseURL },
		getModel:   func() string { return model },
		client:     &http.Client{Timeout: 120 * time.Second},
	}
}

// NewOllamaServiceWithGetters creates an Ollama service whose endpoint and
// model can change at runtime
func NewOllamaServiceWithGetters(getBaseURL, getModel func() string) *OllamaService {
	return &OllamaService{
		getBaseURL: getBaseURL,
		getModel:   getModel,
		client:     &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OllamaService) generate(ctx context.Context, prompt string) (string, error) {
	url := o.getBaseURL() + "/api/generate"

	payload := map[string]interface{}{
		"model":  o.getModel(),
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": 0.3,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return result.Response, nil
}

// AnalyzeIntent implements Classifier
func (o *OllamaService) AnalyzeIntent(ctx context.Context, body string) (*IntentAnalysis, error) {
	prompt := fmt.Sprintf(`Analyze the following email and respond with EXACTLY four lines, nothing else:
INTENT: [question, request, appointment, information, complaint, feedback, other]
URGENCY: [low, medium, high, emergency]
REQUIRES_REPLY: [yes/no]
REASONING: [one short sentence]

Email:
%s`, body)

	text, err := o.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	analysis := &IntentAnalysis{Intent: "unknown", Urgency: "medium", RequiresReply: true}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "INTENT:"):
			analysis.Intent = strings.ToLower(lineValue(line))
		case strings.HasPrefix(upper, "URGENCY:"):
			analysis.Urgency = strings.ToLower(lineValue(line))
		case strings.HasPrefix(upper, "REQUIRES_REPLY:"):
			analysis.RequiresReply = strings.HasPrefix(strings.ToLower(lineValue(line)), "y")
		case strings.HasPrefix(upper, "REASONING:"):
			analysis.Reasoning = lineValue(line)
		}
	}
	return analysis, nil
}

// ExtractScheduling implements Classifier
func (o *OllamaService) ExtractScheduling(ctx context.Context, body string) (*SchedulingProposal, error) {
	now := time.Now().Format("2006-01-02 15:04")
	prompt := fmt.Sprintf(`The current date and time is %s. Does the following message propose a concrete meeting time? Respond with EXACTLY four lines:
HAS_PROPOSAL: [yes/no]
DATETIME: [RFC3339 start time or none]
DURATION_MINUTES: [integer]
SUMMARY: [one line or none]

Message:
%s`, now, body)

	text, err := o.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	proposal := &SchedulingProposal{DurationMinutes: 60}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "HAS_PROPOSAL:"):
			proposal.HasProposal = strings.HasPrefix(strings.ToLower(lineValue(line)), "y")
		case strings.HasPrefix(upper, "DATETIME:"):
			raw := lineValue(line)
			if raw != "" && !strings.EqualFold(raw, "none") {
				if t, err := time.Parse(time.RFC3339, raw); err == nil {
					proposal.DateTime = &t
				}
			}
		case strings.HasPrefix(upper, "DURATION_MINUTES:"):
			if n, err := strconv.Atoi(lineValue(line)); err == nil && n > 0 {
				proposal.DurationMinutes = n
			}
		case strings.HasPrefix(upper, "SUMMARY:"):
			if v := lineValue(line); !strings.EqualFold(v, "none") {
				proposal.Summary = v
			}
		}
	}
	return proposal, nil
}

// DraftReply implements Classifier
func (o *OllamaService) DraftReply(ctx context.Context, req ReplyRequest) (*ReplyDraft, error) {
	tone := req.Tone
	if tone == "" {
		tone = "professional"
	}

	prompt := fmt.Sprintf(`Draft a %s reply to this email.

From: %s
Subject: %s

%s
`, tone, req.Sender, req.Subject, req.Body)
	if req.Context != "" {
		prompt += fmt.Sprintf("\nAdditional context to incorporate:\n%s\n", req.Context)
	}
	prompt += `
Format your response as:
SUBJECT: [reply subject]

BODY:
[reply body]`

	text, err := o.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	subject := "Re: " + req.Subject
	body := strings.TrimSpace(text)
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(line)), "SUBJECT:") {
			subject = lineValue(line)
			for j := i + 1; j < len(lines); j++ {
				if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(lines[j])), "BODY:") {
					body = strings.TrimSpace(strings.Join(lines[j+1:], "\n"))
					break
				}
			}
			break
		}
	}
	return &ReplyDraft{Subject: subject, Body: body}, nil
}

// AnalyzeSymptom implements Classifier. The local model gets a condensed
// version of the triage prompt.
func (o *OllamaService) AnalyzeSymptom(ctx context.Context, symptom, patientContext string) (*SymptomAnalysis, error) {
	prompt := fmt.Sprintf(`You are a medical triage assistant. A caregiver reports: %s
%s

Escalate chest pain, breathing difficulty, stroke signs, severe bleeding, seizures or loss of consciousness to "emergency". Respond with EXACTLY:
URGENCY: [low, moderate, high, emergency]
RECOMMENDATION: [one sentence]
SUGGEST_APPOINTMENT: [yes/no]
SUGGESTED_TIMEFRAME: [timeframe]
QUESTIONS_TO_ASK:
- [question]
- [question]`, symptom, patientContext)

	text, err := o.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	analysis := &SymptomAnalysis{
		Symptom:            symptom,
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
			analysis.Urgency = strings.ToLower(lineValue(line))
			inQuestions = false
		case strings.HasPrefix(upper, "RECOMMENDATION:"):
			analysis.Recommendation = lineValue(line)
			inQuestions = false
		case strings.HasPrefix(upper, "SUGGEST_APPOINTMENT:"):
			analysis.SuggestAppointment = strings.HasPrefix(strings.ToLower(lineValue(line)), "y")
			inQuestions = false
		case strings.HasPrefix(upper, "SUGGESTED_TIMEFRAME:"):
			analysis.SuggestedTimeframe = lineValue(line)
			inQuestions = false
		case strings.HasPrefix(upper, "QUESTIONS_TO_ASK:"):
			inQuestions = true
		case inQuestions && strings.HasPrefix(line, "-"):
			analysis.QuestionsToAsk = append(analysis.QuestionsToAsk, strings.TrimSpace(line[1:]))
		}
	}
	return analysis, nil
}

func lineValue(line string) string {
	if idx := strings.Index(line, ":"); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}
	return ""
}
