package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"carelink-backend/pkg/ai"
)

const (
	defaultModel = "gemini-2.5-flash"
	baseURL      = "https://generativelanguage.googleapis.com/v1beta/models"
)

// GeminiService implements ai.Classifier against the Gemini REST API
type GeminiService struct {
	ApiKey string
	Model  string
	client *http.Client
}

func NewGeminiService(apiKey string) *GeminiService {
	return &GeminiService{
		ApiKey: apiKey,
		Model:  defaultModel,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// generate sends one text prompt and returns the first candidate's text
func (g *GeminiService) generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}
	respBody, err := g.post(ctx, payload)
	if err != nil {
		return "", err
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response returned")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

func (g *GeminiService) post(ctx context.Context, payload interface{}) ([]byte, error) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", baseURL, g.Model, g.ApiKey)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Gemini API error (%d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// AnalyzeIntent determines intent, urgency and reply necessity of a message
func (g *GeminiService) AnalyzeIntent(ctx context.Context, body string) (*ai.IntentAnalysis, error) {
	prompt := fmt.Sprintf(`Analyze the following email and determine:
1. The primary intent (question, request, appointment, information, complaint, feedback, other)
2. The urgency level (low, medium, high, emergency)
3. Whether it requires a reply (yes/no)

Email:
%s

Respond in this format:
INTENT: [intent]
URGENCY: [urgency level]
REQUIRES_REPLY: [yes/no]
REASONING: [brief explanation]
`, body)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseIntentAnalysis(text), nil
}

// ExtractScheduling pulls a proposed appointment slot out of a message
func (g *GeminiService) ExtractScheduling(ctx context.Context, body string) (*ai.SchedulingProposal, error) {
	now := time.Now().Format("2006-01-02 15:04")
	prompt := fmt.Sprintf(`The current date and time is %s. Read the following message and decide whether the sender proposes a concrete meeting or appointment time.

Message:
%s

Respond in this format:
HAS_PROPOSAL: [yes/no]
DATETIME: [proposed start in RFC3339, e.g. 2025-06-03T15:00:00Z, or none]
DURATION_MINUTES: [integer, or 60 if unclear]
SUMMARY: [one-line description of the proposed meeting, or none]
`, now, body)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseSchedulingProposal(text), nil
}

// DraftReply generates a reply to the original message. The optional context
// string (e.g. calendar availability) grounds the draft.
func (g *GeminiService) DraftReply(ctx context.Context, req ai.ReplyRequest) (*ai.ReplyDraft, error) {
	tone := req.Tone
	if tone == "" {
		tone = "professional"
	}

	prompt := fmt.Sprintf(`You are an email assistant helping to draft a reply to an email.

Original Email Details:
From: %s
Subject: %s

Email Body:
%s

`, req.Sender, req.Subject, req.Body)

	if req.Context != "" {
		prompt += fmt.Sprintf(`
Additional Context:
%s

`, req.Context)
	}

	prompt += fmt.Sprintf(`
Please generate a %s email reply. Follow these guidelines:
1. Address the main points of the original email
2. Be clear and concise
3. Maintain a %s tone
4. If the email requires specific information you don't have, acknowledge this politely
5. End with an appropriate closing

Format your response as:
SUBJECT: [Reply subject line]

BODY:
[Reply email body]
`, tone, tone)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	subject, replyBody := ParseReplyDraft(text, req.Subject)
	return &ai.ReplyDraft{Subject: subject, Body: replyBody}, nil
}

// AnalyzeSymptom triages a reported symptom. The prompt hard-escalates a
// fixed list of red-flag symptoms so the model stays conservative.
func (g *GeminiService) AnalyzeSymptom(ctx context.Context, symptom, patientContext string) (*ai.SymptomAnalysis, error) {
	prompt := fmt.Sprintf(`You are a medical triage assistant helping caregivers determine if a symptom requires medical attention.

Symptom reported: %s
%s

CRITICAL: For the following symptoms, ALWAYS set urgency to "emergency":
- Chest pain, tightness, or pressure
- Difficulty breathing or shortness of breath
- Signs of stroke (facial drooping, arm weakness, speech difficulty)
- Severe allergic reaction / anaphylaxis
- Loss of consciousness, fainting, unresponsiveness
- Severe bleeding or head injury
- Sudden severe headache
- Choking or inability to swallow
- Seizure (especially first-time)
- Suicidal thoughts or self-harm

For these symptoms, ALWAYS set urgency to "high":
- High fever (above 103F / 39.4C)
- Persistent vomiting or inability to keep fluids down
- Sudden vision changes
- Severe abdominal pain
- Signs of infection (red streaks, warmth, fever with wound)
- Falls with possible fracture
- Medication adverse reaction
- Confusion or disorientation (new onset)
- Severe tremors or rigidity (in Parkinson's patients)

Analyze this symptom and provide:
1. URGENCY: One of [low, moderate, high, emergency]
2. RECOMMENDATION: A brief explanation of what the caregiver should do
3. SUGGEST_APPOINTMENT: yes or no
4. SUGGESTED_TIMEFRAME: If appointment suggested, when (e.g., "within 24 hours", "within 3 days", "next available")
5. QUESTIONS_TO_ASK: 2-3 additional questions the caregiver might want to note for the doctor

Format your response exactly like this:
URGENCY: [level]
RECOMMENDATION: [text]
SUGGEST_APPOINTMENT: [yes/no]
SUGGESTED_TIMEFRAME: [timeframe]
QUESTIONS_TO_ASK:
- [question 1]
- [question 2]
- [question 3]

Be helpful but conservative - when in doubt about serious symptoms, escalate to higher urgency.`, symptom, patientContext)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	analysis := ParseSymptomAnalysis(text)
	analysis.Symptom = symptom
	return analysis, nil
}
