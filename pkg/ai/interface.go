package ai

import (
	"context"
	"time"
)

// IntentAnalysis is the triage result for one inbound message
type IntentAnalysis struct {
	Intent        string `json:"intent"`
	Urgency       string `json:"urgency"`
	RequiresReply bool   `json:"requires_reply"`
	Reasoning     string `json:"reasoning"`
}

// SchedulingProposal is a concrete date/time extracted from a message, if any
type SchedulingProposal struct {
	HasProposal     bool       `json:"has_proposal"`
	DateTime        *time.Time `json:"datetime,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	Summary         string     `json:"summary,omitempty"`
}

// ReplyRequest carries the original message plus optional grounding context
// (e.g. calendar availability) into reply drafting
type ReplyRequest struct {
	Subject string
	Body    string
	Sender  string
	Context string
	Tone    string
}

// ReplyDraft is a drafted reply
type ReplyDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SymptomAnalysis is the triage result for a reported symptom
type SymptomAnalysis struct {
	Symptom            string   `json:"symptom"`
	Urgency            string   `json:"urgency"`
	Recommendation     string   `json:"recommendation"`
	SuggestAppointment bool     `json:"suggest_appointment"`
	SuggestedTimeframe string   `json:"suggested_timeframe"`
	QuestionsToAsk     []string `json:"questions_to_ask"`
}

// Classifier is the narrow typed contract over the text-generation model.
// Implement this interface to add new AI providers (Gemini, Ollama, ...);
// tests inject deterministic doubles.
type Classifier interface {
	// AnalyzeIntent triages the urgency and intent of a message body
	AnalyzeIntent(ctx context.Context, body string) (*IntentAnalysis, error)

	// ExtractScheduling pulls a proposed appointment slot out of a message,
	// if one is present
	ExtractScheduling(ctx context.Context, body string) (*SchedulingProposal, error)

	// DraftReply generates a reply to the original message
	DraftReply(ctx context.Context, req ReplyRequest) (*ReplyDraft, error)

	// AnalyzeSymptom triages a symptom report for the appointment module
	AnalyzeSymptom(ctx context.Context, symptom, patientContext string) (*SymptomAnalysis, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
