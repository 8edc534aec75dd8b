package ai

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
)

// FallbackService routes classification to Gemini first (better structured
// output) and falls back to the local Ollama instance on connection or quota
// errors.
type FallbackService struct {
	gemini Classifier
	ollama *OllamaService
}

// NewFallbackService creates a new fallback service with both providers
func NewFallbackService(gemini Classifier, ollama *OllamaService) *FallbackService {
	return &FallbackService{
		gemini: gemini,
		ollama: ollama,
	}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if _, ok := err.(net.Error); ok {
		return true
	}

	errStr := strings.ToLower(err.Error())
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	}
	for _, indicator := range connectionIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
	}
	for _, indicator := range quotaIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

func (f *FallbackService) shouldFallBack(err error) bool {
	return f.ollama != nil && (isConnectionError(err) || isQuotaError(err))
}

// AnalyzeIntent implements Classifier
func (f *FallbackService) AnalyzeIntent(ctx context.Context, body string) (*IntentAnalysis, error) {
	if f.gemini != nil {
		result, err := f.gemini.AnalyzeIntent(ctx, body)
		if err == nil {
			return result, nil
		}
		if !f.shouldFallBack(err) {
			return nil, err
		}
		log.Printf("[AI] Gemini intent analysis failed: %v, falling back to Ollama", err)
	}
	if f.ollama == nil {
		return nil, fmt.Errorf("no AI provider available")
	}
	return f.ollama.AnalyzeIntent(ctx, body)
}

// ExtractScheduling implements Classifier
func (f *FallbackService) ExtractScheduling(ctx context.Context, body string) (*SchedulingProposal, error) {
	if f.gemini != nil {
		result, err := f.gemini.ExtractScheduling(ctx, body)
		if err == nil {
			return result, nil
		}
		if !f.shouldFallBack(err) {
			return nil, err
		}
		log.Printf("[AI] Gemini scheduling extraction failed: %v, falling back to Ollama", err)
	}
	if f.ollama == nil {
		return nil, fmt.Errorf("no AI provider available")
	}
	return f.ollama.ExtractScheduling(ctx, body)
}

// DraftReply implements Classifier
func (f *FallbackService) DraftReply(ctx context.Context, req ReplyRequest) (*ReplyDraft, error) {
	if f.gemini != nil {
		result, err := f.gemini.DraftReply(ctx, req)
		if err == nil {
			return result, nil
		}
		if !f.shouldFallBack(err) {
			return nil, err
		}
		log.Printf("[AI] Gemini reply drafting failed: %v, falling back to Ollama", err)
	}
	if f.ollama == nil {
		return nil, fmt.Errorf("no AI provider available")
	}
	return f.ollama.DraftReply(ctx, req)
}

// AnalyzeSymptom implements Classifier
func (f *FallbackService) AnalyzeSymptom(ctx context.Context, symptom, patientContext string) (*SymptomAnalysis, error) {
	if f.gemini != nil {
		result, err := f.gemini.AnalyzeSymptom(ctx, symptom, patientContext)
		if err == nil {
			return result, nil
		}
		if !f.shouldFallBack(err) {
			return nil, err
		}
		log.Printf("[AI] Gemini symptom triage failed: %v, falling back to Ollama", err)
	}
	if f.ollama == nil {
		return nil, fmt.Errorf("no AI provider available")
	}
	return f.ollama.AnalyzeSymptom(ctx, symptom, patientContext)
}
