package gemini

import (
	"context"
	"encoding/json"
	"fmt"
)

// FunctionDeclaration describes one callable tool to the model
type FunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// FunctionCall is a tool invocation requested by the model
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Part is one piece of a content turn
type Part struct {
	Text             string         `json:"text,omitempty"`
	FunctionCall     *FunctionCall  `json:"functionCall,omitempty"`
	FunctionResponse map[string]any `json:"functionResponse,omitempty"`
}

// Content is one turn of the tool-calling conversation
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// ToolResult is the model's answer to one tool-calling round: either a
// function call to execute or final text.
type ToolResult struct {
	Call    *FunctionCall
	Text    string
	Content *Content
}

// GenerateWithTools runs one generateContent round with function
// declarations attached
func (g *GeminiService) GenerateWithTools(ctx context.Context, systemPrompt string, declarations []FunctionDeclaration, history []Content) (*ToolResult, error) {
	payload := map[string]any{
		"contents": history,
		"tools": []map[string]any{
			{"functionDeclarations": declarations},
		},
		"systemInstruction": map[string]any{
			"parts": []map[string]string{{"text": systemPrompt}},
		},
	}

	respBody, err := g.post(ctx, payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		Candidates []struct {
			Content Content `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response returned")
	}

	content := result.Candidates[0].Content
	out := &ToolResult{Content: &content}
	for _, part := range content.Parts {
		if part.FunctionCall != nil {
			out.Call = part.FunctionCall
			return out, nil
		}
		if part.Text != "" {
			out.Text += part.Text
		}
	}
	return out, nil
}

// FunctionResponseContent builds the follow-up turn feeding a tool result
// back to the model
func FunctionResponseContent(name string, result string) Content {
	return Content{
		Role: "user",
		Parts: []Part{{
			FunctionResponse: map[string]any{
				"name":     name,
				"response": map[string]any{"result": result},
			},
		}},
	}
}
