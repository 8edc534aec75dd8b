package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	patientdomain "carelink-backend/internal/patient/domain"
	taskusecase "carelink-backend/internal/task/usecase"
	"carelink-backend/pkg/gemini"
)

const maxIterations = 10

// Action records one executed tool call for the API response
type Action struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args"`
	Result string         `json:"result"`
}

// Result is the outcome of one agent run
type Result struct {
	Response     string   `json:"response"`
	ActionsTaken []Action `json:"actions_taken"`
	Success      bool     `json:"success"`
}

// AgentUsecase runs natural-language caregiver requests through the
// tool-calling loop
type AgentUsecase interface {
	Run(ctx context.Context, prompt string, patient *patientdomain.Patient) (*Result, error)
}

// toolFunc executes one tool call with already-decoded arguments
type toolFunc func(ctx context.Context, args map[string]any) string

type agentUsecase struct {
	gemini   *gemini.GeminiService
	emails   taskusecase.EmailSource
	chat     taskusecase.ChatSource
	calendar taskusecase.CalendarService
	chatID   int64

	// Closed registry: only these tools exist, regardless of what the
	// model asks for.
	tools        map[string]toolFunc
	declarations []gemini.FunctionDeclaration
}

// NewAgentUsecase creates the agent with its fixed tool set
func NewAgentUsecase(g *gemini.GeminiService, emails taskusecase.EmailSource, chat taskusecase.ChatSource, calendar taskusecase.CalendarService, chatID int64) AgentUsecase {
	u := &agentUsecase{
		gemini:   g,
		emails:   emails,
		chat:     chat,
		calendar: calendar,
		chatID:   chatID,
	}
	u.tools = map[string]toolFunc{
		"send_email":            u.sendEmail,
		"send_telegram_message": u.sendTelegramMessage,
		"book_calendar_event":   u.bookCalendarEvent,
	}
	u.declarations = buildDeclarations()
	return u
}

func (u *agentUsecase) Run(ctx context.Context, prompt string, patient *patientdomain.Patient) (*Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	if u.gemini == nil {
		return nil, fmt.Errorf("agent requires the Gemini provider")
	}

	systemPrompt := buildSystemPrompt(patient)
	history := []gemini.Content{
		{Role: "user", Parts: []gemini.Part{{Text: prompt}}},
	}

	result := &Result{ActionsTaken: []Action{}}
	for i := 0; i < maxIterations; i++ {
		round, err := u.gemini.GenerateWithTools(ctx, systemPrompt, u.declarations, history)
		if err != nil {
			return nil, fmt.Errorf("agent iteration %d failed: %v", i+1, err)
		}

		if round.Call == nil {
			result.Response = round.Text
			if result.Response == "" {
				result.Response = "Agent completed with no text response."
			}
			result.Success = true
			return result, nil
		}

		call := round.Call
		output := u.execute(ctx, call)
		log.Printf("[Agent] Executed tool %s", call.Name)

		result.ActionsTaken = append(result.ActionsTaken, Action{
			Tool:   call.Name,
			Args:   call.Args,
			Result: truncate(output, 500),
		})

		history = append(history, *round.Content)
		history = append(history, gemini.FunctionResponseContent(call.Name, output))
	}

	result.Response = "Agent reached maximum iterations without completing."
	return result, nil
}

// execute dispatches through the closed registry; unknown names never reach
// arbitrary code
func (u *agentUsecase) execute(ctx context.Context, call *gemini.FunctionCall) string {
	tool, ok := u.tools[call.Name]
	if !ok {
		return fmt.Sprintf("Unknown tool: %s", call.Name)
	}
	return tool(ctx, call.Args)
}

func (u *agentUsecase) sendEmail(ctx context.Context, args map[string]any) string {
	to := stringSlice(args["to"])
	subject := stringArg(args, "subject")
	body := stringArg(args, "body")
	if len(to) == 0 || subject == "" || body == "" {
		return "send_email requires to, subject and body"
	}

	cc := stringSlice(args["cc"])
	replyTo := stringArg(args, "reply_to")
	if err := u.emails.Send(ctx, to, subject, body, cc, replyTo); err != nil {
		return fmt.Sprintf("Failed to send email: %v", err)
	}
	return fmt.Sprintf("Email sent successfully to %s", strings.Join(to, ", "))
}

func (u *agentUsecase) sendTelegramMessage(ctx context.Context, args map[string]any) string {
	text := stringArg(args, "text")
	if text == "" {
		return "send_telegram_message requires text"
	}
	if u.chat == nil || u.chatID == 0 {
		return "Telegram not configured"
	}
	if err := u.chat.Send(ctx, u.chatID, text); err != nil {
		return fmt.Sprintf("Failed to send Telegram message: %v", err)
	}
	return "Telegram message sent successfully"
}

func (u *agentUsecase) bookCalendarEvent(ctx context.Context, args map[string]any) string {
	summary := stringArg(args, "summary")
	startStr := stringArg(args, "start_time")
	endStr := stringArg(args, "end_time")
	if summary == "" || startStr == "" {
		return "book_calendar_event requires summary and start_time"
	}
	if u.calendar == nil {
		return "Calendar not configured"
	}

	start, err := time.ParseInLocation("2006-01-02 15:04", startStr, time.Local)
	if err != nil {
		return fmt.Sprintf("Invalid start_time %q: use 'YYYY-MM-DD HH:MM'", startStr)
	}
	end, err := time.ParseInLocation("2006-01-02 15:04", endStr, time.Local)
	if err != nil {
		// Default to 2-hour events when no usable end time is given
		end = start.Add(2 * time.Hour)
	}

	link, err := u.calendar.AddEvent(ctx, summary, start, end, stringArg(args, "description"))
	if err != nil {
		return fmt.Sprintf("Failed to create calendar event: %v", err)
	}
	return fmt.Sprintf("Calendar event created: %s", link)
}

func buildSystemPrompt(patient *patientdomain.Patient) string {
	patientInfo := ""
	if patient != nil {
		var doctors []string
		for _, d := range patient.Doctors {
			doctors = append(doctors, fmt.Sprintf("%s (%s): %s", d.Name, d.Specialty, d.Email))
		}
		var contacts []string
		for _, c := range patient.Contacts {
			contacts = append(contacts, fmt.Sprintf("%s (%s): %s", c.Name, c.Relation, c.Phone))
		}
		patientInfo = fmt.Sprintf(`
Current Patient Context:
- Patient Name: %s
- Conditions: %s
- Current Medications: %s
- Doctors: %s
- Emergency Contacts: %s
`, patient.Name, patient.Conditions, patient.Medications,
			strings.Join(doctors, ", "), strings.Join(contacts, ", "))
	}

	return fmt.Sprintf(`You are CareLink AI, an autonomous agent assisting caregivers of patients with chronic conditions.
You act as the single source of truth for the patient's information.
Your mission is to reduce caregiver effort in real time and answer questions decisively.
%s
Medical constraints:
- Do not diagnose or prescribe.
- Ground medical claims in current sources.
- Clearly flag escalation thresholds ("contact clinician if X", "emergency if Y").

Decision heuristic:
- If the answer exists in patient data, respond immediately.
- If an action can reduce caregiver work, execute it (send email, book calendar, send message).
- If uncertainty impacts safety, escalate or clarify once.

When booking appointments, default to 2-hour duration unless specified.
When sending emails, always be professional and include the patient's name for context.

Tone: Direct, calm, authoritative. No speculation.`, patientInfo)
}

func buildDeclarations() []gemini.FunctionDeclaration {
	return []gemini.FunctionDeclaration{
		{
			Name:        "send_telegram_message",
			Description: "Sends a message to the caregiver's Telegram chat.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text": map[string]any{
						"type":        "string",
						"description": "The message text to send.",
					},
				},
				"required": []string{"text"},
			},
		},
		{
			Name:        "send_email",
			Description: "Sends an email from the caregiver's account. Use this to email doctors, pharmacies, or contacts.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"to": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "List of recipient email addresses.",
					},
					"subject": map[string]any{
						"type":        "string",
						"description": "Email subject line.",
					},
					"body": map[string]any{
						"type":        "string",
						"description": "Plain-text email body.",
					},
					"cc": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Optional: List of CC email addresses.",
					},
					"reply_to": map[string]any{
						"type":        "string",
						"description": "Optional: Reply-To email address.",
					},
				},
				"required": []string{"to", "subject", "body"},
			},
		},
		{
			Name:        "book_calendar_event",
			Description: "Creates an event on the caregiver's Google Calendar. Use for appointments, follow-ups, medication reminders.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"summary": map[string]any{
						"type":        "string",
						"description": "Event title.",
					},
					"start_time": map[string]any{
						"type":        "string",
						"description": "Event start time in 'YYYY-MM-DD HH:MM' format.",
					},
					"end_time": map[string]any{
						"type":        "string",
						"description": "Event end time in 'YYYY-MM-DD HH:MM' format.",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Optional: Event description or notes.",
					},
				},
				"required": []string{"summary", "start_time", "end_time"},
			},
		},
	}
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
