package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"carelink-backend/internal/task/domain"
)

// baseURL is a var so tests can point the client at a local server
var baseURL = "https://api.telegram.org/bot"

// Service talks to the Telegram Bot API over plain HTTP. It implements the
// task usecase's ChatSource contract and keeps the getUpdates offset so each
// update is delivered once per process lifetime.
type Service struct {
	token  string
	client *http.Client

	mu     sync.Mutex
	offset int64
}

func NewService(token string) *Service {
	return &Service{
		token: token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From *struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Username  string `json:"username"`
		} `json:"from"`
		Text string `json:"text"`
	} `json:"message"`
}

func (s *Service) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := baseURL + s.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed apiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("telegram returned invalid JSON (status %d)", resp.StatusCode)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("telegram API error: %s", parsed.Description)
	}
	return parsed.Result, nil
}

// PollUpdates fetches new updates past the stored offset and advances it
func (s *Service) PollUpdates(ctx context.Context) ([]*domain.ChatUpdate, error) {
	s.mu.Lock()
	offset := s.offset
	s.mu.Unlock()

	result, err := s.call(ctx, "getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         0,
		"allowed_updates": []string{"message"},
	})
	if err != nil {
		return nil, err
	}

	var updates []update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("unable to decode updates: %v", err)
	}

	converted := make([]*domain.ChatUpdate, 0, len(updates))
	var maxID int64
	for _, u := range updates {
		if u.UpdateID > maxID {
			maxID = u.UpdateID
		}
		if u.Message == nil || u.Message.Text == "" {
			continue
		}
		converted = append(converted, &domain.ChatUpdate{
			UpdateID: u.UpdateID,
			ChatID:   u.Message.Chat.ID,
			Text:     u.Message.Text,
			Sender:   senderName(u),
		})
	}

	if maxID > 0 {
		s.mu.Lock()
		if maxID+1 > s.offset {
			s.offset = maxID + 1
		}
		s.mu.Unlock()
	}
	return converted, nil
}

// Send sends a plain-text message to a chat
func (s *Service) Send(ctx context.Context, chatID int64, text string) error {
	_, err := s.call(ctx, "sendMessage", map[string]any{
		"chat_id": chatID,
		"text":    text,
	})
	return err
}

func senderName(u update) string {
	from := u.Message.From
	if from == nil {
		return "Unknown"
	}
	name := from.FirstName
	if from.LastName != "" {
		name += " " + from.LastName
	}
	if name == "" {
		name = from.Username
	}
	if name == "" {
		name = "Unknown"
	}
	return name
}
