package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"carelink-backend/internal/task/domain"
)

// Service wraps the Gmail API for the single caregiver mailbox. It
// implements the task usecase's EmailSource contract.
type Service struct {
	clientID     string
	clientSecret string
	token        *oauth2.Token
}

// NewService creates a Gmail service for the caregiver account. The refresh
// token keeps the access token alive across restarts.
func NewService(clientID, clientSecret, accessToken, refreshToken string) *Service {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}
	if refreshToken != "" {
		// Force an initial refresh so a stale access token never surfaces
		token.Expiry = time.Now()
	}
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		token:        token,
	}
}

func (s *Service) gmailService(ctx context.Context) (*gmail.Service, error) {
	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}
	client := oauth2.NewClient(ctx, config.TokenSource(ctx, s.token))

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}
	return srv, nil
}

// FetchUnread returns up to max unread inbox messages
func (s *Service) FetchUnread(ctx context.Context, max int) ([]*domain.SourceEmail, error) {
	srv, err := s.gmailService(ctx)
	if err != nil {
		return nil, err
	}

	if max <= 0 {
		max = 10
	}
	resp, err := srv.Users.Messages.List("me").Q("is:unread in:inbox").MaxResults(int64(max)).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list unread messages: %v", err)
	}

	emails := make([]*domain.SourceEmail, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		fullMsg, err := srv.Users.Messages.Get("me", msg.Id).Format("full").Do()
		if err != nil {
			log.Printf("[Gmail] Failed to fetch message %s: %v", msg.Id, err)
			continue
		}
		emails = append(emails, convertMessage(fullMsg))
	}
	return emails, nil
}

// GetByID retrieves a single message; nil when Gmail reports it missing
func (s *Service) GetByID(ctx context.Context, id string) (*domain.SourceEmail, error) {
	srv, err := s.gmailService(ctx)
	if err != nil {
		return nil, err
	}

	msg, err := srv.Users.Messages.Get("me", id).Format("full").Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == 404 {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to retrieve message: %v", err)
	}
	return convertMessage(msg), nil
}

// MarkRead removes the UNREAD label from a message
func (s *Service) MarkRead(ctx context.Context, id string) error {
	srv, err := s.gmailService(ctx)
	if err != nil {
		return err
	}

	_, err = srv.Users.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Do()
	if err != nil {
		return fmt.Errorf("unable to mark message as read: %v", err)
	}
	return nil
}

// Send sends a plain-text email from the caregiver account
func (s *Service) Send(ctx context.Context, to []string, subject, body string, cc []string, replyTo string) error {
	srv, err := s.gmailService(ctx)
	if err != nil {
		return err
	}

	var emailMsg bytes.Buffer
	emailMsg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	if len(cc) > 0 {
		emailMsg.WriteString(fmt.Sprintf("Cc: %s\r\n", strings.Join(cc, ", ")))
	}
	if replyTo != "" {
		emailMsg.WriteString(fmt.Sprintf("Reply-To: %s\r\n", replyTo))
	}
	// Encode subject to handle non-ASCII characters (RFC 2047)
	encodedSubject := fmt.Sprintf("=?utf-8?B?%s?=", base64.StdEncoding.EncodeToString([]byte(subject)))
	emailMsg.WriteString(fmt.Sprintf("Subject: %s\r\n", encodedSubject))
	emailMsg.WriteString("MIME-Version: 1.0\r\n")
	emailMsg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	emailMsg.WriteString(body)

	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(emailMsg.Bytes()),
	}
	if _, err := srv.Users.Messages.Send("me", msg).Do(); err != nil {
		return fmt.Errorf("unable to send message: %v", err)
	}
	return nil
}

// Watch sets up push notifications for the caregiver's inbox
func (s *Service) Watch(ctx context.Context, topicName string) error {
	srv, err := s.gmailService(ctx)
	if err != nil {
		return err
	}

	// Stop any existing watch first; Gmail allows a single push client
	_ = srv.Users.Stop("me").Do()

	resp, err := srv.Users.Watch("me", &gmail.WatchRequest{
		TopicName: topicName,
		LabelIds:  []string{"INBOX"},
	}).Do()
	if err != nil {
		return fmt.Errorf("unable to watch mailbox: %v", err)
	}
	log.Printf("[Gmail] Watch started. Expiration: %d, HistoryId: %d", resp.Expiration, resp.HistoryId)
	return nil
}

// Stop stops push notifications for the caregiver's inbox
func (s *Service) Stop(ctx context.Context) error {
	srv, err := s.gmailService(ctx)
	if err != nil {
		return err
	}
	if err := srv.Users.Stop("me").Do(); err != nil {
		return fmt.Errorf("unable to stop mailbox watch: %v", err)
	}
	return nil
}

// Helper functions

func convertMessage(msg *gmail.Message) *domain.SourceEmail {
	body, _ := getEmailBody(msg.Payload)
	return &domain.SourceEmail{
		ID:      msg.Id,
		Sender:  getHeader(msg.Payload.Headers, "From"),
		Subject: getHeader(msg.Payload.Headers, "Subject"),
		Body:    body,
		Snippet: msg.Snippet,
		Date:    time.Unix(msg.InternalDate/1000, 0),
	}
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if header.Name == name {
			return header.Value
		}
	}
	return ""
}

func getEmailBody(payload *gmail.MessagePart) (string, bool) {
	// If the payload itself is the body
	if payload.Body != nil && payload.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err == nil {
			return string(data), payload.MimeType == "text/html"
		}
	}

	var htmlBody string
	var plainBody string

	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.MimeType == "text/html" {
				if part.Body != nil && part.Body.Data != "" {
					if data, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
						htmlBody = string(data)
					}
				}
			} else if part.MimeType == "text/plain" {
				if part.Body != nil && part.Body.Data != "" {
					if data, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
						plainBody = string(data)
					}
				}
			}
			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}
	findBody(payload.Parts)

	if plainBody != "" {
		return plainBody, false
	}
	return htmlBody, true
}
