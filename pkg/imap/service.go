package imap

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"carelink-backend/internal/task/domain"
)

// Service is the IMAP/SMTP email adapter for non-Gmail mailboxes. It
// implements the same EmailSource contract as pkg/gmail: IMAP for reading,
// plain SMTP with STARTTLS for sending.
type Service struct {
	host     string
	port     string
	user     string
	password string

	smtpHost string
	smtpPort string
}

// NewService creates an IMAP adapter. SMTP submission runs against the same
// host on port 587 unless overridden.
func NewService(host, port, user, password string) *Service {
	return &Service{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		smtpHost: strings.Replace(host, "imap.", "smtp.", 1),
		smtpPort: "587",
	}
}

func (s *Service) connect() (*client.Client, error) {
	c, err := client.DialTLS(s.host+":"+s.port, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to IMAP server: %v", err)
	}
	if err := c.Login(s.user, s.password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("IMAP login failed: %v", err)
	}
	return c, nil
}

// FetchUnread returns up to max unseen inbox messages
func (s *Service) FetchUnread(ctx context.Context, max int) ([]*domain.SourceEmail, error) {
	c, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("unable to select INBOX: %v", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("unable to search unseen messages: %v", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}
	if max > 0 && len(uids) > max {
		uids = uids[len(uids)-max:]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, messages)
	}()

	emails := make([]*domain.SourceEmail, 0, len(uids))
	for msg := range messages {
		email, err := convertMessage(msg, section)
		if err != nil {
			log.Printf("[IMAP] Failed to parse message %d: %v", msg.Uid, err)
			continue
		}
		emails = append(emails, email)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("unable to fetch messages: %v", err)
	}
	return emails, nil
}

// GetByID retrieves one message by UID; nil when it does not exist
func (s *Service) GetByID(ctx context.Context, id string) (*domain.SourceEmail, error) {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid message id %q: %v", id, err)
	}

	c, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("unable to select INBOX: %v", err)
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uint32(uid))

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, messages)
	}()

	var email *domain.SourceEmail
	for msg := range messages {
		if parsed, err := convertMessage(msg, section); err == nil {
			email = parsed
		}
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("unable to fetch message: %v", err)
	}
	return email, nil
}

// MarkRead adds the \Seen flag to a message
func (s *Service) MarkRead(ctx context.Context, id string) error {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid message id %q: %v", id, err)
	}

	c, err := s.connect()
	if err != nil {
		return err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", false); err != nil {
		return fmt.Errorf("unable to select INBOX: %v", err)
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uint32(uid))
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.UidStore(seqset, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		return fmt.Errorf("unable to mark message as read: %v", err)
	}
	return nil
}

// Send sends a plain-text email over SMTP with STARTTLS
func (s *Service) Send(ctx context.Context, to []string, subject, body string, cc []string, replyTo string) error {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.user))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	if len(cc) > 0 {
		msg.WriteString(fmt.Sprintf("Cc: %s\r\n", strings.Join(cc, ", ")))
	}
	if replyTo != "" {
		msg.WriteString(fmt.Sprintf("Reply-To: %s\r\n", replyTo))
	}
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(body)

	recipients := append(append([]string{}, to...), cc...)
	auth := smtp.PlainAuth("", s.user, s.password, s.smtpHost)
	addr := s.smtpHost + ":" + s.smtpPort
	if err := smtp.SendMail(addr, auth, s.user, recipients, []byte(msg.String())); err != nil {
		return fmt.Errorf("unable to send mail: %v", err)
	}
	return nil
}

func convertMessage(msg *imap.Message, section *imap.BodySectionName) (*domain.SourceEmail, error) {
	email := &domain.SourceEmail{
		ID: strconv.FormatUint(uint64(msg.Uid), 10),
	}
	if msg.Envelope != nil {
		email.Subject = msg.Envelope.Subject
		email.Date = msg.Envelope.Date
		if len(msg.Envelope.From) > 0 {
			email.Sender = msg.Envelope.From[0].Address()
			if name := msg.Envelope.From[0].PersonalName; name != "" {
				email.Sender = fmt.Sprintf("%s <%s>", name, msg.Envelope.From[0].Address())
			}
		}
	}

	r := msg.GetBody(section)
	if r == nil {
		return email, nil
	}
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if _, ok := part.Header.(*mail.InlineHeader); ok {
			data, err := io.ReadAll(part.Body)
			if err == nil && email.Body == "" {
				email.Body = string(data)
			}
		}
	}
	return email, nil
}
