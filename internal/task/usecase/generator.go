package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"carelink-backend/internal/task/domain"
	"carelink-backend/internal/task/repository"
	"carelink-backend/pkg/ai"
)

// automatedSenderPrefixes short-circuits classification for mail that no
// caregiver needs to act on
var automatedSenderPrefixes = []string{
	"noreply@",
	"no-reply@",
	"mailer-daemon@",
	"postmaster@",
	"notifications@",
	"marketing@",
	"promo@",
	"donotreply@",
}

// noisePhrases marks promotional and security-notification content
var noisePhrases = []string{
	"unsubscribe",
	"newsletter",
	"verify your email",
	"one-time code",
	"verification code",
	"special offer",
	"limited time offer",
}

// schedulingKeywords decides whether a message is worth a scheduling
// extraction pass
var schedulingKeywords = []string{
	"appoint",
	"schedule",
	"meet",
	"time",
	"date",
}

// TriggerScan runs one scan of all sources. A second caller observing a scan
// in flight returns immediately without queuing; it is a cooperative guard,
// not a lock.
func (u *taskUsecase) TriggerScan(ctx context.Context) {
	if !u.scanning.CompareAndSwap(false, true) {
		log.Println("[TaskGenerator] Scan already in flight, skipping")
		return
	}
	defer u.scanning.Store(false)

	u.scanEmails(ctx)
	u.scanChat(ctx)
}

// scanEmails pulls one batch of unread mail and turns the interesting items
// into email_reply tasks. Errors never escape: a failing item or adapter is
// logged and the scan moves on.
func (u *taskUsecase) scanEmails(ctx context.Context) {
	emails, err := u.emails.FetchUnread(ctx, u.batchSize)
	if err != nil {
		log.Printf("[TaskGenerator] Email fetch failed: %v", err)
		return
	}

	for _, email := range emails {
		if u.ledger.Seen(email.ID) {
			continue
		}
		if err := u.processEmail(ctx, email); err != nil {
			log.Printf("[TaskGenerator] Failed to process email %s: %v", email.ID, err)
		}
		// Processed regardless of outcome so one bad message cannot be
		// re-evaluated forever
		u.ledger.MarkProcessed(email.ID)
	}
}

func (u *taskUsecase) processEmail(ctx context.Context, email *domain.SourceEmail) error {
	if isAutomatedSender(email.Sender) || hasNoisePhrase(email.Subject, email.Body) {
		log.Printf("[TaskGenerator] Prefiltered email %s from %s", email.ID, email.Sender)
		return nil
	}

	analysis, err := u.classifier.AnalyzeIntent(ctx, email.Body)
	if err != nil {
		return domain.NewTransportError("analyze intent", err)
	}

	availability := ""
	hasProposal := false
	if mentionsScheduling(email.Subject+" "+email.Body) || analysis.Intent == "appointment" {
		availability, hasProposal = u.checkAvailability(ctx, email)
	}

	if !analysis.RequiresReply && analysis.Urgency == string(domain.UrgencyLow) && !hasProposal {
		log.Printf("[TaskGenerator] Skipping email %s (no reply needed, low urgency)", email.ID)
		return nil
	}

	draft, err := u.classifier.DraftReply(ctx, ai.ReplyRequest{
		Subject: email.Subject,
		Body:    email.Body,
		Sender:  email.Sender,
		Context: availability,
		Tone:    "professional",
	})
	if err != nil {
		return domain.NewTransportError("draft reply", err)
	}

	task := &domain.Task{
		ID:          uuid.New().String(),
		Type:        domain.TaskTypeEmailReply,
		Title:       "Reply to " + email.Sender,
		Description: "Regarding: " + email.Subject,
		Urgency:     domain.Urgency(analysis.Urgency),
		Status:      domain.TaskStatusPending,
		Email: &domain.EmailReplyPayload{
			MessageID: email.ID,
			Draft:     domain.ReplyDraft{Subject: draft.Subject, Body: draft.Body},
			Original: domain.OriginalEmail{
				Sender:  email.Sender,
				Subject: email.Subject,
				Body:    email.Body,
			},
		},
		CreatedAt: time.Now(),
	}
	if err := u.store.Create(task); err != nil {
		return err
	}
	u.created(task)
	log.Printf("[TaskGenerator] Created email_reply task %s (urgency: %s)", task.ID, task.Urgency)
	return nil
}

// checkAvailability extracts a proposed slot and cross-checks the calendar.
// The returned string is grounding context for the reply draft, never stored
// on the task itself.
func (u *taskUsecase) checkAvailability(ctx context.Context, email *domain.SourceEmail) (string, bool) {
	proposal, err := u.classifier.ExtractScheduling(ctx, email.Body)
	if err != nil {
		log.Printf("[TaskGenerator] Scheduling extraction failed for %s: %v", email.ID, err)
		return "", false
	}
	if !proposal.HasProposal || proposal.DateTime == nil {
		return "", proposal.HasProposal
	}

	duration := proposal.DurationMinutes
	if duration <= 0 {
		duration = 60
	}
	start := *proposal.DateTime
	end := start.Add(time.Duration(duration) * time.Minute)

	if u.calendar == nil {
		return "", true
	}
	free, err := u.calendar.IsFree(ctx, start, end)
	if err != nil {
		log.Printf("[TaskGenerator] Free/busy check failed for %s: %v", email.ID, err)
		return "", true
	}

	slot := start.Format("Monday, January 2 at 3:04 PM")
	if free {
		return fmt.Sprintf("The proposed time (%s) is free on the calendar. Confirm the appointment for this time.", slot), true
	}
	return fmt.Sprintf("The proposed time (%s) conflicts with an existing calendar event. Politely decline and ask the sender to propose an alternative time.", slot), true
}

// scanChat turns every unseen Telegram update into a telegram_reply task.
// Chat messages carry no prefilter: an inbound message from a contact is
// always actionable.
func (u *taskUsecase) scanChat(ctx context.Context) {
	if u.chat == nil {
		return
	}
	updates, err := u.chat.PollUpdates(ctx)
	if err != nil {
		log.Printf("[TaskGenerator] Telegram poll failed: %v", err)
		return
	}

	for _, update := range updates {
		key := fmt.Sprintf("%s%d", repository.ChatKeyPrefix, update.UpdateID)
		if u.ledger.Seen(key) {
			continue
		}

		task := &domain.Task{
			ID:          uuid.New().String(),
			Type:        domain.TaskTypeTelegramReply,
			Title:       "Message from " + update.Sender,
			Description: truncate(update.Text, 120),
			Urgency:     domain.UrgencyMedium,
			Status:      domain.TaskStatusPending,
			Telegram: &domain.TelegramReplyPayload{
				ChatID: update.ChatID,
				Text:   update.Text,
				Sender: update.Sender,
			},
			CreatedAt: time.Now(),
		}
		if err := u.store.Create(task); err != nil {
			log.Printf("[TaskGenerator] Failed to store telegram task: %v", err)
		} else {
			u.created(task)
			log.Printf("[TaskGenerator] Created telegram_reply task %s", task.ID)
		}
		u.ledger.MarkProcessed(key)
	}
}

func isAutomatedSender(sender string) bool {
	addr := strings.ToLower(extractAddress(sender))
	for _, prefix := range automatedSenderPrefixes {
		if strings.HasPrefix(addr, prefix) {
			return true
		}
	}
	return false
}

func hasNoisePhrase(subject, body string) bool {
	text := strings.ToLower(subject + " " + body)
	for _, phrase := range noisePhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

func mentionsScheduling(text string) bool {
	text = strings.ToLower(text)
	for _, kw := range schedulingKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
