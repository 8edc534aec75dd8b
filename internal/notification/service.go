package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	patientrepo "carelink-backend/internal/patient/repository"
	taskdomain "carelink-backend/internal/task/domain"
	taskusecase "carelink-backend/internal/task/usecase"
	"carelink-backend/pkg/fcm"
	"carelink-backend/pkg/sse"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// GmailNotification is the payload Gmail pushes through Pub/Sub when the
// watched inbox changes
type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// Service glues the notification plumbing together: Pub/Sub push from Gmail
// triggers a scan, and newly created tasks fan out to SSE clients and FCM
// devices.
type Service struct {
	pubsubClient *pubsub.Client
	sseManager   *sse.Manager
	deviceRepo   patientrepo.DeviceTokenRepository
	fcmClient    *fcm.Client
	taskUsecase  taskusecase.TaskUsecase
	projectID    string
	topicName    string
	subName      string
	// Gmail redelivers; remembering the last historyId suppresses
	// duplicates. Receive runs callbacks concurrently, hence atomic.
	lastHistoryID atomic.Uint64
}

// NewService creates the notification service. deviceRepo and fcmClient may
// be nil when push notifications are not configured.
func NewService(projectID, topicName string, sseManager *sse.Manager, deviceRepo patientrepo.DeviceTokenRepository, fcmClient *fcm.Client, taskUsecase taskusecase.TaskUsecase, credentialsFile string) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %v", err)
	}

	return &Service{
		pubsubClient: client,
		sseManager:   sseManager,
		deviceRepo:   deviceRepo,
		fcmClient:    fcmClient,
		taskUsecase:  taskUsecase,
		projectID:    projectID,
		topicName:    topicName,
		subName:      topicName + "-sub", // Convention: topic-sub
	}, nil
}

// Start subscribes to Gmail push notifications and blocks until ctx ends
func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting notification service with topic: %s, subscription: %s", s.topicName, s.subName)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic does not exist, cannot create subscription")
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	log.Printf("[PubSub] Listening for messages on subscription: %s", s.subName)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) handleMessage(ctx context.Context, msg *pubsub.Message) {
	var notification GmailNotification
	if err := json.Unmarshal(msg.Data, &notification); err != nil {
		log.Printf("Failed to unmarshal notification: %v", err)
		return
	}

	log.Printf("[PubSub] Received notification for: %s (historyId: %d)", notification.EmailAddress, notification.HistoryID)

	for {
		last := s.lastHistoryID.Load()
		if notification.HistoryID <= last {
			log.Printf("[PubSub] Skipping duplicate notification (historyId %d <= last %d)", notification.HistoryID, last)
			return
		}
		if s.lastHistoryID.CompareAndSwap(last, notification.HistoryID) {
			break
		}
	}

	// New mail arrived; run the scan pipeline. The usecase skips if a scan
	// is already in flight.
	s.taskUsecase.TriggerScan(context.Background())

	if s.sseManager != nil {
		s.sseManager.Broadcast("mailbox_update", map[string]interface{}{
			"email":     notification.EmailAddress,
			"historyId": notification.HistoryID,
			"timestamp": time.Now(),
		})
	}
}

// OnTaskCreated is wired into the task usecase as its creation hook. It
// pushes the task to connected dashboards and, for urgent tasks, to the
// caregiver's registered devices.
func (s *Service) OnTaskCreated(task *taskdomain.Task) {
	if s.sseManager != nil {
		s.sseManager.Broadcast("task_created", task)
	}

	if !task.Urgency.IsUrgent() || s.fcmClient == nil || s.deviceRepo == nil {
		return
	}

	go func() {
		tokens, err := s.deviceRepo.GetTokens()
		if err != nil {
			log.Printf("[FCM] Error getting device tokens: %v", err)
			return
		}
		if len(tokens) == 0 {
			log.Printf("[FCM] No devices registered, skipping push notification")
			return
		}

		var tokenStrings []string
		for _, t := range tokens {
			tokenStrings = append(tokenStrings, t.Token)
		}

		failedTokens, err := s.fcmClient.SendToDevices(context.Background(), tokenStrings, fcm.NotificationData{
			Title: fmt.Sprintf("Urgent: %s", task.Title),
			Body:  task.Description,
			Data: map[string]string{
				"type":    "task_created",
				"task_id": task.ID,
				"urgency": string(task.Urgency),
			},
		})
		if err != nil {
			log.Printf("[FCM] Error sending notifications: %v", err)
			return
		}

		for _, token := range failedTokens {
			if err := s.deviceRepo.DeleteToken(token); err != nil {
				log.Printf("[FCM] Failed to prune token: %v", err)
			}
		}
	}()
}
