package main

import (
	"context"
	"log"
	"strings"

	api "carelink-backend/cmd/api"
	agentDelivery "carelink-backend/internal/agent/delivery"
	agentUsecase "carelink-backend/internal/agent/usecase"
	appointmentDelivery "carelink-backend/internal/appointment/delivery"
	appointmentUsecase "carelink-backend/internal/appointment/usecase"
	"carelink-backend/internal/notification"
	patientDelivery "carelink-backend/internal/patient/delivery"
	patientdomain "carelink-backend/internal/patient/domain"
	patientRepo "carelink-backend/internal/patient/repository"
	patientUsecase "carelink-backend/internal/patient/usecase"
	taskdomain "carelink-backend/internal/task/domain"
	taskRepo "carelink-backend/internal/task/repository"
	taskUsecase "carelink-backend/internal/task/usecase"
	"carelink-backend/pkg/ai"
	"carelink-backend/pkg/calendar"
	"carelink-backend/pkg/config"
	"carelink-backend/pkg/database"
	"carelink-backend/pkg/fcm"
	"carelink-backend/pkg/gemini"
	"carelink-backend/pkg/gmail"
	"carelink-backend/pkg/imap"
	"carelink-backend/pkg/sse"
	"carelink-backend/pkg/telegram"
)

func main() {
	// Load configuration
	cfg := config.Load()
	ctx := context.Background()

	// Database is optional: patient profiles and device tokens need it, the
	// task pipeline does not
	var patientUc patientUsecase.PatientUsecase
	var deviceRepo patientRepo.DeviceTokenRepository
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		if err := db.AutoMigrate(&patientdomain.Patient{}, &patientdomain.Doctor{}, &patientdomain.Contact{}, &patientdomain.DeviceToken{}); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		patientUc = patientUsecase.NewPatientUsecase(patientRepo.NewPatientRepository(db))
		deviceRepo = patientRepo.NewDeviceTokenRepository(db)
	} else {
		log.Printf("[WARN] DATABASE_URL not set, patient profiles disabled")
	}

	// Email source: Gmail API by default, IMAP/SMTP as fallback
	var emailSource taskUsecase.EmailSource
	var gmailService *gmail.Service
	if cfg.EmailProvider == "imap" {
		emailSource = imap.NewService(cfg.IMAPHost, cfg.IMAPPort, cfg.IMAPUser, cfg.IMAPPassword)
		log.Printf("[Email] Using IMAP source: %s", cfg.IMAPHost)
	} else {
		gmailService = gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GmailAccessToken, cfg.GmailRefreshToken)
		emailSource = gmailService
		log.Printf("[Email] Using Gmail source")
	}

	// Telegram bot
	var chatSource taskUsecase.ChatSource
	if cfg.TelegramBotToken != "" {
		chatSource = telegram.NewService(cfg.TelegramBotToken)
	} else {
		log.Printf("[WARN] TELEGRAM_BOT_TOKEN not set, chat scanning disabled")
	}

	// Google Calendar
	var calendarService taskUsecase.CalendarService
	if cfg.GoogleCredentials != "" {
		cal, err := calendar.NewService(ctx, cfg.GoogleCredentials, cfg.CalendarID)
		if err != nil {
			log.Printf("[WARN] Failed to initialize calendar service: %v", err)
		} else {
			calendarService = cal
		}
	} else {
		log.Printf("[WARN] GOOGLE_CREDENTIALS not set, calendar features disabled")
	}

	// AI classifier: Gemini with Ollama fallback
	var geminiService *gemini.GeminiService
	if cfg.GeminiAPIKey != "" {
		geminiService = gemini.NewGeminiService(cfg.GeminiAPIKey)
	}
	var geminiClassifier ai.Classifier
	if geminiService != nil {
		geminiClassifier = geminiService
	}
	classifier, err := ai.NewClassifier(ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	}, geminiClassifier)
	if err != nil {
		log.Fatal("Failed to initialize AI classifier:", err)
	}
	log.Printf("AI classifier initialized with provider: %s", cfg.AIProvider)

	// SSE manager
	sseManager := sse.NewManager()

	// Optional push stack
	var fcmClient *fcm.Client
	if cfg.FirebaseCredentials != "" {
		fcmClient, err = fcm.NewClient(cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
		}
	}

	// Task pipeline: in-memory store and dedup ledger, scan on demand. The
	// creation hook is bound late because the notification service needs the
	// usecase and vice versa.
	var notifService *notification.Service
	taskUc := taskUsecase.NewTaskUsecase(
		taskRepo.NewTaskStore(),
		taskRepo.NewLedger(cfg.LedgerCapacity),
		emailSource, chatSource, calendarService, classifier,
		taskUsecase.WithBatchSize(cfg.ScanBatchSize),
		taskUsecase.WithTaskCreatedHook(func(task *taskdomain.Task) {
			if notifService != nil {
				notifService.OnTaskCreated(task)
			}
		}),
	)

	// Notification plumbing: Gmail push triggers scans, new tasks fan out to
	// SSE and FCM
	if cfg.GoogleProjectID != "" {
		topicName := cfg.GooglePubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}

		notifService, err = notification.NewService(cfg.GoogleProjectID, topicName, sseManager, deviceRepo, fcmClient, taskUc, cfg.GoogleCredentials)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize notification service: %v", err)
		} else {
			go notifService.Start(context.Background())

			if gmailService != nil {
				if err := gmailService.Watch(ctx, "projects/"+cfg.GoogleProjectID+"/topics/"+topicName); err != nil {
					log.Printf("[WARN] Failed to start Gmail watch: %v", err)
				}
			}
		}
	} else {
		log.Printf("[WARN] GOOGLE_PROJECT_ID not configured, notification service disabled")
	}

	// Supporting modules
	appointmentUc := appointmentUsecase.NewAppointmentUsecase(classifier, emailSource, patientUc, cfg.CaregiverEmail)
	appointmentHandler := appointmentDelivery.NewAppointmentHandler(appointmentUc)

	var patientHandler *patientDelivery.PatientHandler
	if patientUc != nil {
		patientHandler = patientDelivery.NewPatientHandler(patientUc, deviceRepo)
	}

	var agentHandler *agentDelivery.AgentHandler
	if geminiService != nil {
		agentUc := agentUsecase.NewAgentUsecase(geminiService, emailSource, chatSource, calendarService, cfg.TelegramChatID)
		agentHandler = agentDelivery.NewAgentHandler(agentUc, patientUc)
	} else {
		log.Printf("[WARN] GEMINI_API_KEY not set, agent endpoint disabled")
	}

	// HTTP surface
	handler := api.NewHandler(taskUc, patientHandler, appointmentHandler, agentHandler, sseManager, cfg)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
