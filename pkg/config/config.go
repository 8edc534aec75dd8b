package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Database (patient profiles and device tokens)
	DatabaseURL string

	// AI providers
	AIProvider    string
	GeminiAPIKey  string
	OllamaBaseURL string
	OllamaModel   string

	// Email source: "gmail" or "imap"
	EmailProvider      string
	GoogleClientID     string
	GoogleClientSecret string
	GmailAccessToken   string
	GmailRefreshToken  string
	IMAPHost           string
	IMAPPort           string
	IMAPUser           string
	IMAPPassword       string

	// Telegram bot
	TelegramBotToken string
	TelegramChatID   int64

	// Google Cloud (calendar service account, Gmail push notifications)
	GoogleCredentials string
	GoogleProjectID   string
	GooglePubSubTopic string
	CalendarID        string

	// Firebase Cloud Messaging
	FirebaseCredentials string

	// Scan tuning
	ScanBatchSize  int
	LedgerCapacity int

	// Caregiver identity used in outbound mail
	CaregiverEmail string
	CaregiverName  string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		AIProvider:    getEnv("AI_PROVIDER", "auto"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3"),

		EmailProvider:      getEnv("EMAIL_PROVIDER", "gmail"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GmailAccessToken:   getEnv("GMAIL_ACCESS_TOKEN", ""),
		GmailRefreshToken:  getEnv("GMAIL_REFRESH_TOKEN", ""),
		IMAPHost:           getEnv("IMAP_HOST", ""),
		IMAPPort:           getEnv("IMAP_PORT", "993"),
		IMAPUser:           getEnv("IMAP_USER", ""),
		IMAPPassword:       getEnv("IMAP_PASSWORD", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnvInt64("TELEGRAM_CHAT_ID", 0),

		GoogleCredentials: getEnv("GOOGLE_CREDENTIALS", ""),
		GoogleProjectID:   getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePubSubTopic: getEnv("GOOGLE_PUBSUB_TOPIC", "gmail-updates"),
		CalendarID:        getEnv("GOOGLE_CALENDAR_ID", "primary"),

		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),

		ScanBatchSize:  getEnvInt("SCAN_BATCH_SIZE", 10),
		LedgerCapacity: getEnvInt("LEDGER_CAPACITY", 10000),

		CaregiverEmail: getEnv("CAREGIVER_EMAIL", ""),
		CaregiverName:  getEnv("CAREGIVER_NAME", "CareLink Assistant"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
