package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	ServerPort string

	JWTSecret string

	RedisURL string

	// Remote scheduler (SMS channel)
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	SMSCountryPrefix   string // prepended to numbers without an international prefix
	SMSBody            string
	PollIntervalSec    int // 0 disables the internal poll loop (external trigger only)

	// Push channel
	PushProvider   string // "fcm" or "expo"
	FCMProjectID   string
	FCMClientEmail string
	FCMPrivateKey  string

	// Intake counter
	OverflowCapML int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	pollIntervalSec, err := strconv.Atoi(os.Getenv("POLL_INTERVAL_SEC"))
	if err != nil || pollIntervalSec < 0 {
		pollIntervalSec = 60
	}

	overflowCap, err := strconv.Atoi(os.Getenv("OVERFLOW_CAP_ML"))
	if err != nil || overflowCap < 0 {
		overflowCap = 500
	}

	countryPrefix := os.Getenv("SMS_COUNTRY_PREFIX")
	if countryPrefix == "" {
		countryPrefix = "+84"
	}

	smsBody := os.Getenv("SMS_BODY")
	if smsBody == "" {
		smsBody = "Time to drink some water! Open HydroMate to log it."
	}

	pushProvider := os.Getenv("PUSH_PROVIDER")
	if pushProvider == "" {
		pushProvider = "expo"
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		ServerPort: serverPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		RedisURL: os.Getenv("REDIS_URL"),

		AWSRegion:          os.Getenv("AWS_REGION"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SMSCountryPrefix:   countryPrefix,
		SMSBody:            smsBody,
		PollIntervalSec:    pollIntervalSec,

		PushProvider:   pushProvider,
		FCMProjectID:   os.Getenv("FCM_PROJECT_ID"),
		FCMClientEmail: os.Getenv("FCM_CLIENT_EMAIL"),
		FCMPrivateKey:  os.Getenv("FCM_PRIVATE_KEY"),

		OverflowCapML: overflowCap,
	}, nil
}
