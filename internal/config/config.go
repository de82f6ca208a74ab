package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string
	MySQLDSN   string
	RedisAddr  string
	RedisDB    int
	RedisPass  string
	JWTSecret  string

	// External identity provider (Auth0-compatible tenant).
	IDPDomain       string
	IDPClientID     string
	IDPClientSecret string
	IDPConnection   string

	// Local file-based credential store.
	CredentialFile string

	// Outbound mail. When MailPickupDir is set, messages are written to disk
	// instead of being sent through Mailgun.
	MailgunDomain string
	MailgunAPIKey string
	MailSender    string
	MailPickupDir string

	// Remote QR image rendering endpoint.
	QRCodeEndpoint string

	SwaggerHost string
}

// Load builds Config from environment with sensible defaults. A .env file in
// the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		MySQLDSN:   getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/eventhub?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:    getEnvInt("REDIS_DB", 0),
		RedisPass:  os.Getenv("REDIS_PASSWORD"),
		JWTSecret:  getEnv("JWT_SECRET", "change-me"),

		IDPDomain:       os.Getenv("IDP_DOMAIN"),
		IDPClientID:     os.Getenv("IDP_CLIENT_ID"),
		IDPClientSecret: os.Getenv("IDP_CLIENT_SECRET"),
		IDPConnection:   getEnv("IDP_CONNECTION", "Username-Password-Authentication"),

		CredentialFile: getEnv("CREDENTIAL_FILE", "data/users.json"),

		MailgunDomain: os.Getenv("MAILGUN_DOMAIN"),
		MailgunAPIKey: os.Getenv("MAILGUN_API_KEY"),
		MailSender:    getEnv("MAIL_SENDER", "no-reply@eventhub.local"),
		MailPickupDir: os.Getenv("MAIL_PICKUP_DIR"),

		QRCodeEndpoint: getEnv("QR_CODE_ENDPOINT", "https://api.qrserver.com/v1/create-qr-code/"),

		SwaggerHost: os.Getenv("SWAGGER_HOST"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
