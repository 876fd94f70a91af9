package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	AutoMigrate    bool   // apply embedded migrations at startup

	Gateway  GatewayConfig
	RabbitMQ RabbitMQConfig
}

// GatewayConfig points at the payment gateway.
type GatewayConfig struct {
	BaseURL         string
	ServerKey       string
	Timeout         time.Duration
	VerifySignature bool
}

// RabbitMQConfig configures the tickets.issued publisher and consumer.
// An empty URL disables both.
type RabbitMQConfig struct {
	URL          string
	TicketsQueue string
	LogDir       string
}

// Load reads configuration values from the environment, after merging a
// .env file when one exists.  Required variables are enforced by must()
// and missing values cause the program to exit with a fatal log message.
func Load() Config {
	// Real environment variables win over .env entries.
	_ = godotenv.Load()

	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		AutoMigrate:    envBool("DB_AUTO_MIGRATE", true),
		Gateway:        LoadGatewayConfig(),
		RabbitMQ: RabbitMQConfig{
			URL:          envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
			TicketsQueue: envStr("TICKETS_QUEUE", "tickets.issued"),
			LogDir:       envStr("TICKET_LOG_DIR", "logs"),
		},
	}
}

// LoadGatewayConfig reads the payment gateway settings.  An empty
// server key is allowed for local runs; notifications are then accepted
// unsigned.
func LoadGatewayConfig() GatewayConfig {
	return GatewayConfig{
		BaseURL:         envStr("GATEWAY_BASE_URL", "https://app.sandbox.midtrans.com"),
		ServerKey:       os.Getenv("GATEWAY_SERVER_KEY"),
		Timeout:         envDur("GATEWAY_TIMEOUT", 10*time.Second),
		VerifySignature: envBool("GATEWAY_VERIFY_SIGNATURE", true),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
