package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr string

	DBDriver   string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	SQLitePath string

	RedisURL string

	TelegramBotToken    string
	TelegramBotUsername string
	InitDataMaxAge      time.Duration

	JWTSecret     string
	SessionTTL    time.Duration
	AdminTokenTTL time.Duration

	DefaultTaxRate  decimal.Decimal
	DefaultCurrency string

	RabbitMQURL       string
	OrderExchange     string
	OrderQueue        string
	DeadLetterQueue   string
	DelayExchange     string
	MaxPriority       int
	ConsumerPrefetch  int
	PaymentCheckDelay time.Duration
}

var defaults = map[string]any{
	"HTTP_ADDR":             ":8080",
	"DB_DRIVER":             "mysql",
	"DB_USER":               "root",
	"DB_PASSWORD":           "",
	"DB_HOST":               "localhost",
	"DB_PORT":               "3306",
	"DB_NAME":               "storefront",
	"SQLITE_PATH":           "./storefront.db",
	"REDIS_URL":             "redis://localhost:6379/0",
	"TELEGRAM_BOT_TOKEN":    "",
	"TELEGRAM_BOT_USERNAME": "",
	"INIT_DATA_MAX_AGE":     "24h",
	"JWT_SECRET":            "",
	"SESSION_TTL":           "168h",
	"ADMIN_TOKEN_TTL":       "24h",
	"DEFAULT_TAX_RATE":      "0.08",
	"DEFAULT_CURRENCY":      "USD",
	"RABBITMQ_URL":          "",
	"ORDER_EXCHANGE":        "orders_exchange",
	"ORDER_QUEUE":           "orders_queue",
	"DEAD_LETTER_QUEUE":     "dead_letter_queue",
	"DELAY_EXCHANGE":        "delay_exchange",
	"MAX_PRIORITY":          10,
	"CONSUMER_PREFETCH":     10,
	"PAYMENT_CHECK_DELAY":   "0s",
}

// LoadConfig reads configuration from the environment and, when path is not
// empty, from a YAML file whose keys match the environment variable names.
// Environment variables win over the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	taxRate, err := decimal.NewFromString(v.GetString("DEFAULT_TAX_RATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TAX_RATE: %w", err)
	}

	cfg := &Config{
		HTTPAddr:            v.GetString("HTTP_ADDR"),
		DBDriver:            v.GetString("DB_DRIVER"),
		DBUser:              v.GetString("DB_USER"),
		DBPassword:          getFromFile(v, "DB_PASSWORD"),
		DBHost:              v.GetString("DB_HOST"),
		DBPort:              v.GetString("DB_PORT"),
		DBName:              v.GetString("DB_NAME"),
		SQLitePath:          v.GetString("SQLITE_PATH"),
		RedisURL:            v.GetString("REDIS_URL"),
		TelegramBotToken:    getFromFile(v, "TELEGRAM_BOT_TOKEN"),
		TelegramBotUsername: v.GetString("TELEGRAM_BOT_USERNAME"),
		InitDataMaxAge:      v.GetDuration("INIT_DATA_MAX_AGE"),
		JWTSecret:           getFromFile(v, "JWT_SECRET"),
		SessionTTL:          v.GetDuration("SESSION_TTL"),
		AdminTokenTTL:       v.GetDuration("ADMIN_TOKEN_TTL"),
		DefaultTaxRate:      taxRate,
		DefaultCurrency:     v.GetString("DEFAULT_CURRENCY"),
		RabbitMQURL:         v.GetString("RABBITMQ_URL"),
		OrderExchange:       v.GetString("ORDER_EXCHANGE"),
		OrderQueue:          v.GetString("ORDER_QUEUE"),
		DeadLetterQueue:     v.GetString("DEAD_LETTER_QUEUE"),
		DelayExchange:       v.GetString("DELAY_EXCHANGE"),
		MaxPriority:         v.GetInt("MAX_PRIORITY"),
		ConsumerPrefetch:    v.GetInt("CONSUMER_PREFETCH"),
		PaymentCheckDelay:   v.GetDuration("PAYMENT_CHECK_DELAY"),
	}
	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case "mysql", "sqlite3":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite3" {
		return c.SQLitePath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=1"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC&clientFoundRows=true",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// getFromFile prefers the contents of the file named by <key>_FILE, the way
// docker secrets are mounted, and falls back to the plain value.
func getFromFile(v *viper.Viper, key string) string {
	if filePath := v.GetString(key + "_FILE"); filePath != "" {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return v.GetString(key)
}
