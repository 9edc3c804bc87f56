package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultJWTSecret is the development signing key. Load refuses to start in
// production while it is still in use.
const DefaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Port   string `yaml:"port"`
	AppEnv string `yaml:"app_env"`

	DatabaseURL string         `yaml:"database_url"`
	DB          DatabaseConfig `yaml:"db"`

	JWTSecret                string        `yaml:"jwt_secret"`
	JWTAccessExpiry          time.Duration `yaml:"jwt_access_expiry"`
	JWTRefreshExpiry         time.Duration `yaml:"jwt_refresh_expiry"`
	RequireEmailVerification bool          `yaml:"require_email_verification"`
	FrontendURL              string        `yaml:"frontend_url"`

	Redis RedisConfig `yaml:"redis"`

	MQURL     string `yaml:"mq_url"`
	MailQueue string `yaml:"mail_queue"`

	FirebaseCredentials string `yaml:"firebase_credentials"`
	FirebaseDatabaseURL string `yaml:"firebase_database_url"`
	GoogleProjectID     string `yaml:"google_project_id"`
	RealtimePubSubTopic string `yaml:"realtime_pubsub_topic"`

	ReminderInterval time.Duration `yaml:"reminder_interval"`
	ReminderWindow   time.Duration `yaml:"reminder_window"`

	LoginRateLimit RateLimitConfig `yaml:"login_rate_limit"`
	ResetRateLimit RateLimitConfig `yaml:"reset_rate_limit"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns DatabaseURL when set, otherwise a key/value DSN.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimitConfig struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func defaults() *Config {
	return &Config{
		Port:   "8080",
		AppEnv: "development",
		DB: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "zuzuplan",
			SSLMode: "disable",
		},
		JWTSecret:                DefaultJWTSecret,
		JWTAccessExpiry:          15 * time.Minute,
		JWTRefreshExpiry:         168 * time.Hour, // 7 days
		RequireEmailVerification: true,
		FrontendURL:              "http://localhost:3000",
		MailQueue:                "mail.outbound",
		ReminderInterval:         time.Hour,
		ReminderWindow:           24 * time.Hour,
		LoginRateLimit:           RateLimitConfig{Max: 5, Window: 15 * time.Minute},
		ResetRateLimit:           RateLimitConfig{Max: 3, Window: time.Hour},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing priority.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	overrideFromEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set to a non-default value in production")
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func overrideFromEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DB.Host = getEnv("DB_HOST", cfg.DB.Host)
	cfg.DB.Port = getInt("DB_PORT", cfg.DB.Port)
	cfg.DB.User = getEnv("DB_USER", cfg.DB.User)
	cfg.DB.Password = getEnv("DB_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = getEnv("DB_NAME", cfg.DB.Name)
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", cfg.DB.SSLMode)

	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTAccessExpiry = getDuration("JWT_ACCESS_EXPIRY", cfg.JWTAccessExpiry)
	cfg.JWTRefreshExpiry = getDuration("JWT_REFRESH_EXPIRY", cfg.JWTRefreshExpiry)
	cfg.RequireEmailVerification = getBool("REQUIRE_EMAIL_VERIFICATION", cfg.RequireEmailVerification)
	cfg.FrontendURL = getEnv("FRONTEND_URL", cfg.FrontendURL)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getInt("REDIS_DB", cfg.Redis.DB)

	cfg.MQURL = getEnv("MQ_URL", cfg.MQURL)
	cfg.MailQueue = getEnv("MAIL_QUEUE", cfg.MailQueue)

	cfg.FirebaseCredentials = getEnv("FIREBASE_CREDENTIALS", cfg.FirebaseCredentials)
	cfg.FirebaseDatabaseURL = getEnv("FIREBASE_DATABASE_URL", cfg.FirebaseDatabaseURL)
	cfg.GoogleProjectID = getEnv("GOOGLE_PROJECT_ID", cfg.GoogleProjectID)
	cfg.RealtimePubSubTopic = getEnv("REALTIME_PUBSUB_TOPIC", cfg.RealtimePubSubTopic)

	cfg.ReminderInterval = getDuration("REMINDER_INTERVAL", cfg.ReminderInterval)
	cfg.ReminderWindow = getDuration("REMINDER_WINDOW", cfg.ReminderWindow)

	cfg.LoginRateLimit.Max = getInt("RATE_LIMIT_LOGIN_MAX", cfg.LoginRateLimit.Max)
	cfg.LoginRateLimit.Window = getDuration("RATE_LIMIT_LOGIN_WINDOW", cfg.LoginRateLimit.Window)
	cfg.ResetRateLimit.Max = getInt("RATE_LIMIT_RESET_MAX", cfg.ResetRateLimit.Max)
	cfg.ResetRateLimit.Window = getDuration("RATE_LIMIT_RESET_WINDOW", cfg.ResetRateLimit.Window)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
