package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Token windows for the emailed links.
	SetPasswordLinkTTL   time.Duration
	ResetPasswordLinkTTL time.Duration
	ResendLinkCooldown   time.Duration

	FrontendURL string

	MailDriver   string
	MailFrom     string
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SESRegion    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// "direct" mails inline, "bus" goes through the pub/sub dispatcher.
	NotifyMode   string
	KafkaBrokers []string
	NotifyTopic  string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	AdminUsername string
	AdminEmail    string
	AdminPassword string

	// 0 disables the limiter on /auth.
	AuthRateLimit int
	ReapInterval  time.Duration

	Limits Limits
}

type Limits struct {
	UsernameMin int
	UsernameMax int
	PasswordMin int
	PasswordMax int
	ContactMin  int
	ContactMax  int
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "formbuilder"),

		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", 24*time.Hour),

		SetPasswordLinkTTL:   getDuration("LINK_EXPIRE_TIME", 2*time.Hour),
		ResetPasswordLinkTTL: getDuration("RESET_LINK_EXPIRE_TIME", 120*time.Second),
		ResendLinkCooldown:   getDuration("RESEND_LINK_TIME", 2*time.Hour),

		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),

		MailDriver:   getEnv("MAIL_DRIVER", "log"),
		MailFrom:     getEnv("MAIL_FROM", "no-reply@formbuilder.local"),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SESRegion:    getEnv("SES_REGION", "us-east-1"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		NotifyMode:   getEnv("NOTIFY_MODE", "bus"),
		KafkaBrokers: getList("KAFKA_BROKERS"),
		NotifyTopic:  getEnv("NOTIFY_TOPIC", "formbuilder.notifications"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),

		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		AuthRateLimit: getInt("AUTH_RATE_LIMIT", 20),
		ReapInterval:  getDuration("REAP_INTERVAL", time.Hour),

		Limits: Limits{
			UsernameMin: getInt("USERNAME_MIN", 8),
			UsernameMax: getInt("USERNAME_MAX", 16),
			PasswordMin: getInt("PASSWORD_MIN", 8),
			PasswordMax: getInt("PASSWORD_MAX", 16),
			ContactMin:  getInt("CONTACT_MIN", 10),
			ContactMax:  getInt("CONTACT_MAX", 15),
		},
	}

	log.Println("✅ Config loaded")
	return cfg
}

// Default returns the built-in values without reading the environment.
func Default() *Config {
	return &Config{
		ServerAddr:           ":8080",
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      24 * time.Hour,
		SetPasswordLinkTTL:   2 * time.Hour,
		ResetPasswordLinkTTL: 120 * time.Second,
		ResendLinkCooldown:   2 * time.Hour,
		FrontendURL:          "http://localhost:3000",
		MailDriver:           "log",
		MailFrom:             "no-reply@formbuilder.local",
		NotifyMode:           "bus",
		NotifyTopic:          "formbuilder.notifications",
		ReapInterval:         time.Hour,
		Limits: Limits{
			UsernameMin: 8,
			UsernameMax: 16,
			PasswordMin: 8,
			PasswordMax: 16,
			ContactMin:  10,
			ContactMax:  15,
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️  %s=%q is not a number, using %d", key, v, fallback)
		return fallback
	}
	return n
}

// getDuration accepts Go duration strings ("2h", "120s") or a bare number of seconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("⚠️  %s=%q is not a duration, using %s", key, v, fallback)
	return fallback
}

func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
