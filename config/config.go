package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tender-scraper/models"
)

// DefaultTopics routes each source to its forum topic in the admin channel.
const DefaultTopics = "Xarid.uz=2,IT-Market=4,Etender=6"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	BotToken       string
	AdminChannelID int64
	Topics         map[models.Source]int
	PhotoPath      string

	GoogleKeyPath string
	GoogleSheetID string
	CSVDir        string

	RedisURL     string
	SeenTTL      time.Duration
	RecentSize   int
	MemcacheAddr string

	HTTPAddr string

	SweepInterval   time.Duration
	MaxPages        int
	LoadTimeout     time.Duration
	ListTimeout     time.Duration
	DetailTimeout   time.Duration
	RateLimitMs     int
	MaxRetries      int
	ChromeBin       string
	Headless        bool
	ITMarketNext    string
	MinPrice        float64
	MinForeignPrice float64

	CooldownAfter int
	CooldownFor   time.Duration
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "tenders"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		BotToken:       getEnv("BOT_TOKEN", ""),
		AdminChannelID: getEnvInt64("ADMIN_CHANNEL_ID", 0),
		Topics:         ParseTopics(getEnv("TELEGRAM_TOPICS", DefaultTopics)),
		PhotoPath:      getEnv("PHOTO_PATH", "img/default_photo.jpeg"),

		GoogleKeyPath: getEnv("GOOGLE_KEY_PATH", ""),
		GoogleSheetID: getEnv("GOOGLE_SHEET_ID", ""),
		CSVDir:        getEnv("CSV_DIR", "./output"),

		RedisURL:     getEnv("REDIS_URL", ""),
		SeenTTL:      getEnvDuration("SEEN_TTL", 7*24*time.Hour),
		RecentSize:   getEnvInt("RECENT_URLS", 4096),
		MemcacheAddr: getEnv("MEMCACHE_ADDR", ""),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		SweepInterval:   getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),
		MaxPages:        getEnvInt("MAX_PAGES", 5),
		LoadTimeout:     getEnvDuration("LOAD_TIMEOUT", 90*time.Second),
		ListTimeout:     getEnvDuration("LIST_TIMEOUT", 20*time.Second),
		DetailTimeout:   getEnvDuration("DETAIL_TIMEOUT", 45*time.Second),
		RateLimitMs:     getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		ChromeBin:       getEnv("CHROME_BIN", ""),
		Headless:        getEnvBool("HEADLESS", true),
		ITMarketNext:    getEnv("ITMARKET_NEXT_SELECTOR", ""),
		MinPrice:        getEnvFloat("MIN_PRICE", 0),
		MinForeignPrice: getEnvFloat("MIN_FOREIGN_PRICE", 0),

		CooldownAfter: getEnvInt("COOLDOWN_AFTER_FAILURES", 3),
		CooldownFor:   getEnvDuration("SOURCE_COOLDOWN", 30*time.Minute),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// TelegramEnabled reports whether notifications can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.BotToken != "" && c.AdminChannelID != 0
}

// GoogleSheetsEnabled reports whether the Google sheet replaces the CSV files.
func (c *Config) GoogleSheetsEnabled() bool {
	return c.GoogleKeyPath != "" && c.GoogleSheetID != ""
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.PostgresHost == "" || c.PostgresDB == "" {
		return fmt.Errorf("postgres host and database cannot be empty")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("max pages must be at least 1")
	}
	if c.LoadTimeout <= 0 || c.ListTimeout <= 0 || c.DetailTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.RateLimitMs < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	if c.MinPrice < 0 || c.MinForeignPrice < 0 {
		return fmt.Errorf("price thresholds cannot be negative")
	}
	if c.BotToken != "" && c.AdminChannelID == 0 {
		return fmt.Errorf("admin channel id is required when a bot token is set")
	}
	if (c.GoogleKeyPath == "") != (c.GoogleSheetID == "") {
		return fmt.Errorf("google key path and sheet id must be set together")
	}
	if c.RedisURL != "" {
		u, err := url.Parse(c.RedisURL)
		if err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			return fmt.Errorf("redis URL must use redis:// or rediss://")
		}
	}
	if c.MemcacheAddr != "" && c.CooldownAfter > 0 && c.CooldownFor <= 0 {
		return fmt.Errorf("source cooldown must be positive")
	}
	return nil
}

// ParseTopics reads "Source=topic" pairs separated by commas. Unknown
// sources and malformed pairs are skipped.
func ParseTopics(raw string) map[models.Source]int {
	topics := make(map[models.Source]int)
	for _, pair := range strings.Split(raw, ",") {
		name, id, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		source, ok := models.ParseSource(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil {
			continue
		}
		topics[source] = n
	}
	return topics
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.ParseInt(val, 10, 64)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("5m") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
