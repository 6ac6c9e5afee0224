package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Discord DiscordConfig
	Notion  NotionConfig
	Google  GoogleConfig
	Gemini  GeminiConfig
	Apify   ApifyConfig
	Cache   CacheConfig
}

type AppConfig struct {
	Port        string
	Environment string
	LogFilePath string
	Timezone    string
}

type DiscordConfig struct {
	Token                string
	ClientID             string
	InfoCollectChannelID string
	CalendarChannelID    string
	NotifyChannelID      string
	NotifyUserID         string
}

type NotionConfig struct {
	APIKey         string
	InfoDatabaseID string
	CalendarDBID   string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	RedirectURI  string
	CalendarID   string
	Timezone     string
}

type GeminiConfig struct {
	APIKey         string
	Model          string
	RequestTimeout int // seconds; Gemini is the slowest external call
}

type ApifyConfig struct {
	APIKey         string
	FacebookActor  string
	InstagramActor string
	ThreadsActor   string
	RequestTimeout int // seconds
}

type CacheConfig struct {
	TTL         int // seconds, default analysis TTL
	CheckPeriod int // seconds, expiry sweep interval
	RecordTTL   int // seconds, notion record mapping TTL
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:        getEnv("APP_PORT", "3000"),
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "logs/bot.log"),
			Timezone:    getEnv("BOT_TIMEZONE", "Asia/Taipei"),
		},
		Discord: DiscordConfig{
			Token:                getEnv("DISCORD_TOKEN", ""),
			ClientID:             getEnv("DISCORD_CLIENT_ID", ""),
			InfoCollectChannelID: getEnv("DISCORD_INFO_COLLECT_CHANNEL_ID", ""),
			CalendarChannelID:    getEnv("DISCORD_CALENDAR_CHANNEL_ID", ""),
			NotifyChannelID:      getEnv("DISCORD_NOTIFY_CHANNEL_ID", ""),
			NotifyUserID:         getEnv("DISCORD_NOTIFY_USER_ID", ""),
		},
		Notion: NotionConfig{
			APIKey:         getEnv("NOTION_API_KEY", ""),
			InfoDatabaseID: getEnv("NOTION_DATABASE_ID_INFO", ""),
			CalendarDBID:   getEnv("NOTION_DATABASE_ID_CALENDAR", ""),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),
			RedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:3000/callback"),
			CalendarID:   getEnv("GOOGLE_CALENDAR_ID", "primary"),
			Timezone:     getEnv("GOOGLE_TIMEZONE", "Asia/Taipei"),
		},
		Gemini: GeminiConfig{
			APIKey:         getEnv("GEMINI_API_KEY", ""),
			Model:          getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			RequestTimeout: getEnvAsInt("GEMINI_TIMEOUT_SECONDS", 120),
		},
		Apify: ApifyConfig{
			APIKey:         getEnv("APIFY_API_KEY", ""),
			FacebookActor:  getEnv("APIFY_FACEBOOK_ACTOR", "apify~facebook-posts-scraper"),
			InstagramActor: getEnv("APIFY_INSTAGRAM_ACTOR", "apify~instagram-api-scraper"),
			ThreadsActor:   getEnv("APIFY_THREADS_ACTOR", "apify~threads-scraper"),
			RequestTimeout: getEnvAsInt("APIFY_TIMEOUT_SECONDS", 90),
		},
		Cache: CacheConfig{
			TTL:         getEnvAsInt("CACHE_TTL_SECONDS", 3600),
			CheckPeriod: getEnvAsInt("CACHE_CHECK_PERIOD_SECONDS", 600),
			RecordTTL:   getEnvAsInt("CACHE_RECORD_TTL_SECONDS", 86400),
		},
	}
}

// Validate exits on missing required variables and warns on optional ones.
// Optional credentials only disable their own feature at runtime.
func (c *Config) Validate() {
	required := []struct {
		key   string
		value string
	}{
		{"DISCORD_TOKEN", c.Discord.Token},
		{"NOTION_API_KEY", c.Notion.APIKey},
		{"NOTION_DATABASE_ID_INFO", c.Notion.InfoDatabaseID},
		{"GEMINI_API_KEY", c.Gemini.APIKey},
	}
	var missing []string
	for _, entry := range required {
		if entry.value == "" {
			missing = append(missing, entry.key)
		}
	}
	if len(missing) > 0 {
		log.Fatalf("Missing required environment variables: %s", strings.Join(missing, ", "))
	}

	optional := []struct {
		key   string
		value string
	}{
		{"NOTION_DATABASE_ID_CALENDAR", c.Notion.CalendarDBID},
		{"GOOGLE_CLIENT_ID", c.Google.ClientID},
		{"GOOGLE_CLIENT_SECRET", c.Google.ClientSecret},
		{"GOOGLE_REFRESH_TOKEN", c.Google.RefreshToken},
		{"APIFY_API_KEY", c.Apify.APIKey},
	}
	var missingOptional []string
	for _, entry := range optional {
		if entry.value == "" {
			missingOptional = append(missingOptional, entry.key)
		}
	}
	if len(missingOptional) > 0 {
		log.Printf("[WARN] Optional environment variables not set (some features disabled): %s", strings.Join(missingOptional, ", "))
	}
}

// GoogleConfigured reports whether the Calendar/Tasks credentials are complete.
// Callers use this to render "not configured" instead of a request failure.
func (c *Config) GoogleConfigured() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != "" && c.Google.RefreshToken != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
