// backend-go/internal/config/config.go
package config

import (
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Forecast  ForecastConfig
	Cache     CacheConfig
	LLM       LLMConfig
	Storage   StorageConfig
	Notify    NotifyConfig
	Scheduler SchedulerConfig
	LogLevel  string
	LogJSON   bool
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver     string // postgres, pgx or sqlite3
	DSN        string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SalesTable string
}

type ForecastConfig struct {
	Model              string
	DefaultHorizon     int
	MaxHorizon         int
	MinHistoryDays     int
	Workers            int
	LeadTimeDays       float64
	ServiceLevel       float64
	OrderCost          float64
	HoldingCostPerUnit float64
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
}

type LLMConfig struct {
	Enabled   bool
	APIKey    string
	Model     string
	MaxTokens int
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

type NotifyConfig struct {
	SlackWebhookURL string
	MinUrgency      string
}

type SchedulerConfig struct {
	Enabled       bool
	Spec          string
	WatchlistPath string
}

var (
	once     sync.Once
	instance *Config
)

// Load reads configuration from the environment (and .env when present) once.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.New()
		v.AutomaticEnv()
		instance = LoadFrom(v)
	})

	return instance
}

// LoadFrom builds a Config from the given viper instance after applying defaults.
func LoadFrom(v *viper.Viper) *Config {
	setDefaults(v)

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: splitList(v.GetStringSlice("SERVER_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:        v.GetString("DATABASE_URL"),
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetString("DB_PORT"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			DBName:     v.GetString("DB_NAME"),
			SSLMode:    v.GetString("DB_SSLMODE"),
			SalesTable: v.GetString("DB_SALES_TABLE"),
		},
		Forecast: ForecastConfig{
			Model:              v.GetString("FORECAST_MODEL"),
			DefaultHorizon:     v.GetInt("FORECAST_DEFAULT_HORIZON"),
			MaxHorizon:         v.GetInt("FORECAST_MAX_HORIZON"),
			MinHistoryDays:     v.GetInt("FORECAST_MIN_HISTORY_DAYS"),
			Workers:            v.GetInt("PIPELINE_WORKERS"),
			LeadTimeDays:       v.GetFloat64("INVENTORY_LEAD_TIME_DAYS"),
			ServiceLevel:       v.GetFloat64("INVENTORY_SERVICE_LEVEL"),
			OrderCost:          v.GetFloat64("INVENTORY_ORDER_COST"),
			HoldingCostPerUnit: v.GetFloat64("INVENTORY_HOLDING_COST"),
		},
		Cache: CacheConfig{
			Enabled:            v.GetBool("CACHE_ENABLED"),
			RedisURL:           v.GetString("REDIS_URL"),
			RedisHost:          v.GetString("REDIS_HOST"),
			RedisPort:          v.GetString("REDIS_PORT"),
			RedisPassword:      v.GetString("REDIS_PASSWORD"),
			RedisDB:            v.GetInt("REDIS_DB"),
			ForecastTTLSeconds: v.GetInt("CACHE_FORECAST_TTL_SECONDS"),
		},
		LLM: LLMConfig{
			Enabled:   v.GetBool("LLM_ENABLED"),
			APIKey:    v.GetString("ANTHROPIC_API_KEY"),
			Model:     v.GetString("LLM_MODEL"),
			MaxTokens: v.GetInt("LLM_MAX_TOKENS"),
		},
		Storage: StorageConfig{
			Enabled:   v.GetBool("STORAGE_ENABLED"),
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
			Prefix:    v.GetString("STORAGE_PREFIX"),
		},
		Notify: NotifyConfig{
			SlackWebhookURL: v.GetString("SLACK_WEBHOOK_URL"),
			MinUrgency:      strings.ToUpper(v.GetString("NOTIFY_MIN_URGENCY")),
		},
		Scheduler: SchedulerConfig{
			Enabled:       v.GetBool("SCHEDULER_ENABLED"),
			Spec:          v.GetString("SCHEDULER_SPEC"),
			WatchlistPath: v.GetString("SCHEDULER_WATCHLIST"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
		LogJSON:  v.GetBool("LOG_JSON"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 120)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	v.SetDefault("DB_DRIVER", "sqlite3")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "./data/sales.db")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_SALES_TABLE", "sales_long")

	v.SetDefault("FORECAST_MODEL", "weekday_trend")
	v.SetDefault("FORECAST_DEFAULT_HORIZON", 28)
	v.SetDefault("FORECAST_MAX_HORIZON", 365)
	v.SetDefault("FORECAST_MIN_HISTORY_DAYS", 30)
	v.SetDefault("PIPELINE_WORKERS", 4)
	v.SetDefault("INVENTORY_LEAD_TIME_DAYS", 7)
	v.SetDefault("INVENTORY_SERVICE_LEVEL", 0.95)
	v.SetDefault("INVENTORY_ORDER_COST", 50)
	v.SetDefault("INVENTORY_HOLDING_COST", 2)

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_FORECAST_TTL_SECONDS", 900)

	v.SetDefault("LLM_ENABLED", false)
	v.SetDefault("ANTHROPIC_API_KEY", "")
	v.SetDefault("LLM_MODEL", "claude-sonnet-4-5-20250929")
	v.SetDefault("LLM_MAX_TOKENS", 600)

	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("STORAGE_PREFIX", "forecast-reports")

	v.SetDefault("NOTIFY_MIN_URGENCY", "HIGH")

	v.SetDefault("SCHEDULER_ENABLED", false)
	v.SetDefault("SCHEDULER_SPEC", "0 6 * * *")
	v.SetDefault("SCHEDULER_WATCHLIST", "./configs/watchlist.yaml")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_JSON", false)
}

// splitList flattens comma-separated entries coming from env vars.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
