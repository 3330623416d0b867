// Package config загружает настройки chatfic из yaml-файла и переменных окружения.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultConfigPath - файл, который читается, если путь не передан явно.
const DefaultConfigPath = "chatfic.yml"

// Config содержит конфигурацию приложения.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	AI      AIConfig      `yaml:"ai"`
	Storage StorageConfig `yaml:"storage"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LogConfig содержит настройки логирования.
type LogConfig struct {
	Level    string `yaml:"level" env:"CHATFIC_LOG_LEVEL" env-default:"warn"`
	Encoding string `yaml:"encoding" env:"CHATFIC_LOG_ENCODING" env-default:"auto"`
	Output   string `yaml:"output" env:"CHATFIC_LOG_OUTPUT"`
}

// AIConfig содержит настройки бэкенда генерации.
type AIConfig struct {
	Provider       string            `yaml:"provider" env:"CHATFIC_AI_PROVIDER" env-default:"gemini"` // gemini, openai, ollama
	APIKey         string            `yaml:"api_key" env:"CHATFIC_AI_API_KEY"`
	BaseURL        string            `yaml:"base_url" env:"CHATFIC_AI_BASE_URL"`
	Timeout        time.Duration     `yaml:"timeout" env:"CHATFIC_AI_TIMEOUT" env-default:"120s"`
	MaxAttempts    int               `yaml:"max_attempts" env:"CHATFIC_AI_MAX_ATTEMPTS" env-default:"3"`
	BaseRetryDelay time.Duration     `yaml:"base_retry_delay" env:"CHATFIC_AI_BASE_RETRY_DELAY" env-default:"500ms"`
	ModelAliases   map[string]string `yaml:"model_aliases" env:"CHATFIC_AI_MODEL_ALIASES"` // id каталога -> имя модели у провайдера
}

// StorageConfig содержит настройки локального key/value хранилища.
type StorageConfig struct {
	Driver      string `yaml:"driver" env:"CHATFIC_STORAGE_DRIVER" env-default:"pebble"` // pebble, sqlite, redis, postgres, memory
	Path        string `yaml:"path" env:"CHATFIC_STORAGE_PATH" env-default:"./data/chatfic"`
	RedisURL    string `yaml:"redis_url" env:"CHATFIC_REDIS_URL" env-default:"redis://localhost:6379/0"`
	PostgresDSN string `yaml:"postgres_dsn" env:"CHATFIC_POSTGRES_DSN"`
}

// MetricsConfig содержит настройки отправки метрик.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url" env:"CHATFIC_PUSHGATEWAY_URL"` // Пусто - метрики не отправляются
}

// Load загружает конфигурацию. Сначала подхватывается .env (если есть), затем yaml-файл;
// если файла нет, настройки берутся только из окружения.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
	}

	if configPath == "" {
		configPath = DefaultConfigPath
	}

	var cfg Config
	if _, statErr := os.Stat(configPath); statErr == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации %s: %w", configPath, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Ключ API может прийти из Docker secret, если не задан явно.
	if cfg.AI.APIKey == "" {
		if secret, err := ReadSecret("chatfic_ai_api_key"); err == nil {
			cfg.AI.APIKey = secret
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate проверяет значения, которые невозможно исправить значением по умолчанию.
func (c *Config) Validate() error {
	switch strings.ToLower(c.AI.Provider) {
	case "gemini", "openai", "ollama":
	default:
		return fmt.Errorf("unknown AI provider %q", c.AI.Provider)
	}
	if c.AI.MaxAttempts <= 0 {
		return fmt.Errorf("CHATFIC_AI_MAX_ATTEMPTS must be > 0")
	}
	if c.AI.BaseRetryDelay < 0 {
		return fmt.Errorf("CHATFIC_AI_BASE_RETRY_DELAY must not be negative")
	}
	switch strings.ToLower(c.Storage.Driver) {
	case "pebble", "sqlite", "redis", "postgres", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if strings.EqualFold(c.Storage.Driver, "postgres") && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("CHATFIC_POSTGRES_DSN is required for the postgres driver")
	}
	return nil
}

// MaskedAPIKey возвращает ключ, пригодный для вывода в лог.
func (c *Config) MaskedAPIKey() string {
	if c.AI.APIKey == "" {
		return "[НЕ ЗАДАН]"
	}
	return "[ЗАГРУЖЕН]"
}
