package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Поддерживаемые провайдеры.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

const (
	DefaultOpenAIBaseURL = "https://openrouter.ai/api/v1"
	DefaultOllamaBaseURL = "http://localhost:11434"
)

// BackendConfig - параметры подключения к внешнему API.
type BackendConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// NewBackend создает бэкенд по имени провайдера.
// Для gemini и openai без ключа возвращает ErrMissingCredential.
func NewBackend(ctx context.Context, cfg BackendConfig, logger *zap.Logger) (Backend, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	log := logger.Named("GenerationBackend").With(zap.String("provider", provider))

	switch provider {
	case ProviderGemini, "":
		if cfg.APIKey == "" {
			return nil, ErrMissingCredential
		}
		log.Info("Using generation backend: Gemini")
		backend, err := newGeminiBackend(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, ErrMissingCredential
		}
		log.Info("Using generation backend: OpenAI-compatible")
		return newOpenAIBackend(cfg, log), nil
	case ProviderOllama:
		log.Info("Using generation backend: Ollama")
		backend, err := newOllamaBackend(cfg, log)
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("неизвестный провайдер генерации: '%s'", cfg.Provider)
	}
}
