package generation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"chatfic/internal/domain"
	"chatfic/internal/i18n"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
	jsonMIMEType       = "application/json"
)

// Outcome - внутренний итог вызова Generate.
// Для RetriesExhausted и TerminalFailure текст одинаковый, различается только Outcome.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeCreativeBlock
	OutcomeRetriesExhausted
	OutcomeTerminalFailure
	OutcomeConfigurationError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeCreativeBlock:
		return "creative_block"
	case OutcomeRetriesExhausted:
		return "retries_exhausted"
	case OutcomeTerminalFailure:
		return "terminal_failure"
	case OutcomeConfigurationError:
		return "configuration_error"
	default:
		return "unknown"
	}
}

// Result - текст для истории и диагностика вызова.
type Result struct {
	Text     string
	Outcome  Outcome
	Attempts int
	Err      error // nil для OutcomeSuccess и OutcomeCreativeBlock
}

// Config - политика повторов и фиксированные параметры запроса.
type Config struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	SystemInstruction string
	Temperature       float32
	TopP              float32
	// ModelAliases сопоставляет id модели из каталога с именем у провайдера.
	ModelAliases map[string]string
}

// DefaultConfig возвращает 3 попытки, задержку 500ms и фиксированную персону.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       DefaultMaxAttempts,
		BaseDelay:         DefaultBaseDelay,
		SystemInstruction: SystemInstruction,
		Temperature:       DefaultTemperature,
		TopP:              DefaultTopP,
	}
}

// Sleeper ждет d или отмену ctx.
type Sleeper func(ctx context.Context, d time.Duration) error

// Client выполняет генерацию с ограниченным числом повторов и экспоненциальной задержкой.
// Ничего не знает об историях, только об истории сообщений.
type Client struct {
	backend   Backend
	cfg       Config
	logger    *zap.Logger
	metrics   *Metrics
	estimator TokenEstimator
	sleep     Sleeper
	texts     func() i18n.Texts
}

// Option настраивает Client.
type Option func(*Client)

// WithSleeper подменяет ожидание между попытками (для тестов).
func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

// WithMetrics включает запись метрик.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTokenEstimator включает оценку токенов промпта.
func WithTokenEstimator(e TokenEstimator) Option {
	return func(c *Client) { c.estimator = e }
}

// WithTexts задает источник локализованных fallback-строк.
func WithTexts(texts func() i18n.Texts) Option {
	return func(c *Client) { c.texts = texts }
}

// NewClient создает клиента. backend == nil означает, что ключ API не настроен:
// Generate сразу вернет текст об ошибке конфигурации без сетевых вызовов.
func NewClient(backend Backend, cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay < 0 {
		cfg.BaseDelay = 0
	}
	c := &Client{
		backend: backend,
		cfg:     cfg,
		logger:  logger.Named("GenerationClient"),
		sleep:   sleepContext,
		texts:   func() i18n.Texts { return i18n.For(domain.DefaultLanguage) },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backoff возвращает задержку перед попыткой attempt+1: BaseDelay * 2^(attempt-1),
// то есть 500ms, 1000ms, 2000ms при BaseDelay = 500ms. Первая пауза равна BaseDelay,
// а не 2*BaseDelay, как в формуле 2^attempt * 500 из прежней веб-версии.
func (c *Client) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return c.cfg.BaseDelay * time.Duration(1<<uint(attempt-1))
}

// Generate продолжает историю выбранной моделью. Никогда не возвращает ошибку вызывающему:
// все неудачи превращаются в локализованный текст.
func (c *Client) Generate(ctx context.Context, history []domain.Message, model domain.AIModel) Result {
	texts := c.texts()
	modelName := c.resolveModel(model)

	if c.backend == nil {
		c.logger.Error("Generation skipped: API credential is not configured", zap.String("model", modelName))
		c.metrics.observeOutcome(modelName, OutcomeConfigurationError)
		return Result{Text: texts.MissingCredential, Outcome: OutcomeConfigurationError, Err: ErrMissingCredential}
	}

	temperature, topP := c.cfg.Temperature, c.cfg.TopP
	req := Request{
		Model:             modelName,
		Contents:          ToContents(history),
		SystemInstruction: c.cfg.SystemInstruction,
		Temperature:       &temperature,
		TopP:              &topP,
	}

	resp, attempts, err := c.execute(ctx, req)
	result := Result{Attempts: attempts, Err: err}
	switch {
	case err == nil && resp.Text == "":
		result.Text = texts.CreativeBlock
		result.Outcome = OutcomeCreativeBlock
	case err == nil:
		result.Text = resp.Text
		result.Outcome = OutcomeSuccess
	case errors.Is(err, ErrRetriesExhausted):
		result.Text = texts.ServersBusy
		result.Outcome = OutcomeRetriesExhausted
	default:
		result.Text = texts.ServersBusy
		result.Outcome = OutcomeTerminalFailure
	}

	c.metrics.observeOutcome(modelName, result.Outcome)
	c.logger.Debug("Generation finished",
		zap.String("model", modelName),
		zap.Stringer("outcome", result.Outcome),
		zap.Int("attempts", attempts),
	)
	return result
}

// GenerateJSON запрашивает структурированный JSON-ответ на одиночный промпт.
// В отличие от Generate, ошибки возвращаются вызывающему.
func (c *Client) GenerateJSON(ctx context.Context, model domain.AIModel, prompt string) (string, error) {
	if c.backend == nil {
		return "", ErrMissingCredential
	}
	req := Request{
		Model:            c.resolveModel(model),
		Contents:         []Turn{{Role: ExternalRoleUser, Text: prompt}},
		ResponseMIMEType: jsonMIMEType,
	}
	resp, _, err := c.execute(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// execute - цикл попыток. Возвращает ответ, число сделанных попыток и ошибку,
// обернутую в ErrRetriesExhausted или ErrTerminalFailure.
func (c *Client) execute(ctx context.Context, req Request) (Response, int, error) {
	if c.estimator != nil {
		c.metrics.observePromptTokens(req.Model, estimateRequestTokens(c.estimator, req))
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		start := time.Now()
		resp, err := c.backend.GenerateContent(ctx, req)
		elapsed := time.Since(start)

		if err == nil {
			c.metrics.observeAttempt(req.Model, "success", elapsed)
			if resp.PromptTokens > 0 {
				c.metrics.observePromptTokens(req.Model, resp.PromptTokens)
			}
			return resp, attempt, nil
		}

		lastErr = err
		retryable := IsRetryable(err)
		c.metrics.observeAttempt(req.Model, statusLabel(err), elapsed)
		c.logger.Warn("Generation attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", c.cfg.MaxAttempts),
			zap.String("backend", c.backend.Name()),
			zap.String("model", req.Model),
			zap.Bool("retryable", retryable),
			zap.Error(err),
		)

		if !retryable {
			return Response{}, attempt, fmt.Errorf("%w: %w", ErrTerminalFailure, err)
		}
		if attempt == c.cfg.MaxAttempts {
			break
		}

		delay := c.Backoff(attempt)
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return Response{}, attempt, fmt.Errorf("%w: %w", ErrTerminalFailure, sleepErr)
		}
	}

	return Response{}, c.cfg.MaxAttempts, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, c.cfg.MaxAttempts, lastErr)
}

func (c *Client) resolveModel(model domain.AIModel) string {
	if model == "" {
		model = domain.DefaultModel
	}
	if alias, ok := c.cfg.ModelAliases[string(model)]; ok && alias != "" {
		return alias
	}
	return string(model)
}

func statusLabel(err error) string {
	if code, ok := StatusCode(err); ok {
		return strconv.Itoa(code)
	}
	return "error"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
