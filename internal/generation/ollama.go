package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// ollamaBackend реализует Backend через нативный API Ollama. Ключ не нужен.
type ollamaBackend struct {
	client *api.Client
	logger *zap.Logger
}

var _ Backend = (*ollamaBackend)(nil)

func newOllamaBackend(cfg BackendConfig, logger *zap.Logger) (*ollamaBackend, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	// api.NewClient ожидает URL без суффикса /v1
	baseURL = strings.TrimSuffix(baseURL, "/v1")
	baseURL = strings.TrimSuffix(baseURL, "/")

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга Ollama Base URL '%s': %w", baseURL, err)
	}

	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &statusTransport{base: http.DefaultTransport},
	}
	client := api.NewClient(parsedURL, httpClient)
	logger.Debug("Ollama client created", zap.String("baseURL", baseURL), zap.Duration("timeout", cfg.Timeout))
	return &ollamaBackend{client: client, logger: logger}, nil
}

func (b *ollamaBackend) Name() string { return ProviderOllama }

// GenerateContent выполняет один нестримовый Chat-запрос.
func (b *ollamaBackend) GenerateContent(ctx context.Context, req Request) (Response, error) {
	messages := make([]api.Message, 0, len(req.Contents)+1)
	if req.SystemInstruction != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.SystemInstruction})
	}
	for _, turn := range req.Contents {
		role := "user"
		if turn.Role == ExternalRoleModel {
			role = "assistant"
		}
		messages = append(messages, api.Message{Role: role, Content: turn.Text})
	}

	options := map[string]interface{}{}
	if req.Temperature != nil {
		options["temperature"] = *req.Temperature
	}
	if req.TopP != nil {
		options["top_p"] = *req.TopP
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}
	if req.ResponseMIMEType == "application/json" {
		chatReq.Format = json.RawMessage(`"json"`)
	}

	var resp api.ChatResponse
	err := b.client.Chat(ctx, chatReq, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return Response{}, apiErr
		}
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return Response{}, &APIError{Provider: ProviderOllama, StatusCode: statusErr.StatusCode, Err: err}
		}
		return Response{}, fmt.Errorf("Ollama chat failed: %w", err)
	}

	return Response{
		Text:             resp.Message.Content,
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
	}, nil
}

// statusTransport превращает HTTP-ответ с кодом >= 400 в *APIError до разбора тела клиентом.
// api.Client отдает тело {"error": ...} как ошибку без статуса, и без этого 429/5xx
// не отличить от терминальной ошибки.
type statusTransport struct {
	base http.RoundTripper
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return nil, &APIError{Provider: ProviderOllama, StatusCode: resp.StatusCode, Err: errors.New(msg)}
}
