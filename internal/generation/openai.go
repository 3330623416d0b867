package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// openAIBackend реализует Backend для любого OpenAI-совместимого API (OpenRouter по умолчанию).
type openAIBackend struct {
	client *openaigo.Client
	logger *zap.Logger
}

var _ Backend = (*openAIBackend)(nil)

func newOpenAIBackend(cfg BackendConfig, logger *zap.Logger) *openAIBackend {
	openaiConfig := openaigo.DefaultConfig(cfg.APIKey)
	openaiConfig.BaseURL = cfg.BaseURL
	if openaiConfig.BaseURL == "" {
		openaiConfig.BaseURL = DefaultOpenAIBaseURL
	}
	openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	logger.Debug("OpenAI client created", zap.String("baseURL", openaiConfig.BaseURL), zap.Duration("timeout", cfg.Timeout))
	return &openAIBackend{
		client: openaigo.NewClientWithConfig(openaiConfig),
		logger: logger,
	}
}

func (b *openAIBackend) Name() string { return ProviderOpenAI }

// GenerateContent отправляет историю в CreateChatCompletion.
func (b *openAIBackend) GenerateContent(ctx context.Context, req Request) (Response, error) {
	messages := make([]openaigo.ChatCompletionMessage, 0, len(req.Contents)+1)
	if req.SystemInstruction != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}
	for _, turn := range req.Contents {
		role := openaigo.ChatMessageRoleUser
		if turn.Role == ExternalRoleModel {
			role = openaigo.ChatMessageRoleAssistant
		}
		messages = append(messages, openaigo.ChatCompletionMessage{Role: role, Content: turn.Text})
	}

	chatReq := openaigo.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	}
	if req.Temperature != nil {
		chatReq.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		chatReq.TopP = *req.TopP
	}
	if req.ResponseMIMEType == "application/json" {
		chatReq.ResponseFormat = &openaigo.ChatCompletionResponseFormat{
			Type: openaigo.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := b.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Response{}, wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}

	return Response{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func wrapOpenAIError(err error) error {
	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &APIError{Provider: ProviderOpenAI, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openaigo.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &APIError{Provider: ProviderOpenAI, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return fmt.Errorf("OpenAI request failed: %w", err)
}
