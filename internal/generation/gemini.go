package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// geminiBackend реализует Backend через Google GenAI SDK.
type geminiBackend struct {
	client *genai.Client
	logger *zap.Logger
}

var _ Backend = (*geminiBackend)(nil)

func newGeminiBackend(ctx context.Context, cfg BackendConfig, logger *zap.Logger) (*geminiBackend, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	logger.Debug("GenAI client created", zap.String("baseURL", cfg.BaseURL), zap.Duration("timeout", cfg.Timeout))
	return &geminiBackend{client: client, logger: logger}, nil
}

func (b *geminiBackend) Name() string { return ProviderGemini }

// GenerateContent отправляет историю в Models.GenerateContent.
func (b *geminiBackend) GenerateContent(ctx context.Context, req Request) (Response, error) {
	contents := make([]*genai.Content, 0, len(req.Contents))
	for _, turn := range req.Contents {
		role := genai.Role(genai.RoleUser)
		if turn.Role == ExternalRoleModel {
			role = genai.Role(genai.RoleModel)
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}

	config := &genai.GenerateContentConfig{
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		ResponseMIMEType: req.ResponseMIMEType,
	}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	resp, err := b.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return Response{}, &APIError{Provider: ProviderGemini, StatusCode: apiErr.Code, Err: err}
		}
		var apiErrPtr *genai.APIError
		if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
			return Response{}, &APIError{Provider: ProviderGemini, StatusCode: apiErrPtr.Code, Err: err}
		}
		return Response{}, fmt.Errorf("GenAI generate failed: %w", err)
	}
	if resp == nil {
		return Response{}, fmt.Errorf("%w: nil GenAI response", ErrMalformedResponse)
	}

	out := Response{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}
