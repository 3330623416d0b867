package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"chatfic/internal/domain"
)

// Роли во внешнем формате диалога.
const (
	ExternalRoleUser  = "user"
	ExternalRoleModel = "model"
)

var (
	// ErrMissingCredential - ключ API не настроен, сетевой вызов не выполняется.
	ErrMissingCredential = errors.New("generation API credential is not configured")
	// ErrMalformedResponse - ответ бэкенда не удалось разобрать.
	ErrMalformedResponse = errors.New("malformed generation response")
	// ErrRetriesExhausted - все попытки израсходованы на повторяемые ошибки.
	ErrRetriesExhausted = errors.New("generation retries exhausted")
	// ErrTerminalFailure - ошибка, после которой повтор не имеет смысла.
	ErrTerminalFailure = errors.New("generation failed with a terminal error")
)

// Turn - одна реплика во внешнем формате.
type Turn struct {
	Role string // ExternalRoleUser или ExternalRoleModel
	Text string
}

// Request - один вызов бэкенда генерации.
type Request struct {
	Model             string
	Contents          []Turn
	SystemInstruction string
	Temperature       *float32
	TopP              *float32
	ResponseMIMEType  string // "application/json" для структурированного ответа
}

// Response - текст модели и счетчики токенов, если бэкенд их вернул.
type Response struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Backend выполняет ровно один запрос к внешнему API, без повторов.
// Ошибки с HTTP-статусом должны оборачиваться в *APIError.
type Backend interface {
	GenerateContent(ctx context.Context, req Request) (Response, error)
	Name() string
}

// APIError - ошибка транспорта с HTTP-статусом.
type APIError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %v", e.Provider, e.StatusCode, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// StatusCode извлекает HTTP-статус из цепочки ошибок.
func StatusCode(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode > 0 {
		return apiErr.StatusCode, true
	}
	return 0, false
}

// IsRetryable сообщает, можно ли повторить запрос: только 429 и диапазон [500, 600).
// Сетевые ошибки без статуса и испорченные ответы не повторяются.
func IsRetryable(err error) bool {
	code, ok := StatusCode(err)
	if !ok {
		return false
	}
	return code == http.StatusTooManyRequests || (code >= 500 && code < 600)
}

// ToContents переводит историю в формат внешнего API: assistant -> model, user -> user.
// Текст передается как есть.
func ToContents(history []domain.Message) []Turn {
	contents := make([]Turn, 0, len(history))
	for _, m := range history {
		role := ExternalRoleUser
		switch m.Role {
		case domain.RoleAssistant:
			role = ExternalRoleModel
		case domain.RoleUser:
			role = ExternalRoleUser
		}
		contents = append(contents, Turn{Role: role, Text: m.Content})
	}
	return contents
}
