package domain

import (
	"encoding/json"
	"fmt"
)

// Role определяет автора реплики в истории.
type Role string

const (
	RoleUser      Role = "user"      // Реплика пользователя
	RoleAssistant Role = "assistant" // Ответ модели
)

// Valid проверяет, что роль входит в закрытый список.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// UnmarshalJSON отклоняет неизвестные роли, чтобы испорченное состояние не попадало в стор.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	role := Role(s)
	if !role.Valid() {
		return fmt.Errorf("unknown message role %q", s)
	}
	*r = role
	return nil
}

// Message - одна реплика истории. После создания меняется только Content.
type Message struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // epoch millis
}
