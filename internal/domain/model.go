package domain

import (
	"fmt"
	"strings"
)

// AIModel - идентификатор модели генерации из закрытого каталога.
type AIModel string

const (
	ModelFlash AIModel = "gemini-3-flash-preview"   // Быстрая модель, по умолчанию
	ModelPro   AIModel = "gemini-3-pro-preview"     // Длинные арки и богатые описания
	ModelLite  AIModel = "gemini-flash-lite-latest" // Лёгкая модель
)

// DefaultModel используется, пока пользователь не выбрал другую модель.
const DefaultModel = ModelFlash

// ModelInfo описывает модель для выбора в интерфейсе.
type ModelInfo struct {
	ID          AIModel
	Name        string
	Description string
}

var modelCatalog = []ModelInfo{
	{
		ID:          ModelFlash,
		Name:        "Flash",
		Description: "Velocidade máxima. Ideal para diálogos rápidos, humor e brainstorm de ideias.",
	},
	{
		ID:          ModelPro,
		Name:        "Pro",
		Description: "Alta fidelidade narrativa. Excelente para descrições ricas, coerência complexa e arcos longos.",
	},
	{
		ID:          ModelLite,
		Name:        "Lite",
		Description: "Eficiente e leve. Focado em manter a estrutura básica sem distrações.",
	},
}

// Models возвращает копию статического каталога моделей.
func Models() []ModelInfo {
	out := make([]ModelInfo, len(modelCatalog))
	copy(out, modelCatalog)
	return out
}

// Valid проверяет, что модель есть в каталоге.
func (m AIModel) Valid() bool {
	switch m {
	case ModelFlash, ModelPro, ModelLite:
		return true
	default:
		return false
	}
}

// Info возвращает описание модели из каталога.
func (m AIModel) Info() (ModelInfo, bool) {
	for _, info := range modelCatalog {
		if info.ID == m {
			return info, true
		}
	}
	return ModelInfo{}, false
}

// ParseAIModel принимает как идентификатор, так и отображаемое имя (без учета регистра).
func ParseAIModel(s string) (AIModel, error) {
	for _, info := range modelCatalog {
		if string(info.ID) == s || strings.EqualFold(info.Name, s) {
			return info.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
}
