package service

import (
	"strings"
)

// cleanJSONResponse убирает markdown-ограждение вокруг JSON-ответа модели
// и дописывает незакрытые фигурные скобки.
func cleanJSONResponse(response string) string {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "{}"
	}
	return closeBraces(cleaned)
}

// closeBraces считает скобки вне строк и добавляет недостающие закрывающие.
func closeBraces(jsonStr string) string {
	depth := 0
	inString := false
	escaped := false
	for _, char := range jsonStr {
		switch {
		case escaped:
			escaped = false
		case char == '\\' && inString:
			escaped = true
		case char == '"':
			inString = !inString
		case !inString && char == '{':
			depth++
		case !inString && char == '}':
			depth--
		}
	}
	if depth > 0 {
		return jsonStr + strings.Repeat("}", depth)
	}
	return jsonStr
}
