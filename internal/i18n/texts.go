// Package i18n содержит статические строки интерфейса, экспортов и fallback-ответов генерации.
package i18n

import "chatfic/internal/domain"

// Texts - набор строк для одного языка.
type Texts struct {
	NewStoryTitle string // Заголовок новой истории
	Anonymous     string // Автор без профиля
	By            string // "por <автор>" в PDF
	AuthorLabel   string // Метаданные markdown
	UniverseLabel string

	// Подписи ролей в экспортах
	MarkdownUserLabel      string
	MarkdownAssistantLabel string
	DocumentUserLabel      string
	DocumentAssistantLabel string

	ConfirmDeleteMessage string
	ConfirmDeleteStory   string
	Published            string
	Unpublished          string

	// Генерация идей
	IdeaPrompt          string
	UntitledIdea        string
	GeneralCategory     string
	EmptyIdeaPrompt     string
	IdeaGenerationError string

	// Fallback-ответы клиента генерации
	CreativeBlock     string
	ServersBusy       string
	MissingCredential string
}

var ptBR = Texts{
	NewStoryTitle:          "Nova Fanfic",
	Anonymous:              "Anônimo",
	By:                     "por",
	AuthorLabel:            "Autor",
	UniverseLabel:          "Universo",
	MarkdownUserLabel:      "Autor",
	MarkdownAssistantLabel: "IA",
	DocumentUserLabel:      "Escritor:",
	DocumentAssistantLabel: "IA:",
	ConfirmDeleteMessage:   "Apagar esta mensagem permanentemente?",
	ConfirmDeleteStory:     "Tem certeza que deseja apagar esta fanfic inteira?",
	Published:              "Publicado na Comunidade!",
	Unpublished:            "Removido da comunidade.",
	IdeaPrompt:             "Gere uma ideia criativa e única para uma fanfic. Retorne APENAS um JSON no formato: { \"title\": \"Título\", \"category\": \"Categoria\", \"prompt\": \"Descrição da ideia\" }. Seja criativo e evite clichês.",
	UntitledIdea:           "Ideia sem título",
	GeneralCategory:        "Geral",
	EmptyIdeaPrompt:        "...",
	IdeaGenerationError:    "Erro ao gerar inspiração. Verifique sua chave de API.",
	CreativeBlock:          "Putz, deu um branco aqui na minha cabeça criativa. Vamos tentar de novo?",
	ServersBusy:            "Opa, nossos servidores estão recebendo muitas histórias agora! 🌪️ Pode tentar enviar sua mensagem novamente em alguns segundos?",
	MissingCredential:      "Erro: a chave da API não está configurada. Defina CHATFIC_AI_API_KEY e tente novamente.",
}

var enUS = Texts{
	NewStoryTitle:          "New Fanfic",
	Anonymous:              "Anonymous",
	By:                     "by",
	AuthorLabel:            "Author",
	UniverseLabel:          "Universe",
	MarkdownUserLabel:      "Author",
	MarkdownAssistantLabel: "AI",
	DocumentUserLabel:      "Writer:",
	DocumentAssistantLabel: "AI:",
	ConfirmDeleteMessage:   "Delete this message permanently?",
	ConfirmDeleteStory:     "Are you sure you want to delete this entire fanfic?",
	Published:              "Published to Community!",
	Unpublished:            "Removed from community.",
	IdeaPrompt:             "Generate a creative and unique fanfiction idea. Return ONLY a JSON in the format: { \"title\": \"Title\", \"category\": \"Category\", \"prompt\": \"Prompt description\" }. Be creative and avoid clichés.",
	UntitledIdea:           "Untitled Idea",
	GeneralCategory:        "General",
	EmptyIdeaPrompt:        "...",
	IdeaGenerationError:    "Error generating inspiration. Check your API key.",
	CreativeBlock:          "Oops, my creative mind just went blank. Shall we try again?",
	ServersBusy:            "Whoa, our servers are receiving a lot of stories right now! 🌪️ Could you try sending your message again in a few seconds?",
	MissingCredential:      "Error: the API key is not configured. Set CHATFIC_AI_API_KEY and try again.",
}

// For возвращает строки для языка; неизвестный язык дает pt-BR.
func For(lang domain.Language) Texts {
	switch lang {
	case domain.LanguageEnUS:
		return enUS
	case domain.LanguagePtBR:
		return ptBR
	default:
		return ptBR
	}
}

// RoleLabel возвращает подпись роли для markdown-экспорта.
func (t Texts) RoleLabel(role domain.Role) string {
	switch role {
	case domain.RoleAssistant:
		return t.MarkdownAssistantLabel
	case domain.RoleUser:
		return t.MarkdownUserLabel
	default:
		return t.MarkdownUserLabel
	}
}

// DocumentRoleLabel возвращает подпись роли для постраничного документа.
func (t Texts) DocumentRoleLabel(role domain.Role) string {
	switch role {
	case domain.RoleAssistant:
		return t.DocumentAssistantLabel
	case domain.RoleUser:
		return t.DocumentUserLabel
	default:
		return t.DocumentUserLabel
	}
}
