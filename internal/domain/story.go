package domain

// Story представляет одну фанфик-переписку с метаданными и состоянием публикации.
// Порядок Messages - порядок разговора.
type Story struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Universe       string    `json:"universe"` // Свободный тег сеттинга
	Messages       []Message `json:"messages"`
	UpdatedAt      int64     `json:"updatedAt"` // epoch millis
	Author         *string   `json:"author,omitempty"`
	AuthorID       *string   `json:"authorId,omitempty"`
	PreferredModel *AIModel  `json:"preferredModel,omitempty"`
	IsPublished    bool      `json:"isPublished"`
}

// DefaultUniverse - сеттинг новой истории.
const DefaultUniverse = "Original"

// Clone возвращает глубокую копию истории. Снапшоты в сообществе и результаты запросов
// никогда не делят срезы и указатели с приватной копией.
func (s Story) Clone() Story {
	out := s
	if s.Messages != nil {
		out.Messages = make([]Message, len(s.Messages))
		copy(out.Messages, s.Messages)
	}
	if s.Author != nil {
		v := *s.Author
		out.Author = &v
	}
	if s.AuthorID != nil {
		v := *s.AuthorID
		out.AuthorID = &v
	}
	if s.PreferredModel != nil {
		v := *s.PreferredModel
		out.PreferredModel = &v
	}
	return out
}

// MessageIndex возвращает позицию сообщения по ID или -1.
func (s Story) MessageIndex(msgID string) int {
	for i, m := range s.Messages {
		if m.ID == msgID {
			return i
		}
	}
	return -1
}

// AuthorName возвращает имя автора или fallback, если оно не задано.
func (s Story) AuthorName(fallback string) string {
	if s.Author == nil || *s.Author == "" {
		return fallback
	}
	return *s.Author
}

// CloneStories копирует коллекцию целиком.
func CloneStories(in []Story) []Story {
	if in == nil {
		return nil
	}
	out := make([]Story, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
