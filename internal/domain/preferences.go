package domain

import "fmt"

// Language - язык интерфейса и экспортов.
type Language string

const (
	LanguagePtBR Language = "pt-BR"
	LanguageEnUS Language = "en-US"
)

// DefaultLanguage используется, пока язык не сохранен.
const DefaultLanguage = LanguagePtBR

// Valid проверяет, что язык поддерживается.
func (l Language) Valid() bool {
	switch l {
	case LanguagePtBR, LanguageEnUS:
		return true
	default:
		return false
	}
}

// ParseLanguage разбирает код языка.
func ParseLanguage(s string) (Language, error) {
	l := Language(s)
	if !l.Valid() {
		return "", fmt.Errorf("unsupported language %q", s)
	}
	return l, nil
}

// FontFamily - шрифт окна чата.
type FontFamily string

const (
	FontSans  FontFamily = "sans"
	FontSerif FontFamily = "serif"
	FontMono  FontFamily = "mono"
)

// DefaultFontFamily - шрифт по умолчанию.
const DefaultFontFamily = FontSerif

// Valid проверяет, что шрифт из закрытого списка.
func (f FontFamily) Valid() bool {
	switch f {
	case FontSans, FontSerif, FontMono:
		return true
	default:
		return false
	}
}

// ParseFontFamily разбирает имя шрифта.
func ParseFontFamily(s string) (FontFamily, error) {
	f := FontFamily(s)
	if !f.Valid() {
		return "", fmt.Errorf("unsupported font family %q", s)
	}
	return f, nil
}

// Границы размера шрифта чата.
const (
	DefaultFontSize = 18
	MinFontSize     = 12
	MaxFontSize     = 32
)

// ClampFontSize приводит размер к допустимому диапазону.
func ClampFontSize(size int) int {
	if size < MinFontSize {
		return MinFontSize
	}
	if size > MaxFontSize {
		return MaxFontSize
	}
	return size
}

// User - локальный профиль автора. Аутентификации нет.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AnonymousAuthorID записывается в истории, созданные без профиля.
const AnonymousAuthorID = "anon"
