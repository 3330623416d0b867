package service

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatfic/internal/domain"
	"chatfic/internal/i18n"
	"chatfic/internal/persistence"
)

// Значения профиля по умолчанию при входе без имени и почты.
const (
	DefaultUserName  = "Autor Criativo"
	DefaultUserEmail = "autor@chatfic.ai"
)

// Settings хранит пользовательские предпочтения и локальный профиль.
// Каждое изменение сразу ставится на сохранение.
type Settings struct {
	mu         sync.RWMutex
	language   domain.Language
	darkMode   bool
	fontSize   int
	fontFamily domain.FontFamily
	model      domain.AIModel
	user       *domain.User

	persister Persister
	logger    *zap.Logger
	newID     func() string
}

// NewSettings восстанавливает настройки из снапшота.
func NewSettings(snap persistence.Snapshot, persister Persister, logger *zap.Logger) *Settings {
	s := &Settings{
		language:   snap.Language,
		darkMode:   snap.DarkMode,
		fontSize:   domain.ClampFontSize(snap.FontSize),
		fontFamily: snap.FontFamily,
		model:      snap.Model,
		persister:  persister,
		logger:     logger.Named("Settings"),
		newID:      uuid.NewString,
	}
	if !s.language.Valid() {
		s.language = domain.DefaultLanguage
	}
	if !s.fontFamily.Valid() {
		s.fontFamily = domain.DefaultFontFamily
	}
	if !s.model.Valid() {
		s.model = domain.DefaultModel
	}
	if snap.User != nil {
		u := *snap.User
		s.user = &u
	}
	return s
}

func (s *Settings) Language() domain.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// Texts возвращает строки для текущего языка.
func (s *Settings) Texts() i18n.Texts {
	return i18n.For(s.Language())
}

func (s *Settings) SetLanguage(lang domain.Language) error {
	if !lang.Valid() {
		return fmt.Errorf("unsupported language %q", lang)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = lang
	s.persister.Put(persistence.KeyLanguage, string(lang))
	return nil
}

func (s *Settings) DarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.darkMode
}

func (s *Settings) SetDarkMode(dark bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.darkMode = dark
	s.persister.Put(persistence.KeyTheme, strconv.FormatBool(dark))
}

// ToggleDarkMode переключает тему и возвращает новое значение.
func (s *Settings) ToggleDarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.darkMode = !s.darkMode
	s.persister.Put(persistence.KeyTheme, strconv.FormatBool(s.darkMode))
	return s.darkMode
}

func (s *Settings) FontSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fontSize
}

// SetFontSize сохраняет размер, приведенный к [MinFontSize, MaxFontSize], и возвращает его.
func (s *Settings) SetFontSize(size int) int {
	size = domain.ClampFontSize(size)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fontSize = size
	s.persister.Put(persistence.KeyFontSize, strconv.Itoa(size))
	return size
}

func (s *Settings) FontFamily() domain.FontFamily {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fontFamily
}

func (s *Settings) SetFontFamily(family domain.FontFamily) error {
	if !family.Valid() {
		return fmt.Errorf("unsupported font family %q", family)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fontFamily = family
	s.persister.Put(persistence.KeyFontFamily, string(family))
	return nil
}

// Model - модель, выбранная для новых генераций.
func (s *Settings) Model() domain.AIModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

func (s *Settings) SetModel(model domain.AIModel) error {
	if !model.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownModel, model)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
	s.persister.Put(persistence.KeyModel, string(model))
	return nil
}

// User возвращает копию профиля или nil, если вход не выполнен.
func (s *Settings) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// SignIn создает локальный профиль. Пароли и проверка личности не поддерживаются.
func (s *Settings) SignIn(name, email string) domain.User {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultUserName
	}
	email = strings.TrimSpace(email)
	if email == "" {
		email = DefaultUserEmail
	}
	user := domain.User{ID: s.newID(), Name: name, Email: email}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
	s.persister.PutJSON(persistence.KeyUser, user)
	s.logger.Info("Local profile signed in", zap.String("userID", user.ID))
	return user
}

// SignOut удаляет локальный профиль.
func (s *Settings) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.persister.Remove(persistence.KeyUser)
}
