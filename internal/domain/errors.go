package domain

import "errors"

var (
	// Ошибки поиска
	ErrStoryNotFound   = errors.New("story not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrIndexOutOfRange = errors.New("message index out of range")
	ErrIdeaNotFound    = errors.New("idea not found")
	ErrUnknownModel    = errors.New("unknown model")

	// Отклоненные операции: состояние не меняется
	ErrEmptyInput           = errors.New("input is empty")
	ErrGenerationInProgress = errors.New("generation is already in progress")
	ErrNotConfirmed         = errors.New("operation was not confirmed")
)
