package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный админ-секрет).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (например, попытка
	// запустить уже запущенную комнату).
	ErrConflict = errors.New("resource state conflict")
)

// Ожидаемые исходы конкуренции за комнату. Это НЕ исключительные ситуации:
// под нагрузкой они возникают постоянно и возвращаются как обычные значения.
var (
	// ErrRoomClosed - комната истекла, закрыта или отменена.
	ErrRoomClosed = errors.New("room is closed")

	// ErrRoomFull - лимит участников исчерпан.
	ErrRoomFull = errors.New("room is full")

	// ErrAlreadySubmitted - участник уже отправил финальные ответы.
	ErrAlreadySubmitted = errors.New("already submitted")
)
