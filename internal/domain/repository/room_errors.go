package repository

import "errors"

var (
	// ErrRoomCodeTaken означает, что код комнаты уже занят (гонка генератора кодов).
	ErrRoomCodeTaken = errors.New("room code already taken")

	// ErrDuplicateParticipantName означает нарушение уникальности (room_id, name).
	// Для вызывающего кода это сигнал rejoin-а, а не сбой.
	ErrDuplicateParticipantName = errors.New("participant name already taken in this room")
)
