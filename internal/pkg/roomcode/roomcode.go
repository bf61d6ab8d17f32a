// Package roomcode генерирует короткие людочитаемые коды комнат.
package roomcode

import (
	"crypto/rand"
	"fmt"
)

// Алфавит без похожих символов (0/O, 1/I/L) - коды диктуют вслух и
// переписывают с доски.
const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Length - длина генерируемого кода
const Length = 6

// New возвращает новый код комнаты: Length символов из alphabet,
// криптостойкая энтропия. Уникальность гарантирует не генератор, а
// уникальный индекс по rooms.code - при коллизии вставка повторяется.
func New() (string, error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes for room code: %w", err)
	}
	code := make([]byte, Length)
	for i, b := range buf {
		code[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(code), nil
}
