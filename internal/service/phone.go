package service

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeTo10Digits оставляет последние 10 цифр номера (без кода страны)
func NormalizeTo10Digits(mobile string) string {
	var b strings.Builder
	for _, r := range mobile {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

// ToBackendID бэкенд идентифицирует пользователя 12-значным числом:
// код страны 91 плюс 10-значный номер
func ToBackendID(userID string) (int64, error) {
	digits := NormalizeTo10Digits(userID)
	if len(digits) != 10 {
		return 0, fmt.Errorf("%w: invalid user ID format", ErrInvalidInput)
	}
	id, err := strconv.ParseInt("91"+digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid user ID format", ErrInvalidInput)
	}
	return id, nil
}
