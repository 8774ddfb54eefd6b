package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	roomCodeRegex = regexp.MustCompile(`^[0-9]{3}$`)
)

// MaxPlayerNameLength is the longest display name accepted, in runes
const MaxPlayerNameLength = 32

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateRoomCode checks that a room code is exactly three digits
func ValidateRoomCode(code string) error {
	if code == "" {
		return ValidationError{Field: "roomCode", Message: "room code is required"}
	}
	if !roomCodeRegex.MatchString(code) {
		return ValidationError{Field: "roomCode", Message: "room code must be 3 digits"}
	}
	return nil
}

// NormalizePlayerName trims a display name and checks its length
func NormalizePlayerName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ValidationError{Field: "playerName", Message: "player name is required"}
	}
	if utf8.RuneCountInString(name) > MaxPlayerNameLength {
		return "", ValidationError{Field: "playerName", Message: fmt.Sprintf("player name must be at most %d characters", MaxPlayerNameLength)}
	}
	return name, nil
}

// TruncatePlayerName trims a display name and cuts it to MaxPlayerNameLength runes.
// A blank name comes back empty.
func TruncatePlayerName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= MaxPlayerNameLength {
		return name
	}
	return strings.TrimSpace(string([]rune(name)[:MaxPlayerNameLength]))
}

// RequireField reports a missing value for the named field
func RequireField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	return nil
}
