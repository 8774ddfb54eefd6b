package utils

import (
	"github.com/google/uuid"
)

// NewPlayerID creates a new UUID for identifying a player within a room
func NewPlayerID() string {
	return uuid.New().String()
}
