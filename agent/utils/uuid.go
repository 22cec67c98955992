package utils

import (
	"github.com/google/uuid"
)

// UUID returns a new random identifier for messages and records.
func UUID() string {
	return uuid.New().String()
}
