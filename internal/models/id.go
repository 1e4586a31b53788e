package models

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID returns prefix plus twelve hex characters, matching the shape of
// the backend's thread ids.
func NewID(prefix string) string {
	id := uuid.New()
	return prefix + hex.EncodeToString(id[:])[:12]
}
