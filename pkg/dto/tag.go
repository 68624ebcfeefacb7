package dto

import (
	"time"

	"github.com/google/uuid"
)

// TagRead is a tag together with how many accounts reference it.
type TagRead struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Usage     int64     `json:"usage"`
	CreatedAt time.Time `json:"created_at"`
}
