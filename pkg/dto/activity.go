package dto

import (
	"time"

	"github.com/google/uuid"
)

// ActivityRead is one audit log line joined with the acting user's name.
type ActivityRead struct {
	ID        uuid.UUID  `json:"id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Username  string     `json:"username,omitempty"`
	Action    string     `json:"action"`
	IP        string     `json:"ip,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
