package store

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	Plan         string    `json:"plan"`
	CreatedAt    time.Time `json:"created_at"`
}

type Lead struct {
	ID        string    `json:"id"`      // Using UUID for external ID
	UserID    *int64    `json:"user_id"` // Nullable, set when a logged-in user submits
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Plan      string    `json:"plan"`
	Goal      string    `json:"goal"`
	Details   string    `json:"details"`
	Source    string    `json:"source"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Roles a persisted chat message can carry. Tool-call sub-exchanges are never
// persisted, so these two are the only roles that reach the transcript.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ChatMessage is one half of a chat turn as kept in the transcript cache.
type ChatMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
