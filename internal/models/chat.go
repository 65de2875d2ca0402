package models

type ChatRole string

const (
	RoleUser ChatRole = "user"
	RoleBot  ChatRole = "bot"
)

// ChatTurn is one rendered message. Live turns carry a stable id so an
// in-flight bot answer can be resolved in place, never appended twice.
type ChatTurn struct {
	ID      string   `json:"id"`
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
	Pending bool     `json:"pending,omitempty"`
}
