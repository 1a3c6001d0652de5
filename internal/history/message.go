package history

import "time"

// Entry is one line of a session transcript. Entries outlive Clear: the chat
// session forgets them, the transcript does not.
type Entry struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	MessageID string    `json:"message_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
