package messages

import "time"

var QueryTimeoutDuration = time.Second * 5

// Message is a chat line in a group. SenderName is captured when the message
// is sent and never refreshed.
type Message struct {
	ID         string    `json:"id"`
	GroupID    string    `json:"group_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
