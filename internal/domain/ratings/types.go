package ratings

import (
	"errors"
	"time"
)

var (
	ErrDuplicate         = errors.New("already rated this user for this trip")
	QueryTimeoutDuration = time.Second * 5
)

type Rating struct {
	ID         string    `json:"id"`
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	GroupID    string    `json:"group_id"`
	Stars      int       `json:"stars"` // 1-5
	Review     *string   `json:"review"`
	CreatedAt  time.Time `json:"created_at"`
}
