package pushtokens

import "time"

var QueryTimeoutDuration = time.Second * 5

type PushToken struct {
	UserID      string    `json:"user_id"`
	Token       string    `json:"token"`
	LastUpdated time.Time `json:"last_updated"`
}
