package joinrequests

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound          = errors.New("join request not found")
	ErrDuplicatePending  = errors.New("join request already exists")
	ErrInvalidTransition = errors.New("join request already resolved")
	QueryTimeoutDuration = time.Second * 5
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Transition returns the status after moving from s to next. Only
// pending -> approved and pending -> rejected are allowed; repeating the
// terminal status a request already holds is accepted as a no-op.
func (s Status) Transition(next Status) (Status, error) {
	if !next.Valid() || next == StatusPending {
		return s, fmt.Errorf("%w: cannot move to %q", ErrInvalidTransition, next)
	}
	switch s {
	case StatusPending:
		return next, nil
	case next:
		return s, nil
	default:
		return s, fmt.Errorf("%w: request is %s", ErrInvalidTransition, s)
	}
}

type JoinRequest struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	GroupID   string    `json:"group_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
