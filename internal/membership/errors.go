package membership

import (
	"errors"

	"travelmate/internal/domain/joinrequests"
)

var (
	ErrGroupNotFound    = errors.New("Group not found")
	ErrRequestNotFound  = errors.New("Request not found")
	ErrAlreadyMember    = errors.New("Already a member")
	ErrGroupFull        = errors.New("Group is full")
	ErrDuplicateRequest = errors.New("Join request already exists")
	ErrNotAuthorized    = errors.New("Not authorized")
	// ErrInvalidTransition is returned when a resolved request is moved to
	// the other terminal status.
	ErrInvalidTransition = joinrequests.ErrInvalidTransition
)
