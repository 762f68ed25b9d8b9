package membership

import (
	"context"
	"errors"
	"fmt"

	"travelmate/internal/domain/groups"
	"travelmate/internal/domain/joinrequests"
	"travelmate/internal/domain/users"
)

// RequestJoin files a pending join request for userID.
func (m *Manager) RequestJoin(ctx context.Context, userID, groupID string) (*joinrequests.JoinRequest, error) {
	group, err := m.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.HasMember(userID) {
		return nil, ErrAlreadyMember
	}
	if group.IsFull() {
		return nil, ErrGroupFull
	}

	pending, err := m.requests.HasPending(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("check pending request: %w", err)
	}
	if pending {
		return nil, ErrDuplicateRequest
	}

	req := &joinrequests.JoinRequest{
		ID:        m.newID(),
		UserID:    userID,
		GroupID:   groupID,
		Status:    joinrequests.StatusPending,
		CreatedAt: m.now().UTC(),
	}
	if err := m.requests.Create(ctx, req); err != nil {
		// a concurrent request won the unique index
		if errors.Is(err, joinrequests.ErrDuplicatePending) {
			return nil, ErrDuplicateRequest
		}
		return nil, fmt.Errorf("create join request: %w", err)
	}
	return req, nil
}

func (m *Manager) ListPendingRequests(ctx context.Context, requesterID, groupID string) ([]PendingRequest, error) {
	if _, err := m.GroupForAdmin(ctx, requesterID, groupID); err != nil {
		return nil, err
	}

	reqs, err := m.requests.ListPending(ctx, groupID, MaxResults)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}

	out := make([]PendingRequest, 0, len(reqs))
	for _, req := range reqs {
		user, err := m.users.GetByID(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, PendingRequest{Request: req, User: user})
	}
	return out, nil
}

// ApproveRequest adds the requesting user to the group and marks the request
// approved. Approving an approved request again is a no-op.
//
// The member add comes first and is conditioned on capacity by the store; a
// request is only marked approved once its user is a member. If a concurrent
// reject resolves the request in between, the member added here is removed
// again. A resolved request never changes status.
func (m *Manager) ApproveRequest(ctx context.Context, adminID, groupID, requestID string) (*joinrequests.JoinRequest, error) {
	group, err := m.GroupForAdmin(ctx, adminID, groupID)
	if err != nil {
		return nil, err
	}
	req, err := m.requestInGroup(ctx, groupID, requestID)
	if err != nil {
		return nil, err
	}

	if _, err := req.Status.Transition(joinrequests.StatusApproved); err != nil {
		return nil, err
	}
	if req.Status == joinrequests.StatusApproved {
		return req, nil
	}

	if !group.HasMember(req.UserID) && group.IsFull() {
		return nil, ErrGroupFull
	}

	// set union, so a retried approval adds nothing
	if err := m.groups.AddMember(ctx, groupID, req.UserID); err != nil {
		if errors.Is(err, groups.ErrGroupFull) {
			return nil, ErrGroupFull
		}
		return nil, fmt.Errorf("add member: %w", err)
	}

	if err := m.resolve(ctx, req, joinrequests.StatusApproved); err != nil {
		// a user with a pending request is never already a member, so the
		// add above is the only way they got in
		if errors.Is(err, ErrInvalidTransition) {
			if rerr := m.groups.RemoveMember(ctx, groupID, req.UserID); rerr != nil {
				err = errors.Join(err, fmt.Errorf("remove member %s: %w", req.UserID, rerr))
			}
		}
		return nil, err
	}
	return req, nil
}

// RejectRequest moves a pending request to rejected. Group membership is
// not touched.
func (m *Manager) RejectRequest(ctx context.Context, adminID, groupID, requestID string) (*joinrequests.JoinRequest, error) {
	if _, err := m.GroupForAdmin(ctx, adminID, groupID); err != nil {
		return nil, err
	}
	req, err := m.requestInGroup(ctx, groupID, requestID)
	if err != nil {
		return nil, err
	}

	if _, err := req.Status.Transition(joinrequests.StatusRejected); err != nil {
		return nil, err
	}
	if req.Status == joinrequests.StatusRejected {
		return req, nil
	}

	if err := m.resolve(ctx, req, joinrequests.StatusRejected); err != nil {
		return nil, err
	}
	return req, nil
}

func (m *Manager) requestInGroup(ctx context.Context, groupID, requestID string) (*joinrequests.JoinRequest, error) {
	req, err := m.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, joinrequests.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if req.GroupID != groupID {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// resolve moves req from pending to next. When another caller resolved it
// first, req is refreshed and the call succeeds only if the request already
// holds next.
func (m *Manager) resolve(ctx context.Context, req *joinrequests.JoinRequest, next joinrequests.Status) error {
	err := m.requests.Resolve(ctx, req.ID, next)
	if err == nil {
		req.Status = next
		return nil
	}
	if !errors.Is(err, joinrequests.ErrInvalidTransition) {
		return fmt.Errorf("update request status: %w", err)
	}

	current, err := m.requests.GetByID(ctx, req.ID)
	if err != nil {
		return err
	}
	*req = *current
	if current.Status != next {
		return fmt.Errorf("%w: request is %s", ErrInvalidTransition, current.Status)
	}
	return nil
}
