package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"travelmate/internal/domain/joinrequests"
	"travelmate/internal/notifications"
)

type JoinRequestResponse struct {
	Message string                    `json:"message"`
	Request *joinrequests.JoinRequest `json:"request,omitempty"`
}

// requestJoinHandler godoc
//
//	@Summary		Ask to join a group
//	@Description	Files a pending join request; the group admin is notified
//	@Tags			join-requests
//	@Produce		json
//	@Param			groupID	path		string	true	"Group ID"
//	@Success		200		{object}	JoinRequestResponse
//	@Failure		400		{object}	ErrorResponse	"Already a member, group full or request already pending"
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/groups/{groupID}/join-request [post]
func (app *application) requestJoinHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	groupID := chi.URLParam(r, "groupID")

	req, err := app.membership.RequestJoin(r.Context(), user.ID, groupID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if group, err := app.membership.GetGroup(r.Context(), groupID); err == nil && app.push != nil {
		notifications.CallAsync(app.logger, func(ctx context.Context) error {
			return notifications.SendJoinRequestToAdmin(ctx, app.push, app.store.PushTokens, group.AdminID, groupID, user.Name)
		})
	}

	if err := app.jsonResponse(w, http.StatusOK, JoinRequestResponse{Message: "Join request sent", Request: req}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listJoinRequestsHandler godoc
//
//	@Summary		Pending join requests
//	@Description	Admin only. Each entry pairs the request with the requester's profile.
//	@Tags			join-requests
//	@Produce		json
//	@Param			groupID	path		string	true	"Group ID"
//	@Success		200		{array}		membership.PendingRequest
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/groups/{groupID}/join-requests [get]
func (app *application) listJoinRequestsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	pending, err := app.membership.ListPendingRequests(r.Context(), user.ID, chi.URLParam(r, "groupID"))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, pending); err != nil {
		app.internalServerError(w, r, err)
	}
}

// approveJoinRequestHandler godoc
//
//	@Summary		Approve a join request
//	@Description	Admin only. Adds the requester to the group; approving twice is harmless.
//	@Tags			join-requests
//	@Produce		json
//	@Param			groupID		path		string	true	"Group ID"
//	@Param			requestID	path		string	true	"Join request ID"
//	@Success		200			{object}	JoinRequestResponse
//	@Failure		400			{object}	ErrorResponse	"Group full or request already rejected"
//	@Failure		403			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/groups/{groupID}/join-requests/{requestID}/approve [post]
func (app *application) approveJoinRequestHandler(w http.ResponseWriter, r *http.Request) {
	app.resolveJoinRequest(w, r, true)
}

// rejectJoinRequestHandler godoc
//
//	@Summary		Reject a join request
//	@Description	Admin only. Membership is not changed.
//	@Tags			join-requests
//	@Produce		json
//	@Param			groupID		path		string	true	"Group ID"
//	@Param			requestID	path		string	true	"Join request ID"
//	@Success		200			{object}	JoinRequestResponse
//	@Failure		400			{object}	ErrorResponse	"Request already approved"
//	@Failure		403			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/groups/{groupID}/join-requests/{requestID}/reject [post]
func (app *application) rejectJoinRequestHandler(w http.ResponseWriter, r *http.Request) {
	app.resolveJoinRequest(w, r, false)
}

func (app *application) resolveJoinRequest(w http.ResponseWriter, r *http.Request, approve bool) {
	admin := getUserFromContext(r)
	groupID := chi.URLParam(r, "groupID")
	requestID := chi.URLParam(r, "requestID")

	var (
		req *joinrequests.JoinRequest
		err error
		msg string
	)
	if approve {
		req, err = app.membership.ApproveRequest(r.Context(), admin.ID, groupID, requestID)
		msg = "Request approved"
	} else {
		req, err = app.membership.RejectRequest(r.Context(), admin.ID, groupID, requestID)
		msg = "Request rejected"
	}
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if group, err := app.membership.GetGroup(r.Context(), groupID); err == nil && app.push != nil {
		notifications.CallAsync(app.logger, func(ctx context.Context) error {
			return notifications.SendJoinDecision(ctx, app.push, app.store.PushTokens, req.UserID, groupID, group.ToLocation, approve)
		})
	}

	if err := app.jsonResponse(w, http.StatusOK, JoinRequestResponse{Message: msg}); err != nil {
		app.internalServerError(w, r, err)
	}
}
