package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"travelmate/internal/chat"
	"travelmate/internal/membership"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// mobile clients send no Origin; browsers are covered by CORS on the REST routes
	CheckOrigin: func(r *http.Request) bool { return true },
}

// listMessagesHandler godoc
//
//	@Summary		Group chat history
//	@Description	Members only. Oldest message first.
//	@Tags			chat
//	@Produce		json
//	@Param			groupID	path		string	true	"Group ID"
//	@Success		200		{array}		messages.Message
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/groups/{groupID}/messages [get]
func (app *application) listMessagesHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	groupID := chi.URLParam(r, "groupID")

	isMember, err := app.membership.IsMember(r.Context(), groupID, user.ID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	if !isMember {
		app.forbiddenResponse(w, r, errors.New("Not a member"))
		return
	}

	history, err := app.hub.History(r.Context(), groupID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, history); err != nil {
		app.internalServerError(w, r, err)
	}
}

// chatSocketHandler upgrades to a websocket for the group chat. The token
// travels in the path because browsers cannot set headers on websocket
// requests. Refused connections are closed with 1008 right after the
// handshake.
//
//	@Summary	Group chat websocket
//	@Tags		chat
//	@Param		groupID	path	string	true	"Group ID"
//	@Param		token	path	string	true	"Access token"
//	@Success	101
//	@Router		/ws/{groupID}/{token} [get]
func (app *application) chatSocketHandler(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	token := chi.URLParam(r, "token")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		app.logger.Warnw("websocket upgrade failed", "group_id", groupID, "error", err)
		return
	}

	user, err := app.userFromToken(r.Context(), token)
	if err != nil {
		app.logger.Infow("websocket refused", "group_id", groupID, "error", err)
		chat.Reject(conn, "invalid token")
		return
	}

	isMember, err := app.membership.IsMember(r.Context(), groupID, user.ID)
	if err != nil || !isMember {
		reason := "not a member"
		if errors.Is(err, membership.ErrGroupNotFound) {
			reason = "group not found"
		} else if err != nil {
			app.logger.Errorw("websocket membership check failed", "group_id", groupID, "error", err)
		}
		chat.Reject(conn, reason)
		return
	}

	if _, err := app.hub.Connect(groupID, user.ID, conn); err != nil {
		app.logger.Warnw("websocket not registered", "group_id", groupID, "user_id", user.ID, "error", err)
	}
}
