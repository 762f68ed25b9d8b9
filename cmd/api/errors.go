package main

import (
	"errors"
	"net/http"

	"travelmate/internal/auth"
	"travelmate/internal/domain/users"
	"travelmate/internal/membership"
	"travelmate/internal/rating"
)

// ErrorResponse is the body of every failed request.
//
//	@name	ErrorResponse
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"Group not found"`
	Status  int    `json:"status" example:"404"`
}

var errInvalidCredentials = errors.New("Invalid credentials")

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, err.Error())
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("forbidden", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusForbidden, err.Error())
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", retryAfter)

	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter)
}

func (app *application) serviceUnavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("service unavailable", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusServiceUnavailable, err.Error())
}

// domainErrorResponse maps errors from the membership, rating and auth
// layers to their HTTP status. Anything unrecognized is a 500.
func (app *application) domainErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, errInvalidCredentials):
		app.unauthorizedErrorResponse(w, r, err)

	case errors.Is(err, membership.ErrNotAuthorized),
		errors.Is(err, rating.ErrNotBothMembers):
		app.forbiddenResponse(w, r, err)

	case errors.Is(err, membership.ErrGroupNotFound),
		errors.Is(err, membership.ErrRequestNotFound),
		errors.Is(err, rating.ErrGroupNotFound),
		errors.Is(err, users.ErrNotFound):
		app.notFoundResponse(w, r, err)

	case errors.Is(err, users.ErrDuplicateEmail),
		errors.Is(err, membership.ErrAlreadyMember),
		errors.Is(err, membership.ErrGroupFull),
		errors.Is(err, membership.ErrDuplicateRequest),
		errors.Is(err, membership.ErrInvalidTransition),
		errors.Is(err, rating.ErrSelfRating),
		errors.Is(err, rating.ErrTripNotCompleted),
		errors.Is(err, rating.ErrDuplicateRating):
		app.badRequestResponse(w, r, err)

	default:
		app.internalServerError(w, r, err)
	}
}
