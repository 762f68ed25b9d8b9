package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"travelmate/internal/domain/users"
	"travelmate/internal/mailer"
)

type SignupPayload struct {
	Name     string `json:"name" validate:"required,notblank,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	City     string `json:"city" validate:"required,notblank,max=100"`
	Age      int    `json:"age" validate:"required,gte=13,lte=120"`
}

type LoginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserWithToken struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

// signupHandler godoc
//
//	@Summary		Registers a user
//	@Description	Creates an account and returns an access token. A welcome email is sent in the background.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SignupPayload	true	"User details"
//	@Success		201		{object}	UserWithToken	"User registered"
//	@Failure		400		{object}	ErrorResponse	"Email already registered or invalid payload"
//	@Failure		500		{object}	ErrorResponse
//	@Router			/auth/signup [post]
func (app *application) signupHandler(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := &users.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(payload.Name),
		Email:     strings.ToLower(payload.Email),
		City:      strings.TrimSpace(payload.City),
		Age:       payload.Age,
		CreatedAt: time.Now().UTC(),
	}
	// hash the user password.
	if err := user.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.Create(r.Context(), user); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	token, err := app.authenticator.GenerateToken(user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.sendWelcomeEmail(user)

	if err := app.jsonResponse(w, http.StatusCreated, UserWithToken{Token: token, User: user}); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) sendWelcomeEmail(user *users.User) {
	if app.mailer == nil {
		return
	}

	vars := struct {
		Username string
		City     string
	}{
		Username: user.Name,
		City:     user.City,
	}

	go func() {
		status, err := app.mailer.Send(mailer.UserWelcomeTemplate, user.Name, user.Email, vars)
		if err != nil {
			app.logger.Errorw("error sending welcome email", "user_id", user.ID, "error", err)
			return
		}
		app.logger.Infow("Email sent", "status code", status, "user_id", user.ID)
	}()
}

// loginHandler godoc
//
//	@Summary		Logs a user in
//	@Description	Exchanges email and password for an access token
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		LoginPayload	true	"Credentials"
//	@Success		200		{object}	UserWithToken
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse	"Invalid credentials"
//	@Failure		500		{object}	ErrorResponse
//	@Router			/auth/login [post]
func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.store.Users.GetByEmail(r.Context(), strings.ToLower(payload.Email))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			app.unauthorizedErrorResponse(w, r, errInvalidCredentials)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := user.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, errInvalidCredentials)
		return
	}

	token, err := app.authenticator.GenerateToken(user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, UserWithToken{Token: token, User: user}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// meHandler godoc
//
//	@Summary		Current user
//	@Description	Returns the profile of the authenticated user
//	@Tags			authentication
//	@Produce		json
//	@Success		200	{object}	users.User
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/auth/me [get]
func (app *application) meHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}
