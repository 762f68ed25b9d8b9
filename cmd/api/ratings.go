package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"travelmate/internal/domain/ratings"
	"travelmate/internal/rating"
)

type CreateRatingPayload struct {
	ToUserID string  `json:"to_user_id" validate:"required"`
	GroupID  string  `json:"group_id" validate:"required"`
	Stars    int     `json:"stars" validate:"required,min=1,max=5"`
	Review   *string `json:"review" validate:"omitempty,max=1000"`
}

type RatingResponse struct {
	Message string          `json:"message"`
	Rating  *ratings.Rating `json:"rating"`
}

// createRatingHandler godoc
//
//	@Summary		Rate a fellow traveler
//	@Description	Both users must be members of the group and the travel date must have passed
//	@Tags			ratings
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateRatingPayload	true	"Rating"
//	@Success		201		{object}	RatingResponse
//	@Failure		400		{object}	ErrorResponse	"Self rating, duplicate or trip not completed"
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse	"Both users must be group members"
//	@Failure		404		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/ratings [post]
func (app *application) createRatingHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload CreateRatingPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	created, err := app.ratings.SubmitRating(r.Context(), user.ID, rating.NewRating{
		ToUserID: payload.ToUserID,
		GroupID:  payload.GroupID,
		Stars:    payload.Stars,
		Review:   payload.Review,
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, RatingResponse{Message: "Rating submitted", Rating: created}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listUserRatingsHandler godoc
//
//	@Summary		Ratings a user received
//	@Description	Newest first, each with the rater's profile
//	@Tags			ratings
//	@Produce		json
//	@Param			userID	path		string	true	"User ID"
//	@Success		200		{array}		rating.Received
//	@Failure		500		{object}	ErrorResponse
//	@Router			/users/{userID}/ratings [get]
func (app *application) listUserRatingsHandler(w http.ResponseWriter, r *http.Request) {
	received, err := app.ratings.ListRatingsReceived(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, received); err != nil {
		app.internalServerError(w, r, err)
	}
}
