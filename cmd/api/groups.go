package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"travelmate/internal/domain/groups"
	"travelmate/internal/membership"
)

type CreateGroupPayload struct {
	FromLocation string `json:"from_location" validate:"required,notblank,max=100"`
	ToLocation   string `json:"to_location" validate:"required,notblank,max=100"`
	TravelDate   string `json:"travel_date" validate:"required"`
	BudgetMin    int    `json:"budget_min" validate:"gte=0"`
	BudgetMax    int    `json:"budget_max" validate:"gte=0"`
	TripType     string `json:"trip_type" validate:"required,max=50"`
	Description  string `json:"description" validate:"max=2000"`
	MaxMembers   int    `json:"max_members" validate:"required,gte=1,lte=100"`
}

var travelDateLayouts = []string{
	time.RFC3339,
	groups.TravelDateLayout,
	"2006-01-02T15:04",
	time.DateOnly,
}

// parseTravelDate accepts RFC 3339 as well as the zone-less forms mobile
// date pickers send; those are taken as UTC.
func parseTravelDate(s string) (time.Time, error) {
	for _, layout := range travelDateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("travel_date must be an ISO-8601 date or date-time")
}

// createGroupHandler godoc
//
//	@Summary		Create a travel group
//	@Description	The caller becomes the group admin and its first member
//	@Tags			groups
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateGroupPayload	true	"Trip details"
//	@Success		201		{object}	groups.TravelGroup
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/groups [post]
func (app *application) createGroupHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload CreateGroupPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	travelDate, err := parseTravelDate(payload.TravelDate)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	group, err := app.membership.CreateGroup(r.Context(), user.ID, membership.NewGroup{
		FromLocation: strings.TrimSpace(payload.FromLocation),
		ToLocation:   strings.TrimSpace(payload.ToLocation),
		TravelDate:   travelDate,
		BudgetMin:    payload.BudgetMin,
		BudgetMax:    payload.BudgetMax,
		TripType:     payload.TripType,
		Description:  payload.Description,
		MaxMembers:   payload.MaxMembers,
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, group); err != nil {
		app.internalServerError(w, r, err)
	}
}

// searchGroupsHandler godoc
//
//	@Summary		Search travel groups
//	@Description	Case-insensitive substring match on locations; travel_date matches a prefix such as 2025-06
//	@Tags			groups
//	@Produce		json
//	@Param			from_location	query		string	false	"Origin"
//	@Param			to_location		query		string	false	"Destination"
//	@Param			travel_date		query		string	false	"Date fragment"
//	@Success		200				{array}		groups.TravelGroup
//	@Failure		500				{object}	ErrorResponse
//	@Router			/groups [get]
func (app *application) searchGroupsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := groups.SearchFilter{
		FromLocation: strings.TrimSpace(q.Get("from_location")),
		ToLocation:   strings.TrimSpace(q.Get("to_location")),
		TravelDate:   strings.TrimSpace(q.Get("travel_date")),
	}

	found, err := app.membership.SearchGroups(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, found); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getGroupHandler godoc
//
//	@Summary		Get a travel group
//	@Tags			groups
//	@Produce		json
//	@Param			groupID	path		string	true	"Group ID"
//	@Success		200		{object}	groups.TravelGroup
//	@Failure		404		{object}	ErrorResponse
//	@Router			/groups/{groupID} [get]
func (app *application) getGroupHandler(w http.ResponseWriter, r *http.Request) {
	group, err := app.membership.GetGroup(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, group); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listMembersHandler godoc
//
//	@Summary		List group members
//	@Tags			groups
//	@Produce		json
//	@Param			groupID	path		string	true	"Group ID"
//	@Success		200		{array}		users.User
//	@Failure		404		{object}	ErrorResponse
//	@Router			/groups/{groupID}/members [get]
func (app *application) listMembersHandler(w http.ResponseWriter, r *http.Request) {
	members, err := app.membership.ListMembers(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, members); err != nil {
		app.internalServerError(w, r, err)
	}
}

// myGroupsHandler godoc
//
//	@Summary		Groups of the current user
//	@Tags			groups
//	@Produce		json
//	@Success		200	{array}		groups.TravelGroup
//	@Failure		401	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/my-groups [get]
func (app *application) myGroupsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	mine, err := app.membership.ListUserGroups(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, mine); err != nil {
		app.internalServerError(w, r, err)
	}
}
