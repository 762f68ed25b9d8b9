package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/go-chi/chi/v5"
)

const maxCoverSize = 5 << 20

var (
	errCoverUnavailable = errors.New("Image uploads are not configured")
	errCoverType        = errors.New("Cover must be a JPEG or PNG image")
)

// uploadToCloudinaryWithID uploads a file to Cloudinary under the given public ID,
// replacing any previous asset with the same ID.
func (app *application) uploadToCloudinaryWithID(ctx context.Context, file io.Reader, publicID string) (string, error) {
	resp, err := app.cld.Upload.Upload(
		ctx,
		file,
		uploader.UploadParams{
			Folder:    "group-covers",
			PublicID:  publicID,
			Overwrite: api.Bool(true),
		},
	)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}

// uploadCoverHandler godoc
//
//	@Summary		Upload a group cover image
//	@Description	Admin only. Accepts a JPEG or PNG up to 5MB in the "cover" form field
//	@Tags			groups
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			groupID	path		string	true	"Group ID"
//	@Param			cover	formData	file	true	"Cover image"
//	@Success		200		{object}	groups.TravelGroup
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/groups/{groupID}/cover [post]
func (app *application) uploadCoverHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	groupID := chi.URLParam(r, "groupID")

	if _, err := app.membership.GroupForAdmin(r.Context(), user.ID, groupID); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if app.cld == nil {
		app.serviceUnavailableResponse(w, r, errCoverUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCoverSize+1024)
	if err := r.ParseMultipartForm(maxCoverSize); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid upload: %w", err))
		return
	}

	file, header, err := r.FormFile("cover")
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("cover: %w", err))
		return
	}
	defer file.Close()

	if header.Size > maxCoverSize {
		app.badRequestResponse(w, r, errors.New("Cover must be 5MB or smaller"))
		return
	}

	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		app.badRequestResponse(w, r, errCoverType)
		return
	}
	switch http.DetectContentType(sniff[:n]) {
	case "image/jpeg", "image/png":
	default:
		app.badRequestResponse(w, r, errCoverType)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	url, err := app.uploadToCloudinaryWithID(r.Context(), file, "group_"+groupID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	group, err := app.membership.SetCover(r.Context(), user.ID, groupID, url)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, group); err != nil {
		app.internalServerError(w, r, err)
	}
}
