package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wolfman30/dentago-admin/internal/apiclient"
	"github.com/wolfman30/dentago-admin/internal/media"
	"github.com/wolfman30/dentago-admin/pkg/logging"
)

// ImageUploader is implemented by media.Uploader.
type ImageUploader interface {
	UploadImage(ctx context.Context, fileName, contentType string, data []byte) (media.Image, error)
}

// UploadsHandler relays image uploads to the Dentago API.
type UploadsHandler struct {
	uploader ImageUploader
	logger   *logging.Logger
}

func NewUploadsHandler(uploader ImageUploader, logger *logging.Logger) *UploadsHandler {
	return &UploadsHandler{uploader: uploader, logger: logger.Component("uploads_handler")}
}

// UploadImage accepts a multipart form with the file under "image".
// POST /api/uploads/image
func (h *UploadsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, media.MaxImageBytes+64<<10)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, h.logger, apiclient.Invalid("image", fmt.Sprintf("max=%d", media.MaxImageBytes)))
			return
		}
		writeBadRequest(w, "multipart field \"image\" is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, media.MaxImageBytes+1))
	if err != nil {
		writeBadRequest(w, "could not read upload")
		return
	}
	img, err := h.uploader.UploadImage(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}
