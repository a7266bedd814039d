// Package media uploads images (doctor avatars, profile pictures) and
// resolves their public URLs.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/wolfman30/dentago-admin/internal/apiclient"
	"github.com/wolfman30/dentago-admin/internal/normalize"
	"github.com/wolfman30/dentago-admin/pkg/logging"
)

const (
	DefaultImagesBaseURL = "https://app.dentago.uz/images"
	MaxImageBytes        = 5 << 20

	uploadPath = "/upload/image"
	formField  = "image"
)

// AllowedTypes are the accepted image content types.
var AllowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Image is a stored upload.
type Image struct {
	FileName string `json:"fileName"`
	URL      string `json:"url"`
}

// API is the subset of the API client the uploader needs.
type API interface {
	Upload(ctx context.Context, path, field, fileName, contentType string, r io.Reader) (*apiclient.Response, error)
}

// Uploader sends images to the upload endpoint.
type Uploader struct {
	api        API
	imagesBase string
	logger     *logging.Logger
}

// NewUploader builds an Uploader. An empty imagesBase uses DefaultImagesBaseURL.
func NewUploader(api API, imagesBase string, logger *logging.Logger) (*Uploader, error) {
	if api == nil {
		return nil, fmt.Errorf("media: api client required")
	}
	base := strings.TrimRight(strings.TrimSpace(imagesBase), "/")
	if base == "" {
		base = DefaultImagesBaseURL
	}
	if u, err := url.Parse(base); err != nil || u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("media: images base %q must be an absolute https url", base)
	}
	return &Uploader{api: api, imagesBase: base, logger: logger.Component("media")}, nil
}

// CheckImage applies the local upload rules.
func CheckImage(contentType string, size int) error {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch {
	case !AllowedTypes[ct]:
		return apiclient.Invalid("image", "content_type")
	case size == 0:
		return apiclient.Invalid("image", "required")
	case size > MaxImageBytes:
		return apiclient.Invalid("image", fmt.Sprintf("max=%d", MaxImageBytes))
	}
	return nil
}

// UploadImage validates and uploads data, returning its public URL. A blank
// contentType is sniffed from the data.
func (u *Uploader) UploadImage(ctx context.Context, fileName, contentType string, data []byte) (Image, error) {
	if strings.TrimSpace(contentType) == "" {
		contentType = http.DetectContentType(data)
	}
	if err := CheckImage(contentType, len(data)); err != nil {
		return Image{}, err
	}
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if name == "." || name == "/" {
		name = "image"
	}

	resp, err := u.api.Upload(ctx, uploadPath, formField, name, contentType, bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("media: upload: %w", err)
	}
	stored, err := normalize.UploadedFileName(resp.Payload)
	if err != nil {
		return Image{}, fmt.Errorf("media: upload: %w", err)
	}
	img := Image{FileName: stored, URL: u.URLFor(stored)}
	u.logger.Info("image uploaded", "file_name", stored, "bytes", len(data))
	return img, nil
}

// URLFor returns the public URL of a stored file name.
func (u *Uploader) URLFor(fileName string) string {
	return u.imagesBase + "/" + url.PathEscape(fileName)
}
