// Package doctors exposes the admin doctor directory.
package doctors

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wolfman30/dentago-admin/internal/apiclient"
	"github.com/wolfman30/dentago-admin/internal/listing"
	"github.com/wolfman30/dentago-admin/internal/normalize"
	"github.com/wolfman30/dentago-admin/internal/validation"
	"github.com/wolfman30/dentago-admin/pkg/logging"
)

const basePath = "/admin/doctors"

// API is the subset of the API client the repository needs.
type API interface {
	Do(ctx context.Context, spec apiclient.RequestSpec) (*apiclient.Response, error)
}

// Repository reads and mutates doctors. It keeps no cache.
type Repository struct {
	api    API
	logger *logging.Logger
	now    func() time.Time
}

// NewRepository constructs a doctors repository.
func NewRepository(api API, logger *logging.Logger) *Repository {
	if api == nil {
		panic("doctors: api client required")
	}
	return &Repository{api: api, logger: logger.Component("doctors"), now: time.Now}
}

// List fetches the directory and applies f locally.
func (r *Repository) List(ctx context.Context, f Filter) ([]Doctor, error) {
	resp, err := r.api.Do(ctx, apiclient.RequestSpec{Method: http.MethodGet, Path: basePath})
	if err != nil {
		return nil, fmt.Errorf("doctors: list: %w", err)
	}
	items, err := normalize.ExtractList(resp.Payload)
	if err != nil {
		return nil, fmt.Errorf("doctors: list: %w", err)
	}
	out := make([]Doctor, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("doctors: list: item %d: %w", i, normalize.ErrUnrecognizedShape)
		}
		if d := FromRecord(m); f.match(d) {
			out = append(out, d)
		}
	}
	return listing.Search(out, f.Query, Doctor.SearchFields), nil
}

// Get fetches one doctor.
func (r *Repository) Get(ctx context.Context, id string) (Doctor, error) {
	if strings.TrimSpace(id) == "" {
		return Doctor{}, apiclient.Invalid("id", "required")
	}
	resp, err := r.api.Do(ctx, apiclient.RequestSpec{Method: http.MethodGet, Path: itemPath(id)})
	if err != nil {
		return Doctor{}, fmt.Errorf("doctors: get %s: %w", id, err)
	}
	return decodeOne(resp, "get "+id)
}

// Create validates d, applies creation defaults and stores the doctor.
func (r *Repository) Create(ctx context.Context, d Draft) (Doctor, error) {
	d = d.withDefaults(r.now())
	if err := validation.Struct(d, d.workTimeErrors()...); err != nil {
		return Doctor{}, err
	}
	resp, err := r.api.Do(ctx, apiclient.RequestSpec{Method: http.MethodPost, Path: basePath, Body: d.body()})
	if err != nil {
		return Doctor{}, fmt.Errorf("doctors: create: %w", err)
	}
	doc, err := decodeOne(resp, "create")
	if err != nil {
		// Accepted without the record; never report a stored doctor as failed.
		doc = r.acknowledged(ctx, d, resp.LocationID())
	}
	r.logger.Info("doctor created", "doctor_id", doc.ID)
	return doc, nil
}

// acknowledged resolves a create the server answered with a bare ack. The
// record is fetched when the Location header names it, otherwise it is
// rebuilt from the submitted draft with an empty ID.
func (r *Repository) acknowledged(ctx context.Context, d Draft, id string) Doctor {
	if id != "" {
		doc, err := r.Get(ctx, id)
		if err == nil {
			return doc
		}
		r.logger.Warn("created doctor could not be fetched", "doctor_id", id, "error", err)
	}
	return d.doctor(id)
}

// Update replaces the editable fields of a doctor. When the server
// acknowledges without echoing the record it is fetched again.
func (r *Repository) Update(ctx context.Context, id string, d Draft) (Doctor, error) {
	if strings.TrimSpace(id) == "" {
		return Doctor{}, apiclient.Invalid("id", "required")
	}
	if err := validation.Struct(d, d.workTimeErrors()...); err != nil {
		return Doctor{}, err
	}
	resp, err := r.api.Do(ctx, apiclient.RequestSpec{Method: http.MethodPut, Path: itemPath(id), Body: d.body()})
	if err != nil {
		return Doctor{}, fmt.Errorf("doctors: update %s: %w", id, err)
	}
	if doc, err := decodeOne(resp, "update "+id); err == nil {
		return doc, nil
	}
	return r.Get(ctx, id)
}

// Delete removes a doctor.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apiclient.Invalid("id", "required")
	}
	if _, err := r.api.Do(ctx, apiclient.RequestSpec{Method: http.MethodDelete, Path: itemPath(id)}); err != nil {
		return fmt.Errorf("doctors: delete %s: %w", id, err)
	}
	r.logger.Info("doctor deleted", "doctor_id", id)
	return nil
}

func itemPath(id string) string {
	return basePath + "/" + url.PathEscape(strings.TrimSpace(id))
}

func decodeOne(resp *apiclient.Response, op string) (Doctor, error) {
	obj, err := normalize.ExtractObject(resp.Payload)
	if err != nil {
		return Doctor{}, fmt.Errorf("doctors: %s: %w", op, err)
	}
	d := FromRecord(obj)
	if d.ID == "" {
		return Doctor{}, fmt.Errorf("doctors: %s: %w: missing id", op, normalize.ErrUnrecognizedShape)
	}
	return d, nil
}
