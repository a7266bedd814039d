// Package appointments exposes the admin appointment resource.
package appointments

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/dentago-admin/internal/apiclient"
	"github.com/wolfman30/dentago-admin/internal/listing"
	"github.com/wolfman30/dentago-admin/internal/normalize"
	"github.com/wolfman30/dentago-admin/internal/validation"
	"github.com/wolfman30/dentago-admin/pkg/logging"
)

const basePath = "/admin/appointments"

var appointmentsTracer = otel.Tracer("dentago.internal.appointments")

// API is the subset of the API client the repository needs.
type API interface {
	Do(ctx context.Context, spec apiclient.RequestSpec) (*apiclient.Response, error)
	Attempt(ctx context.Context, candidates []apiclient.RequestSpec) (*apiclient.Response, error)
}

// Repository reads and mutates appointments. It keeps no cache.
type Repository struct {
	api    API
	logger *logging.Logger
}

// NewRepository constructs an appointments repository.
func NewRepository(api API, logger *logging.Logger) *Repository {
	if api == nil {
		panic("appointments: api client required")
	}
	return &Repository{api: api, logger: logger.Component("appointments")}
}

// List fetches every appointment and applies f locally.
func (r *Repository) List(ctx context.Context, f Filter) ([]Appointment, error) {
	resp, err := r.api.Do(ctx, apiclient.RequestSpec{Method: http.MethodGet, Path: basePath})
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	items, err := normalize.ExtractList(resp.Payload)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}

	out := make([]Appointment, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("appointments: list: item %d: %w", i, normalize.ErrUnrecognizedShape)
		}
		a := FromRecord(m)
		if f.match(a) {
			out = append(out, a)
		}
	}
	return listing.Search(out, f.Query, Appointment.SearchFields), nil
}

// Get fetches one appointment.
func (r *Repository) Get(ctx context.Context, id string) (Appointment, error) {
	if strings.TrimSpace(id) == "" {
		return Appointment{}, apiclient.Invalid("id", "required")
	}
	resp, err := r.api.Do(ctx, apiclient.RequestSpec{Method: http.MethodGet, Path: itemPath(id)})
	if err != nil {
		return Appointment{}, fmt.Errorf("appointments: get %s: %w", id, err)
	}
	return decodeOne(resp, "get "+id)
}

// Create books a new appointment.
func (r *Repository) Create(ctx context.Context, d Draft) (Appointment, error) {
	if err := validation.Struct(d, d.timeErrors()...); err != nil {
		return Appointment{}, err
	}
	resp, err := r.api.Do(ctx, apiclient.RequestSpec{Method: http.MethodPost, Path: basePath, Body: d.body()})
	if err != nil {
		return Appointment{}, fmt.Errorf("appointments: create: %w", err)
	}
	a, err := decodeOne(resp, "create")
	if err != nil {
		// Accepted without the record; never report a stored booking as failed.
		a = r.acknowledged(ctx, d, resp.LocationID())
	}
	r.logger.Info("appointment created", "appointment_id", a.ID)
	return a, nil
}

// acknowledged resolves a create the server answered with a bare ack. The
// record is fetched when the Location header names it, otherwise it is
// rebuilt from the submitted draft with an empty ID.
func (r *Repository) acknowledged(ctx context.Context, d Draft, id string) Appointment {
	if id != "" {
		a, err := r.Get(ctx, id)
		if err == nil {
			return a
		}
		r.logger.Warn("created appointment could not be fetched", "appointment_id", id, "error", err)
	}
	return d.appointment(id)
}

// Update applies p and returns the stored appointment. When the server
// acknowledges without echoing the record it is fetched again.
func (r *Repository) Update(ctx context.Context, id string, p Patch) (Appointment, error) {
	if strings.TrimSpace(id) == "" {
		return Appointment{}, apiclient.Invalid("id", "required")
	}
	if err := p.validate(); err != nil {
		return Appointment{}, err
	}
	resp, err := r.api.Do(ctx, apiclient.RequestSpec{Method: http.MethodPut, Path: itemPath(id), Body: p.body()})
	if err != nil {
		return Appointment{}, fmt.Errorf("appointments: update %s: %w", id, err)
	}
	if a, err := decodeOne(resp, "update "+id); err == nil {
		return a, nil
	}
	return r.Get(ctx, id)
}

// Delete removes an appointment.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apiclient.Invalid("id", "required")
	}
	if _, err := r.api.Do(ctx, apiclient.RequestSpec{Method: http.MethodDelete, Path: itemPath(id)}); err != nil {
		return fmt.Errorf("appointments: delete %s: %w", id, err)
	}
	r.logger.Info("appointment deleted", "appointment_id", id)
	return nil
}

// Cancel moves a to cancelled. Terminal appointments are returned unchanged
// without touching the network. Otherwise the known cancel contracts are
// tried in order until one is accepted.
func (r *Repository) Cancel(ctx context.Context, a Appointment) (Appointment, error) {
	if a.Status.Terminal() {
		return a, nil
	}
	if strings.TrimSpace(a.ID) == "" {
		return Appointment{}, apiclient.Invalid("id", "required")
	}

	ctx, span := appointmentsTracer.Start(ctx, "appointments.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("dentago.appointment_id", a.ID))

	if _, err := r.api.Attempt(ctx, CancelCandidates(a.ID)); err != nil {
		span.RecordError(err)
		return Appointment{}, fmt.Errorf("appointments: cancel %s: %w", a.ID, err)
	}
	a.Status = StatusCancelled
	r.logger.Info("appointment cancelled", "appointment_id", a.ID)
	return a, nil
}

// CancelByID fetches the appointment and cancels it.
func (r *Repository) CancelByID(ctx context.Context, id string) (Appointment, error) {
	a, err := r.Get(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	return r.Cancel(ctx, a)
}

// CancelCandidates lists the cancel requests in the order they are tried.
// Every candidate carries the same body so whichever one lands leaves the
// appointment in the same state.
func CancelCandidates(id string) []apiclient.RequestSpec {
	item := itemPath(id)
	body := map[string]string{"status": string(StatusCancelled)}
	return []apiclient.RequestSpec{
		{Method: http.MethodPut, Path: item, Body: body},
		{Method: http.MethodPatch, Path: item, Body: body},
		{Method: http.MethodPost, Path: item + "/cancel", Body: body},
		{Method: http.MethodPut, Path: item + "/status", Body: body},
		{Method: http.MethodPatch, Path: item + "/status", Body: body},
	}
}

func itemPath(id string) string {
	return basePath + "/" + url.PathEscape(strings.TrimSpace(id))
}

func decodeOne(resp *apiclient.Response, op string) (Appointment, error) {
	obj, err := normalize.ExtractObject(resp.Payload)
	if err != nil {
		return Appointment{}, fmt.Errorf("appointments: %s: %w", op, err)
	}
	a := FromRecord(obj)
	if a.ID == "" {
		return Appointment{}, fmt.Errorf("appointments: %s: %w: missing id", op, normalize.ErrUnrecognizedShape)
	}
	return a, nil
}
