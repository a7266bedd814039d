package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/dentago-admin/internal/appointments"
	"github.com/wolfman30/dentago-admin/internal/listing"
	"github.com/wolfman30/dentago-admin/pkg/logging"
)

// AppointmentStore is implemented by appointments.Repository.
type AppointmentStore interface {
	List(ctx context.Context, f appointments.Filter) ([]appointments.Appointment, error)
	Get(ctx context.Context, id string) (appointments.Appointment, error)
	CancelByID(ctx context.Context, id string) (appointments.Appointment, error)
	Delete(ctx context.Context, id string) error
}

// AppointmentsHandler serves the appointments screen.
type AppointmentsHandler struct {
	store  AppointmentStore
	logger *logging.Logger
}

func NewAppointmentsHandler(store AppointmentStore, logger *logging.Logger) *AppointmentsHandler {
	return &AppointmentsHandler{store: store, logger: logger.Component("appointments_handler")}
}

// List returns one page of appointments.
// GET /api/appointments?q=&status=&page=&size=
func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := appointments.Filter{Query: r.URL.Query().Get("q")}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		filter.Status = appointments.ParseStatus(raw)
		if filter.Status == appointments.StatusUnknown {
			writeBadRequest(w, "unknown status "+raw)
			return
		}
	}
	items, err := h.store.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	page, size := pageParams(r)
	writeJSON(w, http.StatusOK, listing.Paginate(items, page, size))
}

// Get returns one appointment.
// GET /api/appointments/{id}
func (h *AppointmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Cancel cancels an appointment; cancelling a finished one is a no-op.
// POST /api/appointments/{id}/cancel
func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.CancelByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Delete removes an appointment.
// DELETE /api/appointments/{id}
func (h *AppointmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
