package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/dentago-admin/internal/doctors"
	"github.com/wolfman30/dentago-admin/internal/listing"
	"github.com/wolfman30/dentago-admin/pkg/logging"
)

// DoctorStore is implemented by doctors.Repository.
type DoctorStore interface {
	List(ctx context.Context, f doctors.Filter) ([]doctors.Doctor, error)
	Get(ctx context.Context, id string) (doctors.Doctor, error)
	Create(ctx context.Context, d doctors.Draft) (doctors.Doctor, error)
	Update(ctx context.Context, id string, d doctors.Draft) (doctors.Doctor, error)
	Delete(ctx context.Context, id string) error
}

// DoctorsHandler serves the doctor directory screens.
type DoctorsHandler struct {
	store  DoctorStore
	logger *logging.Logger
}

func NewDoctorsHandler(store DoctorStore, logger *logging.Logger) *DoctorsHandler {
	return &DoctorsHandler{store: store, logger: logger.Component("doctors_handler")}
}

// List returns one page of doctors.
// GET /api/doctors?q=&specialty=&active=&page=&size=
func (h *DoctorsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := doctors.Filter{Query: q.Get("q"), Specialty: q.Get("specialty")}
	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeBadRequest(w, "active must be a boolean")
			return
		}
		filter.ActiveOnly = active
	}
	items, err := h.store.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	page, size := pageParams(r)
	writeJSON(w, http.StatusOK, listing.Paginate(items, page, size))
}

// Get returns one doctor.
// GET /api/doctors/{id}
func (h *DoctorsHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Create adds a doctor.
// POST /api/doctors
func (h *DoctorsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft doctors.Draft
	if err := decodeJSON(r, &draft); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	d, err := h.store.Create(r.Context(), draft)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// Update replaces a doctor's editable fields.
// PUT /api/doctors/{id}
func (h *DoctorsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var draft doctors.Draft
	if err := decodeJSON(r, &draft); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	d, err := h.store.Update(r.Context(), chi.URLParam(r, "id"), draft)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Delete removes a doctor.
// DELETE /api/doctors/{id}
func (h *DoctorsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
