package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/wolfman30/dentago-admin/internal/normalize"
	"github.com/wolfman30/dentago-admin/internal/profile"
	"github.com/wolfman30/dentago-admin/pkg/logging"
)

// ProfileStore is implemented by profile.Repository.
type ProfileStore interface {
	Get(ctx context.Context) (profile.Profile, error)
	Update(ctx context.Context, p profile.Patch) (profile.Profile, error)
}

// ProfileHandler serves the operator's own profile.
type ProfileHandler struct {
	store  ProfileStore
	logger *logging.Logger
}

func NewProfileHandler(store ProfileStore, logger *logging.Logger) *ProfileHandler {
	return &ProfileHandler{store: store, logger: logger.Component("profile_handler")}
}

// profileUpdateRequest is the form as the dashboard submits it. Either
// username or firstName/lastName may be given; birthdate is a calendar
// date or a timestamp, blank to clear it.
type profileUpdateRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Gender    string `json:"gender"`
	Birthdate string `json:"birthdate"`
	Company   string `json:"company"`
	Image     string `json:"image"`
	ImageURL  string `json:"imageUrl"`
}

// Get returns the signed-in operator.
// GET /api/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Get(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Update saves the profile form.
// PATCH /api/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req profileUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	patch := profile.Patch{
		Username:    req.Username,
		Gender:      req.Gender,
		Company:     req.Company,
		StagedImage: req.Image,
		ImageURL:    req.ImageURL,
	}
	if strings.TrimSpace(patch.Username) == "" {
		patch.Username = profile.JoinName(req.FirstName, req.LastName)
	}
	if raw := strings.TrimSpace(req.Birthdate); raw != "" {
		t, ok := normalize.ParseTime(raw)
		if !ok {
			writeBadRequest(w, "birthdate must be YYYY-MM-DD or RFC 3339")
			return
		}
		patch.Birthdate = &t
	}

	p, err := h.store.Update(r.Context(), patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
