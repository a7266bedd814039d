// Package profile reads and edits the signed-in operator's own account.
package profile

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/dentago-admin/internal/apiclient"
	"github.com/wolfman30/dentago-admin/internal/normalize"
	"github.com/wolfman30/dentago-admin/internal/validation"
	"github.com/wolfman30/dentago-admin/pkg/logging"
)

const (
	mePath     = "/auth/me"
	updatePath = "/auth/profile"

	DefaultRole   = "OPERATOR"
	DefaultGender = "male"
)

// Profile is the operator account as displayed.
type Profile struct {
	ID        string     `json:"id,omitempty"`
	Username  string     `json:"username"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Phone     string     `json:"phone"`
	Company   string     `json:"company"`
	Birthdate *time.Time `json:"birthdate"`
	Gender    string     `json:"gender"`
	Image     string     `json:"image,omitempty"`
	Role      string     `json:"role"`
}

// FromRecord builds a Profile from a decoded user object.
func FromRecord(rec normalize.Record) Profile {
	p := Profile{
		ID:       rec.String("id"),
		Username: rec.String("username"),
		Phone:    rec.String("phone"),
		Company:  rec.String("company"),
		Gender:   strings.ToLower(rec.String("gender")),
		Image:    rec.String("image"),
		Role:     rec.String("role"),
	}
	p.FirstName, p.LastName = SplitName(p.Username)
	if p.Gender != "female" {
		p.Gender = DefaultGender
	}
	if p.Role == "" {
		p.Role = DefaultRole
	}
	if t, ok := rec.Time("birthdate"); ok {
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		p.Birthdate = &d
	}
	return p
}

// Patch is an edit of the profile form. Phone is read only and has no
// field here. StagedImage is a newly picked image as a data URL; ImageURL
// keeps an already stored picture. At most one of them may be set.
type Patch struct {
	Username    string     `json:"username" validate:"required"`
	Gender      string     `json:"gender" validate:"required,oneof=male female"`
	Birthdate   *time.Time `json:"birthdate"`
	Company     string     `json:"company"`
	StagedImage string     `json:"stagedImage" validate:"omitempty,startswith=data:image/,excluded_with=ImageURL"`
	ImageURL    string     `json:"imageUrl" validate:"omitempty,url"`
}

func (p Patch) normalized() Patch {
	p.Username = strings.Join(strings.Fields(p.Username), " ")
	p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))
	p.Company = strings.TrimSpace(p.Company)
	p.StagedImage = strings.TrimSpace(p.StagedImage)
	p.ImageURL = strings.TrimSpace(p.ImageURL)
	return p
}

func (p Patch) body() map[string]any {
	body := map[string]any{
		"username":  p.Username,
		"gender":    p.Gender,
		"birthdate": nil,
		"company":   nil,
	}
	if p.Birthdate != nil {
		body["birthdate"] = p.Birthdate.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	}
	if p.Company != "" {
		body["company"] = p.Company
	}
	switch {
	case p.StagedImage != "":
		body["image"] = p.StagedImage
	case p.ImageURL != "":
		body["image"] = p.ImageURL
	}
	return body
}

// SplitName splits a display name into first name and the rest.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// JoinName composes a username from its parts.
func JoinName(first, last string) string {
	return strings.Join(strings.Fields(first+" "+last), " ")
}

// API is the subset of the API client the repository needs.
type API interface {
	Do(ctx context.Context, spec apiclient.RequestSpec) (*apiclient.Response, error)
}

// Repository reads and updates the operator profile.
type Repository struct {
	api    API
	logger *logging.Logger
}

func NewRepository(api API, logger *logging.Logger) *Repository {
	if api == nil {
		panic("profile: api client required")
	}
	return &Repository{api: api, logger: logger.Component("profile")}
}

// Get fetches the signed-in operator.
func (r *Repository) Get(ctx context.Context) (Profile, error) {
	resp, err := r.api.Do(ctx, apiclient.RequestSpec{Method: http.MethodGet, Path: mePath})
	if err != nil {
		return Profile{}, fmt.Errorf("profile: get: %w", err)
	}
	return decode(resp, "get")
}

// Update saves p. When the server does not echo the account it is fetched
// again.
func (r *Repository) Update(ctx context.Context, p Patch) (Profile, error) {
	p = p.normalized()
	if err := validation.Struct(p); err != nil {
		return Profile{}, err
	}
	resp, err := r.api.Do(ctx, apiclient.RequestSpec{Method: http.MethodPatch, Path: updatePath, Body: p.body()})
	if err != nil {
		return Profile{}, fmt.Errorf("profile: update: %w", err)
	}
	r.logger.Info("profile updated", "image_changed", p.StagedImage != "")
	if prof, err := decode(resp, "update"); err == nil {
		return prof, nil
	}
	return r.Get(ctx)
}

func decode(resp *apiclient.Response, op string) (Profile, error) {
	obj, err := normalize.ExtractObject(resp.Payload)
	if err != nil {
		return Profile{}, fmt.Errorf("profile: %s: %w", op, err)
	}
	p := FromRecord(obj)
	if p.ID == "" && p.Username == "" {
		return Profile{}, fmt.Errorf("profile: %s: %w: no account fields", op, normalize.ErrUnrecognizedShape)
	}
	return p, nil
}
