package doctors

import (
	"net/url"
	"strings"
	"time"

	"github.com/wolfman30/dentago-admin/internal/apiclient"
	"github.com/wolfman30/dentago-admin/internal/normalize"
)

type Location struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type Clinic struct {
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Location   Location `json:"location"`
	DistanceKm float64  `json:"distanceKm" validate:"gte=0"`
}

// WorkTime is the daily shift. Both bounds are set or neither is.
type WorkTime struct {
	Start normalize.TimeOfDay `json:"start"`
	End   normalize.TimeOfDay `json:"end"`
}

func (w WorkTime) set() bool { return w.Start.Valid || w.End.Valid }

// Subscription is the paid listing window. EndAt is strictly after StartAt.
type Subscription struct {
	StartAt  time.Time `json:"startAt" validate:"required"`
	EndAt    time.Time `json:"endAt" validate:"required,gtfield=StartAt"`
	IsActive bool      `json:"isActive"`
}

// Doctor is a clinician listed on the platform.
type Doctor struct {
	ID              string       `json:"id"`
	FullName        string       `json:"fullName"`
	Gender          string       `json:"gender,omitempty"`
	Specialty       string       `json:"specialty"`
	ExperienceYears int          `json:"experienceYears"`
	PatientsCount   int          `json:"patientsCount"`
	Price           float64      `json:"price"`
	Rating          float64      `json:"rating"`
	ReviewsCount    int          `json:"reviewsCount"`
	Clinic          Clinic       `json:"clinic"`
	WorkTime        WorkTime     `json:"workTime"`
	Subscription    Subscription `json:"subscription"`
	Avatar          string       `json:"avatar"`
	Phone           string       `json:"phone"`
	Email           string       `json:"email"`
	Description     string       `json:"description"`
	IsAvailable24x7 bool         `json:"isAvailable24x7"`
	IsActive        bool         `json:"isActive"`
}

// SearchFields are the texts matched by free-text search.
func (d Doctor) SearchFields() []string {
	return []string{d.FullName, d.Specialty, d.Clinic.Name, d.Phone, d.Email}
}

// FromRecord builds a Doctor from a decoded API object.
func FromRecord(rec normalize.Record) Doctor {
	d := Doctor{
		ID:          rec.String("id"),
		FullName:    rec.String("fullName"),
		Gender:      strings.ToLower(rec.String("gender")),
		Specialty:   rec.String("specialty"),
		Avatar:      rec.String("avatar"),
		Phone:       rec.String("phone"),
		Email:       rec.String("email"),
		Description: rec.String("description"),
	}
	d.ExperienceYears, _ = rec.Int("experienceYears")
	d.PatientsCount, _ = rec.Int("patientsCount")
	d.Price, _ = rec.Float("price")
	d.Rating, _ = rec.Float("rating")
	d.ReviewsCount, _ = rec.Int("reviewsCount")
	d.IsAvailable24x7, _ = rec.Bool("isAvailable24x7")
	d.IsActive, _ = rec.Bool("isActive")

	if rec.IsObject("clinic") {
		c := rec.Object("clinic")
		loc := c.Object("location")
		d.Clinic = Clinic{Name: c.String("name"), Address: c.String("address")}
		d.Clinic.Location.Lat, _ = loc.Float("lat")
		d.Clinic.Location.Lng, _ = loc.Float("lng")
		d.Clinic.DistanceKm, _ = c.Float("distanceKm")
	} else {
		d.Clinic = Clinic{Name: rec.String("clinicName"), Address: rec.String("clinicAddress")}
	}

	w := rec.Object("workTime")
	d.WorkTime = WorkTime{Start: w.TimeOfDay("start"), End: w.TimeOfDay("end")}

	s := rec.Object("subscription")
	d.Subscription.StartAt, _ = s.Time("startAt")
	d.Subscription.EndAt, _ = s.Time("endAt")
	d.Subscription.IsActive, _ = s.Bool("isActive")
	return d
}

// Filter narrows List results locally.
type Filter struct {
	Query      string
	Specialty  string
	ActiveOnly bool
}

func (f Filter) match(d Doctor) bool {
	if f.ActiveOnly && !d.IsActive {
		return false
	}
	if s := strings.TrimSpace(f.Specialty); s != "" && !strings.EqualFold(s, d.Specialty) {
		return false
	}
	return true
}

// Draft is the editable part of a doctor. Create fills Subscription and
// Avatar when they are empty; IsActive defaults to true.
type Draft struct {
	FullName        string        `json:"fullName" validate:"required"`
	Gender          string        `json:"gender" validate:"omitempty,oneof=male female"`
	Specialty       string        `json:"specialty"`
	ExperienceYears int           `json:"experienceYears" validate:"gte=0"`
	PatientsCount   int           `json:"patientsCount" validate:"gte=0"`
	Price           float64       `json:"price" validate:"gte=0"`
	Rating          float64       `json:"rating" validate:"gte=0,lte=5"`
	ReviewsCount    int           `json:"reviewsCount" validate:"gte=0"`
	Clinic          Clinic        `json:"clinic"`
	WorkTime        WorkTime      `json:"workTime"`
	Subscription    *Subscription `json:"subscription"`
	Avatar          string        `json:"avatar" validate:"omitempty,url"`
	Phone           string        `json:"phone"`
	Email           string        `json:"email" validate:"omitempty,email"`
	Description     string        `json:"description"`
	IsAvailable24x7 bool          `json:"isAvailable24x7"`
	IsActive        *bool         `json:"isActive"`
}

func (d Draft) workTimeErrors() []apiclient.FieldError {
	w := d.WorkTime
	switch {
	case !w.set():
		return nil
	case !w.Start.Valid:
		return []apiclient.FieldError{{Field: "workTime.start", Rule: "required"}}
	case !w.End.Valid:
		return []apiclient.FieldError{{Field: "workTime.end", Rule: "required"}}
	case !w.Start.Before(w.End):
		return []apiclient.FieldError{{Field: "workTime.start", Rule: "ltfield=end"}}
	}
	return nil
}

// withDefaults returns d with the creation defaults applied.
func (d Draft) withDefaults(now time.Time) Draft {
	if d.Subscription == nil {
		d.Subscription = &Subscription{StartAt: now, EndAt: now.AddDate(1, 0, 0), IsActive: true}
	}
	if strings.TrimSpace(d.Avatar) == "" {
		d.Avatar = AvatarURL(d.FullName)
	}
	if d.IsActive == nil {
		active := true
		d.IsActive = &active
	}
	return d
}

// doctor is the record the server stores for d, used when a create is
// acknowledged without the record being echoed.
func (d Draft) doctor(id string) Doctor {
	doc := Doctor{
		ID:              id,
		FullName:        strings.TrimSpace(d.FullName),
		Gender:          d.Gender,
		Specialty:       strings.TrimSpace(d.Specialty),
		ExperienceYears: d.ExperienceYears,
		PatientsCount:   d.PatientsCount,
		Price:           d.Price,
		Rating:          d.Rating,
		ReviewsCount:    d.ReviewsCount,
		Clinic:          d.Clinic,
		WorkTime:        d.WorkTime,
		Avatar:          strings.TrimSpace(d.Avatar),
		Phone:           strings.TrimSpace(d.Phone),
		Email:           strings.TrimSpace(d.Email),
		Description:     strings.TrimSpace(d.Description),
		IsAvailable24x7: d.IsAvailable24x7,
	}
	if d.Subscription != nil {
		doc.Subscription = *d.Subscription
	}
	if d.IsActive != nil {
		doc.IsActive = *d.IsActive
	}
	return doc
}

// AvatarURL is the generated initials avatar used when none is uploaded.
func AvatarURL(fullName string) string {
	name := strings.ReplaceAll(url.QueryEscape(strings.TrimSpace(fullName)), "+", "%20")
	return "https://ui-avatars.com/api/?name=" + name + "&background=00BCE4&color=fff"
}

func (d Draft) body() map[string]any {
	body := map[string]any{
		"fullName":        strings.TrimSpace(d.FullName),
		"specialty":       strings.TrimSpace(d.Specialty),
		"experienceYears": d.ExperienceYears,
		"patientsCount":   d.PatientsCount,
		"price":           d.Price,
		"rating":          d.Rating,
		"reviewsCount":    d.ReviewsCount,
		"clinic": map[string]any{
			"name":    strings.TrimSpace(d.Clinic.Name),
			"address": strings.TrimSpace(d.Clinic.Address),
			"location": map[string]any{
				"lat": d.Clinic.Location.Lat,
				"lng": d.Clinic.Location.Lng,
			},
			"distanceKm": d.Clinic.DistanceKm,
		},
		"avatar":          strings.TrimSpace(d.Avatar),
		"phone":           strings.TrimSpace(d.Phone),
		"email":           strings.TrimSpace(d.Email),
		"description":     strings.TrimSpace(d.Description),
		"isAvailable24x7": d.IsAvailable24x7,
	}
	if d.Gender != "" {
		body["gender"] = d.Gender
	}
	if d.WorkTime.set() {
		body["workTime"] = map[string]any{"start": d.WorkTime.Start.String(), "end": d.WorkTime.End.String()}
	}
	if s := d.Subscription; s != nil {
		body["subscription"] = map[string]any{
			"startAt":  s.StartAt.UTC().Format(time.RFC3339Nano),
			"endAt":    s.EndAt.UTC().Format(time.RFC3339Nano),
			"isActive": s.IsActive,
		}
	}
	if d.IsActive != nil {
		body["isActive"] = *d.IsActive
	}
	return body
}
