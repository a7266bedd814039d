package appointments

import (
	"strings"
	"time"

	"github.com/wolfman30/dentago-admin/internal/apiclient"
	"github.com/wolfman30/dentago-admin/internal/normalize"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusUnknown   Status = "unknown"
)

// ParseStatus maps the server's status text. The American spelling
// "canceled" is accepted; anything unrecognised is StatusUnknown.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return StatusPending
	case "confirmed":
		return StatusConfirmed
	case "completed":
		return StatusCompleted
	case "cancelled", "canceled":
		return StatusCancelled
	default:
		return StatusUnknown
	}
}

// Terminal reports whether no further cancel transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

type Clinic struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type Patient struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

type Doctor struct {
	FullName  string `json:"fullName"`
	Specialty string `json:"specialty"`
	Clinic    Clinic `json:"clinic"`
}

// Appointment is a booking as shown to the operator.
type Appointment struct {
	ID      string              `json:"id"`
	Patient Patient             `json:"patient"`
	Doctor  Doctor              `json:"doctor"`
	Date    time.Time           `json:"date"`
	Time    normalize.TimeOfDay `json:"time"`
	Service string              `json:"service"`
	Status  Status              `json:"status"`
	Comment string              `json:"comment,omitempty"`
}

// Cancellable reports whether cancel would reach the server.
func (a Appointment) Cancellable() bool { return !a.Status.Terminal() }

// SearchFields are the texts matched by free-text search.
func (a Appointment) SearchFields() []string {
	return []string{a.Patient.FullName, a.Patient.Phone, a.Service, a.Doctor.FullName, a.Comment}
}

// FromRecord builds an Appointment from a decoded API object.
func FromRecord(rec normalize.Record) Appointment {
	a := Appointment{
		ID:      rec.String("id"),
		Service: rec.String("service"),
		Status:  ParseStatus(rec.String("status")),
		Comment: rec.String("comment"),
		Time:    rec.TimeOfDay("appointmentTime"),
	}

	if rec.IsObject("patient") {
		p := rec.Object("patient")
		a.Patient = Patient{FullName: p.String("fullName"), Phone: p.String("phone")}
	} else {
		a.Patient = Patient{FullName: rec.String("patientName"), Phone: rec.String("patientPhone")}
	}

	if rec.IsObject("doctor") {
		d := rec.Object("doctor")
		c := d.Object("clinic")
		a.Doctor = Doctor{
			FullName:  d.String("fullName"),
			Specialty: d.String("specialty"),
			Clinic:    Clinic{Name: c.String("name"), Address: c.String("address")},
		}
	}

	if ts, ok := rec.Time("appointmentDate"); ok {
		a.Date = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		if !a.Time.Valid && (ts.Hour() != 0 || ts.Minute() != 0) {
			a.Time = normalize.TimeOfDay{Hour: ts.Hour(), Minute: ts.Minute(), Valid: true}
		}
	}
	return a
}

// Filter narrows List results locally.
type Filter struct {
	Status Status
	Query  string
}

func (f Filter) match(a Appointment) bool {
	return f.Status == "" || a.Status == f.Status
}

// Draft is a new appointment booked by the operator.
type Draft struct {
	PatientName  string              `json:"patientName" validate:"required"`
	PatientPhone string              `json:"patientPhone"`
	DoctorID     string              `json:"doctorId" validate:"required"`
	Date         time.Time           `json:"appointmentDate" validate:"required"`
	Time         normalize.TimeOfDay `json:"appointmentTime"`
	Service      string              `json:"service"`
	Comment      string              `json:"comment"`
}

func (d Draft) timeErrors() []apiclient.FieldError {
	if d.Time.Valid {
		return nil
	}
	return []apiclient.FieldError{{Field: "appointmentTime", Rule: "required"}}
}

func (d Draft) body() map[string]any {
	body := map[string]any{
		"patient": map[string]any{
			"fullName": strings.TrimSpace(d.PatientName),
			"phone":    strings.TrimSpace(d.PatientPhone),
		},
		"doctor":          d.DoctorID,
		"appointmentDate": d.Date.Format(dateLayout),
		"appointmentTime": d.Time.String(),
		"status":          string(StatusPending),
	}
	if s := strings.TrimSpace(d.Service); s != "" {
		body["service"] = s
	}
	if c := strings.TrimSpace(d.Comment); c != "" {
		body["comment"] = c
	}
	return body
}

// appointment is the booking the server stores for d, used when a create is
// acknowledged without the record being echoed.
func (d Draft) appointment(id string) Appointment {
	return Appointment{
		ID:      id,
		Patient: Patient{FullName: strings.TrimSpace(d.PatientName), Phone: strings.TrimSpace(d.PatientPhone)},
		Date:    time.Date(d.Date.Year(), d.Date.Month(), d.Date.Day(), 0, 0, 0, 0, time.UTC),
		Time:    d.Time,
		Service: strings.TrimSpace(d.Service),
		Status:  StatusPending,
		Comment: strings.TrimSpace(d.Comment),
	}
}

// Patch changes selected fields of an existing appointment. Nil fields are
// left as they are.
type Patch struct {
	Date    *time.Time           `json:"appointmentDate,omitempty"`
	Time    *normalize.TimeOfDay `json:"appointmentTime,omitempty"`
	Service *string              `json:"service,omitempty"`
	Comment *string              `json:"comment,omitempty"`
	Status  *Status              `json:"status,omitempty"`
}

func (p Patch) validate() error {
	var fields []apiclient.FieldError
	if p.Date == nil && p.Time == nil && p.Service == nil && p.Comment == nil && p.Status == nil {
		fields = append(fields, apiclient.FieldError{Field: "patch", Rule: "required"})
	}
	if p.Time != nil && !p.Time.Valid {
		fields = append(fields, apiclient.FieldError{Field: "appointmentTime", Rule: "time_of_day"})
	}
	if p.Status != nil && ParseStatus(string(*p.Status)) == StatusUnknown {
		fields = append(fields, apiclient.FieldError{Field: "status", Rule: "oneof=pending confirmed completed cancelled"})
	}
	if len(fields) > 0 {
		return &apiclient.ValidationError{Fields: fields}
	}
	return nil
}

func (p Patch) body() map[string]any {
	body := map[string]any{}
	if p.Date != nil {
		body["appointmentDate"] = p.Date.Format(dateLayout)
	}
	if p.Time != nil {
		body["appointmentTime"] = p.Time.String()
	}
	if p.Service != nil {
		body["service"] = strings.TrimSpace(*p.Service)
	}
	if p.Comment != nil {
		body["comment"] = strings.TrimSpace(*p.Comment)
	}
	if p.Status != nil {
		body["status"] = string(ParseStatus(string(*p.Status)))
	}
	return body
}

const dateLayout = "2006-01-02"
