package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/dentago-admin/internal/apiclient"
	"github.com/wolfman30/dentago-admin/internal/appointments"
	"github.com/wolfman30/dentago-admin/internal/doctors"
	"github.com/wolfman30/dentago-admin/internal/media"
	"github.com/wolfman30/dentago-admin/internal/profile"
	"github.com/wolfman30/dentago-admin/pkg/logging"
)

func testLogger() *logging.Logger {
	return logging.NewWithWriter(io.Discard, "error")
}

type stubAppointments struct {
	items     []appointments.Appointment
	err       error
	gotFilter appointments.Filter
	cancelled []string
	deleted   []string
}

func (s *stubAppointments) List(_ context.Context, f appointments.Filter) ([]appointments.Appointment, error) {
	s.gotFilter = f
	return s.items, s.err
}

func (s *stubAppointments) Get(_ context.Context, id string) (appointments.Appointment, error) {
	for _, a := range s.items {
		if a.ID == id {
			return a, nil
		}
	}
	return appointments.Appointment{}, &apiclient.APIError{Kind: apiclient.ErrNotFound, Status: http.StatusNotFound}
}

func (s *stubAppointments) CancelByID(_ context.Context, id string) (appointments.Appointment, error) {
	if s.err != nil {
		return appointments.Appointment{}, s.err
	}
	s.cancelled = append(s.cancelled, id)
	return appointments.Appointment{ID: id, Status: appointments.StatusCancelled}, nil
}

func (s *stubAppointments) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return s.err
}

func serveAppointments(store AppointmentStore, req *http.Request) *httptest.ResponseRecorder {
	h := NewAppointmentsHandler(store, testLogger())
	r := chi.NewRouter()
	r.Get("/api/appointments", h.List)
	r.Get("/api/appointments/{id}", h.Get)
	r.Post("/api/appointments/{id}/cancel", h.Cancel)
	r.Delete("/api/appointments/{id}", h.Delete)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestStatusForMapsTaxonomy(t *testing.T) {
	aggregate := &apiclient.AggregateError{Failures: []*apiclient.APIError{
		{Kind: apiclient.ErrNotFound, Status: http.StatusNotFound},
	}}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthenticated", apiclient.ErrUnauthenticated, http.StatusUnauthorized},
		{"unauthorized", &apiclient.APIError{Kind: apiclient.ErrUnauthorized, Status: 401}, http.StatusUnauthorized},
		{"forbidden", &apiclient.APIError{Kind: apiclient.ErrForbidden, Status: 403}, http.StatusForbidden},
		{"not found", &apiclient.APIError{Kind: apiclient.ErrNotFound, Status: 404}, http.StatusNotFound},
		{"conflict", &apiclient.APIError{Kind: apiclient.ErrConflict, Status: 409}, http.StatusConflict},
		{"validation", apiclient.Invalid("fullName", "required"), http.StatusUnprocessableEntity},
		{"rejected", &apiclient.APIError{Kind: apiclient.ErrRequestRejected, Status: 400}, http.StatusBadRequest},
		{"server", &apiclient.APIError{Kind: apiclient.ErrServer, Status: 503}, http.StatusBadGateway},
		{"network", &apiclient.APIError{Kind: apiclient.ErrNetworkUnreachable}, http.StatusBadGateway},
		{"shape", fmt.Errorf("decode: %w", apiclient.ErrUnrecognizedShape), http.StatusBadGateway},
		{"aggregate wins over members", aggregate, http.StatusBadGateway},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	writeError(rr, req, testLogger(), errors.New("db password=hunter2"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rr.Body.String())
}

func TestWriteErrorListsValidationFields(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/doctors", nil)
	writeError(rr, req, testLogger(), &apiclient.ValidationError{Fields: []apiclient.FieldError{
		{Field: "fullName", Rule: "required"},
		{Field: "email", Rule: "email"},
	}})

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.JSONEq(t, `{"error":"validation failed","fields":[
		{"field":"fullName","rule":"required"},
		{"field":"email","rule":"email"}
	]}`, rr.Body.String())
}

func TestAppointmentsListPaginatesAndFilters(t *testing.T) {
	items := make([]appointments.Appointment, 0, 30)
	for i := 0; i < 30; i++ {
		items = append(items, appointments.Appointment{ID: fmt.Sprintf("a%d", i), Status: appointments.StatusPending})
	}
	store := &stubAppointments{items: items}

	rr := serveAppointments(store, httptest.NewRequest(http.MethodGet, "/api/appointments?status=canceled&q=ali&page=3", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, appointments.StatusCancelled, store.gotFilter.Status)
	assert.Equal(t, "ali", store.gotFilter.Query)

	var page struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Page       int `json:"page"`
		Size       int `json:"size"`
		Total      int `json:"total"`
		TotalPages int `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 12, page.Size)
	assert.Equal(t, 30, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 6)
	assert.Equal(t, "a24", page.Items[0].ID)
}

func TestAppointmentsListHugePageIsEmpty(t *testing.T) {
	store := &stubAppointments{items: []appointments.Appointment{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}}}
	rr := serveAppointments(store, httptest.NewRequest(http.MethodGet, "/api/appointments?page=1537228672809129301", nil))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"items":[]`)
	assert.Contains(t, rr.Body.String(), `"total":3`)
}

func TestAppointmentsListRejectsUnknownStatus(t *testing.T) {
	store := &stubAppointments{}
	rr := serveAppointments(store, httptest.NewRequest(http.MethodGet, "/api/appointments?status=lost", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown status lost")
}

func TestAppointmentsGetCancelDelete(t *testing.T) {
	store := &stubAppointments{items: []appointments.Appointment{{ID: "a1", Status: appointments.StatusPending}}}

	rr := serveAppointments(store, httptest.NewRequest(http.MethodGet, "/api/appointments/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serveAppointments(store, httptest.NewRequest(http.MethodPost, "/api/appointments/a1/cancel", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"cancelled"`)
	assert.Equal(t, []string{"a1"}, store.cancelled)

	rr = serveAppointments(store, httptest.NewRequest(http.MethodDelete, "/api/appointments/a1", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []string{"a1"}, store.deleted)
}

func TestAppointmentsCancelAggregateFailure(t *testing.T) {
	store := &stubAppointments{err: &apiclient.AggregateError{Failures: []*apiclient.APIError{
		{Kind: apiclient.ErrNotFound, Method: http.MethodPut, Path: "/admin/appointments/a1", Status: 404},
	}}}

	rr := serveAppointments(store, httptest.NewRequest(http.MethodPost, "/api/appointments/a1/cancel", nil))

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "all request candidates failed")
}

type stubDoctors struct {
	gotFilter doctors.Filter
	gotDraft  doctors.Draft
	gotID     string
	err       error
}

func (s *stubDoctors) List(_ context.Context, f doctors.Filter) ([]doctors.Doctor, error) {
	s.gotFilter = f
	return []doctors.Doctor{{ID: "d1", FullName: "Dr Karimov"}}, s.err
}

func (s *stubDoctors) Get(_ context.Context, id string) (doctors.Doctor, error) {
	return doctors.Doctor{ID: id}, s.err
}

func (s *stubDoctors) Create(_ context.Context, d doctors.Draft) (doctors.Doctor, error) {
	s.gotDraft = d
	return doctors.Doctor{ID: "new", FullName: d.FullName}, s.err
}

func (s *stubDoctors) Update(_ context.Context, id string, d doctors.Draft) (doctors.Doctor, error) {
	s.gotID, s.gotDraft = id, d
	return doctors.Doctor{ID: id, FullName: d.FullName}, s.err
}

func (s *stubDoctors) Delete(_ context.Context, id string) error {
	s.gotID = id
	return s.err
}

func serveDoctors(store DoctorStore, req *http.Request) *httptest.ResponseRecorder {
	h := NewDoctorsHandler(store, testLogger())
	r := chi.NewRouter()
	r.Get("/api/doctors", h.List)
	r.Post("/api/doctors", h.Create)
	r.Get("/api/doctors/{id}", h.Get)
	r.Put("/api/doctors/{id}", h.Update)
	r.Delete("/api/doctors/{id}", h.Delete)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestDoctorsListParsesFilter(t *testing.T) {
	store := &stubDoctors{}
	rr := serveDoctors(store, httptest.NewRequest(http.MethodGet, "/api/doctors?q=kar&specialty=Ortodont&active=true", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, doctors.Filter{Query: "kar", Specialty: "Ortodont", ActiveOnly: true}, store.gotFilter)
	assert.Contains(t, rr.Body.String(), `"total":1`)

	rr = serveDoctors(store, httptest.NewRequest(http.MethodGet, "/api/doctors?active=maybe", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDoctorsCreateAndUpdate(t *testing.T) {
	store := &stubDoctors{}

	rr := serveDoctors(store, httptest.NewRequest(http.MethodPost, "/api/doctors", strings.NewReader(`{"fullName":"Dr Nodira","specialty":"Terapevt"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Dr Nodira", store.gotDraft.FullName)
	assert.Equal(t, "Terapevt", store.gotDraft.Specialty)

	rr = serveDoctors(store, httptest.NewRequest(http.MethodPut, "/api/doctors/d7", strings.NewReader(`{"fullName":"Dr N"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "d7", store.gotID)

	rr = serveDoctors(store, httptest.NewRequest(http.MethodPut, "/api/doctors/d7", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serveDoctors(store, httptest.NewRequest(http.MethodDelete, "/api/doctors/d9", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "d9", store.gotID)
}

func TestDoctorsStoreErrorsMapToStatus(t *testing.T) {
	store := &stubDoctors{err: &apiclient.APIError{Kind: apiclient.ErrConflict, Status: 409, Message: "phone taken"}}
	rr := serveDoctors(store, httptest.NewRequest(http.MethodPost, "/api/doctors", strings.NewReader(`{"fullName":"Dr"}`)))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestDecodeJSONRejectsOversizedBody(t *testing.T) {
	body := `{"fullName":"` + strings.Repeat("a", maxJSONBody) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var d doctors.Draft
	err := decodeJSON(req, &d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

type stubProfile struct {
	got profile.Patch
}

func (s *stubProfile) Get(context.Context) (profile.Profile, error) {
	return profile.Profile{ID: "u1", Username: "Sardor Aliyev", FirstName: "Sardor", LastName: "Aliyev", Role: profile.DefaultRole}, nil
}

func (s *stubProfile) Update(_ context.Context, p profile.Patch) (profile.Profile, error) {
	s.got = p
	return profile.Profile{ID: "u1", Username: p.Username}, nil
}

func TestProfileUpdateJoinsNameAndParsesBirthdate(t *testing.T) {
	store := &stubProfile{}
	h := NewProfileHandler(store, testLogger())

	body := `{"firstName":" Sardor ","lastName":"Aliyev","gender":"male","birthdate":"1990-05-17","company":"Dentago"}`
	rr := httptest.NewRecorder()
	h.Update(rr, httptest.NewRequest(http.MethodPatch, "/api/profile", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Sardor Aliyev", store.got.Username)
	assert.Equal(t, "male", store.got.Gender)
	assert.Equal(t, "Dentago", store.got.Company)
	require.NotNil(t, store.got.Birthdate)
	assert.Equal(t, time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC), store.got.Birthdate.UTC())
}

func TestProfileUpdateRejectsBadBirthdate(t *testing.T) {
	store := &stubProfile{}
	h := NewProfileHandler(store, testLogger())

	rr := httptest.NewRecorder()
	h.Update(rr, httptest.NewRequest(http.MethodPatch, "/api/profile", strings.NewReader(`{"username":"x","birthdate":"17th of May"}`)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, store.got.Username)
}

func TestProfileGet(t *testing.T) {
	h := NewProfileHandler(&stubProfile{}, testLogger())
	rr := httptest.NewRecorder()
	h.Get(rr, httptest.NewRequest(http.MethodGet, "/api/profile", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"role":"OPERATOR"`)
}

type stubUploader struct {
	fileName    string
	contentType string
	size        int
}

func (s *stubUploader) UploadImage(_ context.Context, fileName, contentType string, data []byte) (media.Image, error) {
	s.fileName, s.contentType, s.size = fileName, contentType, len(data)
	return media.Image{FileName: "stored.png", URL: "https://app.dentago.uz/images/stored.png"}, nil
}

func multipartRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, "face.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadImageRelaysFile(t *testing.T) {
	up := &stubUploader{}
	h := NewUploadsHandler(up, testLogger())

	rr := httptest.NewRecorder()
	h.UploadImage(rr, multipartRequest(t, "image", []byte("\x89PNG\r\n\x1a\npixels")))

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "face.png", up.fileName)
	assert.Equal(t, 14, up.size)
	assert.JSONEq(t, `{"fileName":"stored.png","url":"https://app.dentago.uz/images/stored.png"}`, rr.Body.String())
}

func TestUploadImageRequiresImageField(t *testing.T) {
	up := &stubUploader{}
	h := NewUploadsHandler(up, testLogger())

	rr := httptest.NewRecorder()
	h.UploadImage(rr, multipartRequest(t, "file", []byte("data")))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, up.fileName)
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	Health(time.Now().Add(-90*time.Second))(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.GreaterOrEqual(t, resp["uptime_seconds"], float64(90))
}
