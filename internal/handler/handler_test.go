package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"hospital-management-api/internal/booking"
	"hospital-management-api/internal/handler"
	"hospital-management-api/internal/middleware"
	"hospital-management-api/internal/model"
	"hospital-management-api/internal/store/storetest"
)

const secret = "handler-test-secret"

// 2024-06-01 12:00 UTC is "today" for every test
var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	e   *echo.Echo
	mem *storetest.Memory
}

func setup(t *testing.T) *env {
	t.Helper()
	mem := storetest.New()
	svc := booking.NewService(mem, time.UTC, booking.WithClock(func() time.Time { return fixedNow }))
	h := handler.New(mem, svc, secret, time.Hour, nil, zerolog.Nop())

	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler(zerolog.Nop())
	h.Routes(e, middleware.NewRateLimiter(1000, 1000))
	return &env{e: e, mem: mem}
}

func (v *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	v.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["message"]
}

func expect(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected %d, got %d: %s", code, rec.Code, rec.Body.String())
	}
}

func uniqueEmail() string {
	return fmt.Sprintf("test-%s@test.com", uuid.New().String()[:8])
}

type loginResult struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    struct {
		ID       string     `json:"id"`
		Username string     `json:"username"`
		Email    string     `json:"email"`
		Role     model.Role `json:"role"`
	} `json:"user"`
}

func login(t *testing.T, v *env, email, password string) loginResult {
	t.Helper()
	rec := v.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	expect(t, rec, http.StatusOK)
	return decode[loginResult](t, rec)
}

func adminToken(t *testing.T, v *env) string {
	t.Helper()
	email := uniqueEmail()
	rec := v.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "Admin", "email": email, "password": "adminpass1", "role": "admin",
	})
	expect(t, rec, http.StatusCreated)
	return login(t, v, email, "adminpass1").Token
}

// createDoctor returns the doctor record and a token for the doctor's login.
func createDoctor(t *testing.T, v *env, admin, name, contact string) (model.Doctor, string) {
	t.Helper()
	email := uniqueEmail()
	rec := v.do(t, http.MethodPost, "/api/doctors/create", admin, map[string]any{
		"name": name, "specialization": "Cardiology", "contactNumber": contact,
		"email": email, "password": "doctorpass1",
	})
	expect(t, rec, http.StatusCreated)
	d := decode[model.Doctor](t, rec)
	return d, login(t, v, email, "doctorpass1").Token
}

func createPatient(t *testing.T, v *env, admin, name, contact string) model.Patient {
	t.Helper()
	rec := v.do(t, http.MethodPost, "/api/patients/create", admin, map[string]any{
		"name": name, "age": "34", "gender": "Female", "address": "1 Main St", "contactNumber": contact,
	})
	expect(t, rec, http.StatusCreated)
	return decode[model.Patient](t, rec)
}

func (v *env) book(t *testing.T, admin, patient, doctor, when string) *httptest.ResponseRecorder {
	t.Helper()
	return v.do(t, http.MethodPost, "/api/appointments/create", admin, map[string]string{
		"patient": patient, "doctor": doctor, "appointmentDate": when, "reason": "checkup",
	})
}

// ----- auth tests -----

func TestRegisterAndLogin(t *testing.T) {
	v := setup(t)
	email := uniqueEmail()

	rec := v.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "Dr Who", "email": email, "password": "testpass123",
	})
	expect(t, rec, http.StatusCreated)

	res := login(t, v, email, "testpass123")
	if res.Token == "" {
		t.Fatal("empty token")
	}
	if res.Message != "Login successful" {
		t.Errorf("message = %q", res.Message)
	}
	if res.User.Role != model.RoleDoctor {
		t.Errorf("role should default to doctor, got %q", res.User.Role)
	}

	rec = v.do(t, http.MethodGet, "/api/auth/me", res.Token, nil)
	expect(t, rec, http.StatusOK)
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("profile leaks password hash: %s", rec.Body.String())
	}
	me := decode[model.User](t, rec)
	if me.ID != res.User.ID || me.Email != email {
		t.Errorf("unexpected profile %+v", me)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	v := setup(t)
	email := uniqueEmail()
	body := map[string]string{"username": "First", "email": email, "password": "testpass123"}

	expect(t, v.do(t, http.MethodPost, "/api/auth/register", "", body), http.StatusCreated)

	rec := v.do(t, http.MethodPost, "/api/auth/register", "", body)
	expect(t, rec, http.StatusBadRequest)
	if msg := message(t, rec); msg != "User already exists" {
		t.Errorf("message = %q", msg)
	}
}

func TestRegisterValidation(t *testing.T) {
	v := setup(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"empty email", map[string]string{"username": "X", "email": "", "password": "testpass123"}},
		{"bad email", map[string]string{"username": "X", "email": "nope", "password": "testpass123"}},
		{"short password", map[string]string{"username": "X", "email": "a@b.com", "password": "short"}},
		{"empty username", map[string]string{"username": "", "email": "a@b.com", "password": "testpass123"}},
		{"unknown role", map[string]string{"username": "X", "email": "a@b.com", "password": "testpass123", "role": "nurse"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expect(t, v.do(t, http.MethodPost, "/api/auth/register", "", tt.body), http.StatusBadRequest)
		})
	}
}

func TestLoginFailures(t *testing.T) {
	v := setup(t)
	email := uniqueEmail()
	expect(t, v.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "X", "email": email, "password": "testpass123",
	}), http.StatusCreated)

	for name, body := range map[string]map[string]string{
		"wrong password": {"email": email, "password": "wrongpass1"},
		"unknown email":  {"email": uniqueEmail(), "password": "testpass123"},
	} {
		t.Run(name, func(t *testing.T) {
			rec := v.do(t, http.MethodPost, "/api/auth/login", "", body)
			expect(t, rec, http.StatusBadRequest)
			if msg := message(t, rec); msg != "Invalid credentials" {
				t.Errorf("message = %q", msg)
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	v := setup(t)

	expect(t, v.do(t, http.MethodGet, "/api/patients/", "", nil), http.StatusUnauthorized)
	expect(t, v.do(t, http.MethodGet, "/api/auth/me", "garbage", nil), http.StatusUnauthorized)
}

func TestRoleGates(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)
	_, doc := createDoctor(t, v, admin, "Gate", "555-0100")

	// doctors read the directory but cannot write it
	expect(t, v.do(t, http.MethodGet, "/api/patients/", doc, nil), http.StatusOK)
	expect(t, v.do(t, http.MethodPost, "/api/patients/create", doc, map[string]any{
		"name": "X", "age": 1, "gender": "M", "address": "A", "contactNumber": "1",
	}), http.StatusForbidden)
	expect(t, v.do(t, http.MethodGet, "/api/dashboard", doc, nil), http.StatusForbidden)

	// my-today is for doctors only
	expect(t, v.do(t, http.MethodGet, "/api/appointments/my-today", admin, nil), http.StatusForbidden)
	expect(t, v.do(t, http.MethodGet, "/api/appointments/my-today", doc, nil), http.StatusOK)
}

// ----- patients -----

func TestPatientRoundTrip(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)

	rec := v.do(t, http.MethodPost, "/api/patients/create", admin, map[string]any{
		"name": "Jane Roe", "age": 34, "gender": "Female", "address": "1 Main St",
		"contactNumber": 5550101, "medicalHistory": "asthma",
	})
	expect(t, rec, http.StatusCreated)
	created := decode[model.Patient](t, rec)
	if created.ContactNumber != "5550101" || created.Age != 34 {
		t.Errorf("numeric fields not read: %+v", created)
	}

	rec = v.do(t, http.MethodGet, "/api/patients/"+created.ID, admin, nil)
	expect(t, rec, http.StatusOK)
	got := decode[model.Patient](t, rec)
	if got.Name != created.Name || got.MedicalHistory != "asthma" || got.Address != created.Address {
		t.Errorf("round trip mismatch: %+v vs %+v", got, created)
	}

	rec = v.do(t, http.MethodGet, "/api/patients", admin, nil)
	expect(t, rec, http.StatusOK)
	if list := decode[[]model.Patient](t, rec); len(list) != 1 {
		t.Errorf("expected 1 patient, got %d", len(list))
	}
}

func TestPatientDuplicateContact(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)
	createPatient(t, v, admin, "A", "555-0001")

	rec := v.do(t, http.MethodPost, "/api/patients/create", admin, map[string]any{
		"name": "B", "age": "20", "gender": "Male", "address": "x", "contactNumber": "555-0001",
	})
	expect(t, rec, http.StatusBadRequest)
	if msg := message(t, rec); msg != "Patient with this contact number already exists" {
		t.Errorf("message = %q", msg)
	}
}

func TestPatientValidation(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"age": 1, "gender": "M", "address": "a", "contactNumber": "1"}},
		{"missing age", map[string]any{"name": "n", "gender": "M", "address": "a", "contactNumber": "1"}},
		{"bad age", map[string]any{"name": "n", "age": "old", "gender": "M", "address": "a", "contactNumber": "1"}},
		{"negative age", map[string]any{"name": "n", "age": -3, "gender": "M", "address": "a", "contactNumber": "1"}},
		{"missing contact", map[string]any{"name": "n", "age": 1, "gender": "M", "address": "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expect(t, v.do(t, http.MethodPost, "/api/patients/create", admin, tt.body), http.StatusBadRequest)
		})
	}
	rec := v.do(t, http.MethodGet, "/api/patients/", admin, nil)
	if list := decode[[]model.Patient](t, rec); len(list) != 0 {
		t.Errorf("invalid patients were stored: %+v", list)
	}
}

func TestPatientUpdate(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)
	p := createPatient(t, v, admin, "Jane", "555-0001")
	createPatient(t, v, admin, "John", "555-0002")

	// empty fields keep the stored values
	rec := v.do(t, http.MethodPut, "/api/patients/update/"+p.ID, admin, map[string]any{"address": "2 Side St"})
	expect(t, rec, http.StatusOK)
	got := decode[model.Patient](t, rec)
	if got.Address != "2 Side St" || got.Name != "Jane" || got.ContactNumber != "555-0001" || got.Age != 34 {
		t.Errorf("partial update lost fields: %+v", got)
	}

	// own contact number is not a conflict
	rec = v.do(t, http.MethodPut, "/api/patients/"+p.ID, admin, map[string]any{"contactNumber": "555-0001"})
	expect(t, rec, http.StatusOK)

	rec = v.do(t, http.MethodPut, "/api/patients/"+p.ID, admin, map[string]any{"contactNumber": "555-0002"})
	expect(t, rec, http.StatusBadRequest)
	if msg := message(t, rec); msg != "Another patient with this contact number already exists" {
		t.Errorf("message = %q", msg)
	}

	rec = v.do(t, http.MethodPut, "/api/patients/"+uuid.NewString(), admin, map[string]any{"name": "x"})
	expect(t, rec, http.StatusNotFound)
}

func TestPatientDelete(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)
	p := createPatient(t, v, admin, "Jane", "555-0001")

	expect(t, v.do(t, http.MethodDelete, "/api/patients/delete/"+p.ID, admin, nil), http.StatusOK)

	rec := v.do(t, http.MethodGet, "/api/patients/"+p.ID, admin, nil)
	expect(t, rec, http.StatusNotFound)
	if msg := message(t, rec); msg != "Patient not found" {
		t.Errorf("message = %q", msg)
	}
	expect(t, v.do(t, http.MethodDelete, "/api/patients/"+p.ID, admin, nil), http.StatusNotFound)
}

// ----- doctors -----

func TestDoctorDuplicates(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)
	createDoctor(t, v, admin, "House", "555-0100")

	rec := v.do(t, http.MethodPost, "/api/doctors/create", admin, map[string]any{
		"name": "Wilson", "specialization": "Oncology", "contactNumber": "555-0100",
		"email": uniqueEmail(), "password": "doctorpass1",
	})
	expect(t, rec, http.StatusBadRequest)
	if msg := message(t, rec); msg != "Doctor with this contact number already exists" {
		t.Errorf("message = %q", msg)
	}
}

func TestDoctorUpdateMirrorsEmail(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)
	d, _ := createDoctor(t, v, admin, "House", "555-0100")

	newEmail := uniqueEmail()
	rec := v.do(t, http.MethodPut, "/api/doctors/update/"+d.ID, admin, map[string]any{"email": newEmail})
	expect(t, rec, http.StatusOK)
	got := decode[model.Doctor](t, rec)
	if got.Email != newEmail || got.Name != "House" || got.Specialization != "Cardiology" {
		t.Errorf("unexpected doctor after update: %+v", got)
	}

	// the login follows the new address
	login(t, v, newEmail, "doctorpass1")
}

func TestDeleteDoctorRevokesLogin(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)

	email := uniqueEmail()
	rec := v.do(t, http.MethodPost, "/api/doctors/create", admin, map[string]any{
		"name": "Gone", "specialization": "ENT", "contactNumber": "555-0199",
		"email": email, "password": "doctorpass1",
	})
	expect(t, rec, http.StatusCreated)
	d := decode[model.Doctor](t, rec)
	old := login(t, v, email, "doctorpass1").Token
	createPatient(t, v, admin, "Pat", "555-0198")
	expect(t, v.do(t, http.MethodGet, "/api/patients", old, nil), http.StatusOK)

	expect(t, v.do(t, http.MethodDelete, "/api/doctors/delete/"+d.ID, admin, nil), http.StatusOK)

	// a token issued before the delete stops working
	rec = v.do(t, http.MethodGet, "/api/patients", old, nil)
	expect(t, rec, http.StatusUnauthorized)
	if msg := message(t, rec); msg != "Token invalid" {
		t.Errorf("message = %q", msg)
	}
	expect(t, v.do(t, http.MethodGet, "/api/appointments/my-today", old, nil), http.StatusUnauthorized)

	rec = v.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": "doctorpass1"})
	expect(t, rec, http.StatusBadRequest)
	expect(t, v.do(t, http.MethodGet, "/api/doctors/"+d.ID, admin, nil), http.StatusNotFound)
}

// ----- appointments -----

func TestBookingScenario(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)
	d, _ := createDoctor(t, v, admin, "House", "555-0100")
	p := createPatient(t, v, admin, "Jane", "555-0001")

	rec := v.book(t, admin, p.ID, d.ID, "2024-06-10T09:00:00Z")
	expect(t, rec, http.StatusCreated)
	a := decode[model.Appointment](t, rec)
	if a.Status != model.StatusPending {
		t.Errorf("new appointment status = %q", a.Status)
	}
	if a.DoctorID != d.UserID {
		t.Errorf("appointment should reference the doctor's user, got %s", a.DoctorID)
	}

	rec = v.book(t, admin, p.ID, d.ID, "2024-06-10T09:00:00Z")
	expect(t, rec, http.StatusBadRequest)
	if msg := message(t, rec); msg != "This doctor is already booked for this specific time slot." {
		t.Errorf("message = %q", msg)
	}

	expect(t, v.book(t, admin, p.ID, d.ID, "2024-06-10T09:00:01Z"), http.StatusCreated)

	if n := v.mem.Len(); n != 2 {
		t.Errorf("expected 2 stored appointments, got %d", n)
	}
}

func TestBookingLocalTimestamp(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)
	d, _ := createDoctor(t, v, admin, "House", "555-0100")
	p := createPatient(t, v, admin, "Jane", "555-0001")

	// datetime-local input, read in the service zone (UTC here)
	expect(t, v.book(t, admin, p.ID, d.ID, "2024-06-10T09:00"), http.StatusCreated)
	expect(t, v.book(t, admin, p.ID, d.ID, "2024-06-10T09:00:00Z"), http.StatusBadRequest)
}

func TestBookingValidation(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)
	d, _ := createDoctor(t, v, admin, "House", "555-0100")
	p := createPatient(t, v, admin, "Jane", "555-0001")

	tests := []struct {
		name                 string
		patient, doctor, when string
	}{
		{"missing date", p.ID, d.ID, ""},
		{"bad date", p.ID, d.ID, "next tuesday"},
		{"unknown patient", uuid.NewString(), d.ID, "2024-06-10T09:00:00Z"},
		{"unknown doctor", p.ID, uuid.NewString(), "2024-06-10T09:00:00Z"},
		{"missing doctor", p.ID, "", "2024-06-10T09:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expect(t, v.book(t, admin, tt.patient, tt.doctor, tt.when), http.StatusBadRequest)
		})
	}
	if n := v.mem.Len(); n != 0 {
		t.Errorf("expected no stored appointments, got %d", n)
	}
}

func TestConcurrentBooking(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)
	d, _ := createDoctor(t, v, admin, "House", "555-0100")
	p := createPatient(t, v, admin, "Jane", "555-0001")

	const n = 10
	var wg sync.WaitGroup
	codes := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- v.book(t, admin, p.ID, d.ID, "2024-06-10T15:30:00Z").Code
		}()
	}
	wg.Wait()
	close(codes)

	created, conflicts := 0, 0
	for c := range codes {
		switch c {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
			conflicts++
		default:
			t.Errorf("unexpected status %d", c)
		}
	}
	if created != 1 || conflicts != n-1 {
		t.Errorf("expected 1 created and %d conflicts, got %d and %d", n-1, created, conflicts)
	}
}

func TestDoctorVisibility(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)
	house, houseTok := createDoctor(t, v, admin, "House", "555-0100")
	wilson, wilsonTok := createDoctor(t, v, admin, "Wilson", "555-0101")
	p := createPatient(t, v, admin, "Jane", "555-0001")

	expect(t, v.book(t, admin, p.ID, house.ID, "2024-06-01T09:00:00Z"), http.StatusCreated)
	expect(t, v.book(t, admin, p.ID, house.ID, "2024-06-02T09:00:00Z"), http.StatusCreated)
	expect(t, v.book(t, admin, p.ID, wilson.ID, "2024-06-01T10:00:00Z"), http.StatusCreated)

	for _, path := range []string{
		"/api/appointments/my-today",
		"/api/appointments?date=2024-06-02",
	} {
		rec := v.do(t, http.MethodGet, path, houseTok, nil)
		expect(t, rec, http.StatusOK)
		list := decode[[]model.AppointmentView](t, rec)
		if len(list) != 1 {
			t.Fatalf("%s: expected 1 appointment, got %d", path, len(list))
		}
		if list[0].DoctorID != house.UserID || !list[0].AppointmentDate.Equal(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)) {
			t.Errorf("%s: doctor saw %+v", path, list[0])
		}
		if list[0].PatientName != "Jane" {
			t.Errorf("%s: patient name not joined: %+v", path, list[0])
		}
	}

	rec := v.do(t, http.MethodGet, "/api/appointments/my-today", wilsonTok, nil)
	expect(t, rec, http.StatusOK)
	if list := decode[[]model.AppointmentView](t, rec); len(list) != 1 || list[0].DoctorID != wilson.UserID {
		t.Errorf("wilson saw %+v", list)
	}

	rec = v.do(t, http.MethodGet, "/api/appointments?date=2024-06-01", admin, nil)
	expect(t, rec, http.StatusOK)
	list := decode[[]model.AppointmentView](t, rec)
	if len(list) != 2 || list[0].AppointmentDate.After(list[1].AppointmentDate) {
		t.Errorf("admin day listing: %+v", list)
	}
	if list[0].DoctorName != "House" {
		t.Errorf("doctor name not joined: %+v", list[0])
	}

	rec = v.do(t, http.MethodGet, "/api/appointments", admin, nil)
	expect(t, rec, http.StatusOK)
	if all := decode[[]model.AppointmentView](t, rec); len(all) != 3 {
		t.Errorf("admin should see all 3, got %d", len(all))
	}

	expect(t, v.do(t, http.MethodGet, "/api/appointments?date=06/01/2024", admin, nil), http.StatusBadRequest)
}

func TestStatusToggle(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)
	house, houseTok := createDoctor(t, v, admin, "House", "555-0100")
	_, wilsonTok := createDoctor(t, v, admin, "Wilson", "555-0101")
	p := createPatient(t, v, admin, "Jane", "555-0001")

	rec := v.book(t, admin, p.ID, house.ID, "2024-06-01T09:00:00Z")
	expect(t, rec, http.StatusCreated)
	a := decode[model.Appointment](t, rec)
	path := "/api/appointments/" + a.ID + "/status"

	for _, s := range []model.Status{model.StatusCompleted, model.StatusPending} {
		rec = v.do(t, http.MethodPatch, path, houseTok, map[string]model.Status{"status": s})
		expect(t, rec, http.StatusOK)
		if got := decode[model.Appointment](t, rec).Status; got != s {
			t.Errorf("status = %q, want %q", got, s)
		}
	}

	// another doctor cannot see it
	expect(t, v.do(t, http.MethodPatch, path, wilsonTok, map[string]string{"status": "Cancelled"}), http.StatusNotFound)
	expect(t, v.do(t, http.MethodPatch, path, houseTok, map[string]string{"status": "Done"}), http.StatusBadRequest)
	expect(t, v.do(t, http.MethodPatch, path, admin, map[string]string{"status": "Cancelled"}), http.StatusOK)
}

func TestDeleteAppointment(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)
	d, _ := createDoctor(t, v, admin, "House", "555-0100")
	p := createPatient(t, v, admin, "Jane", "555-0001")

	rec := v.book(t, admin, p.ID, d.ID, "2024-06-01T09:00:00Z")
	expect(t, rec, http.StatusCreated)
	a := decode[model.Appointment](t, rec)

	expect(t, v.do(t, http.MethodDelete, "/api/appointments/delete/"+a.ID, admin, nil), http.StatusOK)
	expect(t, v.do(t, http.MethodDelete, "/api/appointments/delete/"+a.ID, admin, nil), http.StatusNotFound)

	// the slot is free again
	expect(t, v.book(t, admin, p.ID, d.ID, "2024-06-01T09:00:00Z"), http.StatusCreated)
}

func TestWatchWithoutHub(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)
	_, doc := createDoctor(t, v, admin, "House", "555-0100")

	expect(t, v.do(t, http.MethodGet, "/api/appointments/ws", doc, nil), http.StatusServiceUnavailable)
}

// ----- dashboard and search -----

type dashboardResult struct {
	Counts   model.Counts     `json:"counts"`
	Activity []model.Activity `json:"activity"`
}

func TestDashboard(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)
	d, _ := createDoctor(t, v, admin, "House", "555-0100")
	p := createPatient(t, v, admin, "Jane", "555-0001")
	expect(t, v.book(t, admin, p.ID, d.ID, "2024-06-01T09:00:00Z"), http.StatusCreated)
	expect(t, v.book(t, admin, p.ID, d.ID, "2024-06-05T09:00:00Z"), http.StatusCreated)

	rec := v.do(t, http.MethodGet, "/api/dashboard", admin, nil)
	expect(t, rec, http.StatusOK)

	res := decode[dashboardResult](t, rec)

	want := model.Counts{Patients: 1, Doctors: 1, AppointmentsToday: 1}
	if res.Counts != want {
		t.Errorf("counts = %+v, want %+v", res.Counts, want)
	}
	// doctor, patient, today's appointment; the future one is not listed
	if len(res.Activity) != 3 {
		t.Fatalf("expected 3 activity rows, got %+v", res.Activity)
	}
	if res.Activity[0].Kind != "appointment" {
		t.Errorf("newest row should be the appointment, got %q", res.Activity[0].Kind)
	}
}

func TestSearch(t *testing.T) {
	v := setup(t)
	admin := adminToken(t, v)
	_, doc := createDoctor(t, v, admin, "Gregory House", "555-0100")
	createPatient(t, v, admin, "Jane Housely", "555-0001")
	createPatient(t, v, admin, "John Smith", "555-0002")

	rec := v.do(t, http.MethodGet, "/api/search?q=house", doc, nil)
	expect(t, rec, http.StatusOK)
	var res struct {
		Patients []model.Patient `json:"patients"`
		Doctors  []model.Doctor  `json:"doctors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Patients) != 1 || res.Patients[0].Name != "Jane Housely" {
		t.Errorf("patients = %+v", res.Patients)
	}
	if len(res.Doctors) != 1 || res.Doctors[0].Name != "Gregory House" {
		t.Errorf("doctors = %+v", res.Doctors)
	}

	rec = v.do(t, http.MethodGet, "/api/search?q=cardio", admin, nil)
	expect(t, rec, http.StatusOK)
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Doctors) != 1 || len(res.Patients) != 0 {
		t.Errorf("specialization search: %+v", res)
	}

	// wildcard characters match literally
	for _, q := range []string{"%25", "_"} {
		rec = v.do(t, http.MethodGet, "/api/search?q="+q, admin, nil)
		expect(t, rec, http.StatusOK)
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatal(err)
		}
		if len(res.Doctors) != 0 || len(res.Patients) != 0 {
			t.Errorf("q=%s matched: %+v", q, res)
		}
	}
}
