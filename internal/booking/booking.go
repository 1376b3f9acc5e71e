// Package booking implements appointment booking on top of the store: the
// exact-slot conflict check, role scoped listings and status changes.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"hospital-management-api/internal/apierr"
	"hospital-management-api/internal/model"
	"hospital-management-api/internal/store"
)

// ErrSlotTaken is returned when the doctor already has an appointment at the
// exact requested time.
var ErrSlotTaken = store.ErrSlotTaken

type Store interface {
	AppointmentAt(ctx context.Context, doctorID string, at time.Time) (*model.Appointment, error)
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointments(ctx context.Context, f store.AppointmentFilter) ([]model.AppointmentView, error)
	SetAppointmentStatus(ctx context.Context, id string, status model.Status) (*model.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) (*model.Appointment, error)

	GetPatient(ctx context.Context, id string) (*model.Patient, error)
	GetDoctor(ctx context.Context, id string) (*model.Doctor, error)
	DoctorByUserID(ctx context.Context, userID string) (*model.Doctor, error)
	UserByID(ctx context.Context, id string) (*model.User, error)
}

// Event kinds delivered to Notifier.
const (
	EventCreated = "created"
	EventStatus  = "status"
	EventDeleted = "deleted"
)

// Notifier receives appointment changes addressed to the assigned doctor.
type Notifier interface {
	Notify(userID, kind string, a *model.Appointment)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, *model.Appointment) {}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   model.Role
}

type BookRequest struct {
	PatientID       string
	DoctorID        string
	AppointmentDate time.Time
	Reason          string
}

type Service struct {
	store  Store
	notify Notifier
	loc    *time.Location
	now    func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, used to pin "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notify = n
		}
	}
}

func NewService(st Store, loc *time.Location, opts ...Option) *Service {
	if loc == nil {
		loc = time.Local
	}
	s := &Service{store: st, notify: nopNotifier{}, loc: loc, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TryBook creates a Pending appointment unless the doctor already holds the
// exact same timestamp. Slots one second apart do not conflict.
func (s *Service) TryBook(ctx context.Context, req BookRequest) (*model.Appointment, error) {
	if strings.TrimSpace(req.PatientID) == "" {
		return nil, apierr.NewValidationError("patient", "required")
	}
	if strings.TrimSpace(req.DoctorID) == "" {
		return nil, apierr.NewValidationError("doctor", "required")
	}
	if req.AppointmentDate.IsZero() {
		return nil, apierr.NewValidationError("appointmentDate", "required")
	}

	if _, err := s.store.GetPatient(ctx, req.PatientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierr.NewValidationError("patient", "not found")
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	doctorID, err := s.resolveDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}

	// database precision is microseconds
	at := req.AppointmentDate.Truncate(time.Microsecond)

	// early exit only; the unique index decides races
	if _, err := s.store.AppointmentAt(ctx, doctorID, at); err == nil {
		return nil, ErrSlotTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check slot: %w", err)
	}

	a := &model.Appointment{
		ID:              uuid.New().String(),
		PatientID:       req.PatientID,
		DoctorID:        doctorID,
		AppointmentDate: at,
		Reason:          req.Reason,
		Status:          model.StatusPending,
	}
	if err := s.store.CreateAppointment(ctx, a); err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			return nil, ErrSlotTaken
		}
		if errors.Is(err, store.ErrReference) {
			return nil, apierr.NewValidationError("", "patient or doctor no longer exists")
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.notify.Notify(a.DoctorID, EventCreated, a)
	return a, nil
}

// resolveDoctor accepts a doctor's user id, a Doctor record id, or the id of a
// user registered with the doctor role, and returns the user id appointments
// are keyed by.
func (s *Service) resolveDoctor(ctx context.Context, id string) (string, error) {
	if d, err := s.store.DoctorByUserID(ctx, id); err == nil {
		return d.UserID, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("load doctor: %w", err)
	}

	if d, err := s.store.GetDoctor(ctx, id); err == nil {
		return d.UserID, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("load doctor: %w", err)
	}

	u, err := s.store.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", apierr.NewValidationError("doctor", "not found")
		}
		return "", fmt.Errorf("load doctor user: %w", err)
	}
	if u.Role != model.RoleDoctor {
		return "", apierr.NewValidationError("doctor", "not found")
	}
	return u.ID, nil
}

// List returns the appointments visible to the actor, ordered by time.
// Admins see everything, or a single calendar day when date (YYYY-MM-DD) is
// set. Doctors see only their own appointments for today and date is ignored.
func (s *Service) List(ctx context.Context, actor Actor, date string) ([]model.AppointmentView, error) {
	var f store.AppointmentFilter

	switch actor.Role {
	case model.RoleAdmin:
		if date != "" {
			from, to, err := s.DayBounds(date)
			if err != nil {
				return nil, err
			}
			f.From, f.To = from, to
		}
	case model.RoleDoctor:
		f.DoctorID = actor.UserID
		f.From, f.To = s.Today()
	default:
		return nil, fmt.Errorf("unknown role %q", actor.Role)
	}

	return s.store.ListAppointments(ctx, f)
}

// Location is the zone calendar days are computed in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Today returns the bounds of the current calendar day in the service zone.
func (s *Service) Today() (time.Time, time.Time) {
	now := s.now().In(s.loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	return from, from.AddDate(0, 0, 1)
}

// DayBounds parses YYYY-MM-DD and returns [start of day, start of next day).
func (s *Service) DayBounds(date string) (time.Time, time.Time, error) {
	from, err := time.ParseInLocation(time.DateOnly, date, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, apierr.NewValidationError("date", "expected YYYY-MM-DD")
	}
	return from, from.AddDate(0, 0, 1), nil
}

// SetStatus changes the status of an appointment. Any status may follow any
// other. Doctors may only touch their own appointments; others look missing.
func (s *Service) SetStatus(ctx context.Context, actor Actor, id string, status model.Status) (*model.Appointment, error) {
	if !status.Valid() {
		return nil, apierr.NewValidationError("status", "must be Pending, Completed or Cancelled")
	}

	if actor.Role != model.RoleAdmin {
		a, err := s.store.GetAppointment(ctx, id)
		if err != nil {
			return nil, err
		}
		if a.DoctorID != actor.UserID {
			return nil, store.ErrNotFound
		}
	}

	a, err := s.store.SetAppointmentStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.notify.Notify(a.DoctorID, EventStatus, a)
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	a, err := s.store.DeleteAppointment(ctx, id)
	if err != nil {
		return err
	}
	s.notify.Notify(a.DoctorID, EventDeleted, a)
	return nil
}
