package store

import (
	"context"
	"fmt"
	"time"

	"hospital-management-api/internal/model"
)

// AppointmentFilter narrows ListAppointments. Zero fields are ignored; the time
// range is half-open [From, To).
type AppointmentFilter struct {
	DoctorID string
	From     time.Time
	To       time.Time
}

const apptCols = `a.id, a.patient_id, a.doctor_id, a.appointment_date, a.reason, a.status,
	a.created_at, a.updated_at`

func scanAppointment(row interface{ Scan(...any) error }) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.AppointmentDate, &a.Reason, &a.Status,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO appointments (id, patient_id, doctor_id, appointment_date, reason, status)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.AppointmentDate, a.Reason, a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return mapErr(err)
}

// AppointmentAt returns the appointment holding the exact (doctor, time) slot.
func (s *Store) AppointmentAt(ctx context.Context, doctorID string, at time.Time) (*model.Appointment, error) {
	return scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments a
		 WHERE a.doctor_id = $1 AND a.appointment_date = $2`, doctorID, at))
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	return scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments a WHERE a.id = $1`, id))
}

func (s *Store) ListAppointments(ctx context.Context, f AppointmentFilter) ([]model.AppointmentView, error) {
	q := `SELECT ` + apptCols + `,
		        p.name, p.contact_number, COALESCE(d.name, u.username)
		 FROM appointments a
		 JOIN patients p ON p.id = a.patient_id
		 JOIN users u ON u.id = a.doctor_id
		 LEFT JOIN doctors d ON d.user_id = a.doctor_id
		 WHERE TRUE`

	var args []any
	if f.DoctorID != "" {
		args = append(args, f.DoctorID)
		q += fmt.Sprintf(` AND a.doctor_id = $%d`, len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		q += fmt.Sprintf(` AND a.appointment_date >= $%d`, len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		q += fmt.Sprintf(` AND a.appointment_date < $%d`, len(args))
	}
	q += ` ORDER BY a.appointment_date`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []model.AppointmentView{}
	for rows.Next() {
		var v model.AppointmentView
		a := &v.Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.AppointmentDate, &a.Reason, &a.Status,
			&a.CreatedAt, &a.UpdatedAt, &v.PatientName, &v.PatientContact, &v.DoctorName); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) SetAppointmentStatus(ctx context.Context, id string, status model.Status) (*model.Appointment, error) {
	return scanAppointment(s.pool.QueryRow(ctx,
		`UPDATE appointments a SET status=$2, updated_at=NOW()
		 WHERE a.id=$1
		 RETURNING `+apptCols, id, status))
}

// DeleteAppointment removes the appointment and returns what was deleted.
func (s *Store) DeleteAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	return scanAppointment(s.pool.QueryRow(ctx,
		`DELETE FROM appointments a WHERE a.id=$1 RETURNING `+apptCols, id))
}
