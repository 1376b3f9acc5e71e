package store

import (
	"context"
	"time"

	"hospital-management-api/internal/model"
)

// Counts reports directory sizes and the number of appointments in [from, to).
func (s *Store) Counts(ctx context.Context, from, to time.Time) (model.Counts, error) {
	var c model.Counts
	err := s.pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM patients),
		        (SELECT COUNT(*) FROM doctors),
		        (SELECT COUNT(*) FROM appointments WHERE appointment_date >= $1 AND appointment_date < $2)`,
		from, to,
	).Scan(&c.Patients, &c.Doctors, &c.AppointmentsToday)
	return c, mapErr(err)
}

// RecentActivity merges new patients, new doctors and appointments booked for
// [from, to), newest first.
func (s *Store) RecentActivity(ctx context.Context, from, to time.Time, limit int) ([]model.Activity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, name, created_at FROM (
		     SELECT id::text, 'patient' AS kind, name, created_at FROM patients
		     UNION ALL
		     SELECT id::text, 'doctor', name, created_at FROM doctors
		     UNION ALL
		     SELECT a.id::text, 'appointment', p.name, a.created_at
		     FROM appointments a JOIN patients p ON p.id = a.patient_id
		     WHERE a.appointment_date >= $1 AND a.appointment_date < $2
		 ) act
		 ORDER BY created_at DESC
		 LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []model.Activity{}
	for rows.Next() {
		var name string
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.Kind, &name, &a.Time); err != nil {
			return nil, err
		}
		out = append(out, model.DescribeActivity(a, name))
	}
	return out, rows.Err()
}

// SearchPatients matches name or contact number, case-insensitively. q is a
// plain substring; % and _ have no special meaning.
func (s *Store) SearchPatients(ctx context.Context, q string) ([]model.Patient, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+patientCols+` FROM patients
		 WHERE strpos(lower(name), lower($1)) > 0 OR strpos(lower(contact_number), lower($1)) > 0
		 ORDER BY name`, q)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []model.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// SearchDoctors matches name or specialization, case-insensitively.
func (s *Store) SearchDoctors(ctx context.Context, q string) ([]model.Doctor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+doctorCols+` FROM doctors
		 WHERE strpos(lower(name), lower($1)) > 0 OR strpos(lower(specialization), lower($1)) > 0
		 ORDER BY name`, q)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []model.Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}
