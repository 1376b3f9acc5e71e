package store

import (
	"context"

	"hospital-management-api/internal/model"
)

const patientCols = `id, name, age, gender, address, contact_number, medical_history, created_at, updated_at`

func scanPatient(row interface{ Scan(...any) error }) (*model.Patient, error) {
	p := &model.Patient{}
	err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.Address, &p.ContactNumber, &p.MedicalHistory,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (s *Store) CreatePatient(ctx context.Context, p *model.Patient) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO patients (id, name, age, gender, address, contact_number, medical_history)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Age, p.Gender, p.Address, p.ContactNumber, p.MedicalHistory,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapErr(err)
}

func (s *Store) ListPatients(ctx context.Context) ([]model.Patient, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY created_at`)
	if err != nil {
		return nil, err
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

func (s *Store) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	return scanPatient(s.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (s *Store) UpdatePatient(ctx context.Context, p *model.Patient) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE patients SET name=$2, age=$3, gender=$4, address=$5, contact_number=$6,
		        medical_history=$7, updated_at=NOW()
		 WHERE id=$1
		 RETURNING updated_at`,
		p.ID, p.Name, p.Age, p.Gender, p.Address, p.ContactNumber, p.MedicalHistory,
	).Scan(&p.UpdatedAt)
	return mapErr(err)
}

func (s *Store) DeletePatient(ctx context.Context, id string) error {
	return execOne(s.pool.Exec(ctx, `DELETE FROM patients WHERE id=$1`, id))
}
