package store

import (
	"context"

	"hospital-management-api/internal/model"
)

const doctorCols = `id, user_id, name, specialization, contact_number, email, created_at, updated_at`

func scanDoctor(row interface{ Scan(...any) error }) (*model.Doctor, error) {
	d := &model.Doctor{}
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Specialization, &d.ContactNumber, &d.Email,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return d, nil
}

// CreateDoctor inserts the login user and the doctor record in one transaction.
func (s *Store) CreateDoctor(ctx context.Context, u *model.User, d *model.Doctor) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO users (id, username, email, password_hash, role) VALUES ($1,$2,$3,$4,$5)
		 RETURNING created_at, updated_at`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}

	d.UserID = u.ID
	err = tx.QueryRow(ctx,
		`INSERT INTO doctors (id, user_id, name, specialization, contact_number, email)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING created_at, updated_at`,
		d.ID, d.UserID, d.Name, d.Specialization, d.ContactNumber, d.Email,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}

	return mapErr(tx.Commit(ctx))
}

func (s *Store) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+doctorCols+` FROM doctors ORDER BY created_at`)
	if err != nil {
		return nil, err
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

func (s *Store) GetDoctor(ctx context.Context, id string) (*model.Doctor, error) {
	return scanDoctor(s.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (s *Store) DoctorByUserID(ctx context.Context, userID string) (*model.Doctor, error) {
	return scanDoctor(s.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE user_id = $1`, userID))
}

// UpdateDoctor writes all mutable doctor fields and mirrors the email onto the
// linked user.
func (s *Store) UpdateDoctor(ctx context.Context, d *model.Doctor) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`UPDATE doctors SET name=$2, specialization=$3, contact_number=$4, email=$5, updated_at=NOW()
		 WHERE id=$1
		 RETURNING user_id, updated_at`,
		d.ID, d.Name, d.Specialization, d.ContactNumber, d.Email,
	).Scan(&d.UserID, &d.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET email=$2, updated_at=NOW() WHERE id=$1 AND email <> $2`,
		d.UserID, d.Email,
	); err != nil {
		return mapErr(err)
	}

	return mapErr(tx.Commit(ctx))
}

// DeleteDoctor removes the doctor and its login user. Appointments held by the
// user go with it through ON DELETE CASCADE.
func (s *Store) DeleteDoctor(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var userID string
	if err := tx.QueryRow(ctx, `DELETE FROM doctors WHERE id=$1 RETURNING user_id`, id).Scan(&userID); err != nil {
		return mapErr(err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id=$1`, userID); err != nil {
		return mapErr(err)
	}
	return mapErr(tx.Commit(ctx))
}
