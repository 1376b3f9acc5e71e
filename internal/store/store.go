package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrEmailTaken   = errors.New("email already in use")
	ErrContactTaken = errors.New("contact number already in use")
	ErrSlotTaken    = errors.New("slot already booked")
	ErrReference    = errors.New("referenced record does not exist")
)

// constraint name -> sentinel, names come from db/migrations
var uniqueViolations = map[string]error{
	"users_email_key":              ErrEmailTaken,
	"doctors_contact_number_key":   ErrContactTaken,
	"patients_contact_number_key":  ErrContactTaken,
	"appointments_doctor_slot_key": ErrSlotTaken,
}

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewPool opens and pings a pgx pool sized by maxConns/minConns.
func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// mapErr turns driver errors into the package sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			if sentinel, ok := uniqueViolations[pgErr.ConstraintName]; ok {
				return sentinel
			}
		case "23503":
			return ErrReference
		case "22P02":
			// malformed uuid literal
			return ErrNotFound
		}
	}
	return err
}

// execOne runs a single-row write and reports ErrNotFound when nothing matched.
func execOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
