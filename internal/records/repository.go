// Package records persists booking confirmations for the back office. The
// provider owns the appointment; these rows are a local audit trail.
package records

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is one persisted booking confirmation.
type Record struct {
	ID                uuid.UUID `json:"id"`
	AppointmentID     int64     `json:"appointmentId"`
	AppointmentTypeID int       `json:"appointmentTypeId"`
	Datetime          string    `json:"datetime"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	Price             string    `json:"price"`
	Paid              string    `json:"paid"`
	Outcome           string    `json:"outcome"`
	ConfirmationURL   string    `json:"confirmationUrl"`
	CreatedAt         time.Time `json:"createdAt"`
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository provides persistence for booking records.
type Repository struct {
	db querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("records: pgx pool required")
	}
	return &Repository{db: pool}
}

func newRepositoryWithExec(db querier) *Repository {
	if db == nil {
		panic("records: exec required")
	}
	return &Repository{db: db}
}

// Insert writes one confirmation row.
func (r *Repository) Insert(ctx context.Context, rec Record) error {
	query := `
		INSERT INTO booking_records (
			id, appointment_id, appointment_type_id, datetime,
			first_name, last_name, email, phone,
			price, paid, outcome, confirmation_url
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.AppointmentID, rec.AppointmentTypeID, rec.Datetime,
		rec.FirstName, rec.LastName, rec.Email, rec.Phone,
		rec.Price, rec.Paid, rec.Outcome, rec.ConfirmationURL,
	)
	if err != nil {
		return fmt.Errorf("records: insert booking record: %w", err)
	}
	return nil
}

// ListRecent returns the newest records first.
func (r *Repository) ListRecent(ctx context.Context, limit int32) ([]Record, error) {
	query := `
		SELECT id, appointment_id, appointment_type_id, datetime,
		       first_name, last_name, email, phone,
		       price, paid, outcome, confirmation_url, created_at
		FROM booking_records
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("records: list recent: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.AppointmentID, &rec.AppointmentTypeID, &rec.Datetime,
			&rec.FirstName, &rec.LastName, &rec.Email, &rec.Phone,
			&rec.Price, &rec.Paid, &rec.Outcome, &rec.ConfirmationURL, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("records: scan booking record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
