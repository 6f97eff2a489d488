package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/sendkite/broadcast-backend/internal/errors"
	"github.com/sendkite/broadcast-backend/internal/model"
)

// ContactRepositoryInterface defines the contact book operations used by the
// services.
type ContactRepositoryInterface interface {
	List(ctx context.Context, search, tag string) ([]model.Contact, error)
	Create(ctx context.Context, c *model.Contact) error
	AllPhones(ctx context.Context) ([]string, error)
}

// ContactRepository is the Postgres implementation.
type ContactRepository struct {
	DB *sql.DB
}

// List fetches contacts, optionally filtered by a name/phone search term and
// a normalized tag.
func (r *ContactRepository) List(ctx context.Context, search, tag string) ([]model.Contact, error) {
	query := `SELECT id, name, phone, tags, created_at FROM contacts WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if search != "" {
		query += ` AND (name ILIKE '%' || $1 || '%' OR phone LIKE '%' || $1 || '%')`
		args = append(args, search)
		argPos++
	}
	if tag != "" {
		query += fmt.Sprintf(" AND $%d = ANY(tags)", argPos)
		args = append(args, tag)
	}
	query += ` ORDER BY id`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, pq.Array(&c.Tags), &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// Create inserts a contact. The phone column carries a unique constraint;
// a violation is returned as appErrors.ErrDuplicatePhone so callers can tell
// conflicts from real failures.
func (r *ContactRepository) Create(ctx context.Context, c *model.Contact) error {
	c.CreatedAt = time.Now()
	query := `
        INSERT INTO contacts (name, phone, tags, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	err := r.DB.QueryRowContext(ctx, query, c.Name, c.Phone, pq.Array(c.Tags), c.CreatedAt).Scan(&c.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return appErrors.ErrDuplicatePhone
		}
		return err
	}
	return nil
}

// AllPhones returns every canonical phone in the book, used to seed the
// import pipeline's membership set.
func (r *ContactRepository) AllPhones(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT phone FROM contacts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	phones := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		phones = append(phones, p)
	}
	return phones, rows.Err()
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
