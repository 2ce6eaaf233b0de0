package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mkravets/contactly/internal/apperror"
)

// ContactRepository defines the data access contract for contacts. Every
// method takes the owning user's ID and only touches that user's rows.
type ContactRepository interface {
	Create(ctx context.Context, contact *Contact) error
	FindByID(ctx context.Context, userID string, id int64) (*Contact, error)
	List(ctx context.Context, userID string, filter ListFilter) ([]Contact, error)
	ListAll(ctx context.Context, userID string) ([]Contact, error)
	Update(ctx context.Context, contact *Contact) error
	Delete(ctx context.Context, userID string, id int64) error
}

// contactRepository implements ContactRepository with MariaDB queries.
type contactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new contact repository.
func NewContactRepository(db *sql.DB) ContactRepository {
	return &contactRepository{db: db}
}

// Create inserts a new contact row and fills in the generated ID.
func (r *contactRepository) Create(ctx context.Context, contact *Contact) error {
	query := `INSERT INTO contacts (user_id, first_name, last_name, email, phone, birthday)
	          VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		contact.UserID, contact.FirstName, contact.LastName,
		contact.Email, contact.Phone, contact.Birthday,
	)
	if err != nil {
		return fmt.Errorf("inserting contact: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting contact id: %w", err)
	}
	contact.ID = id
	return nil
}

// FindByID retrieves one of the user's contacts by ID.
func (r *contactRepository) FindByID(ctx context.Context, userID string, id int64) (*Contact, error) {
	query := `SELECT id, user_id, first_name, last_name, email, phone, birthday
	          FROM contacts WHERE id = ? AND user_id = ?`

	contact := &Contact{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&contact.ID, &contact.UserID, &contact.FirstName, &contact.LastName,
		&contact.Email, &contact.Phone, &contact.Birthday,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("contact not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying contact by id: %w", err)
	}
	return contact, nil
}

// List retrieves the user's contacts with optional equality filters and
// skip/limit pagination. The WHERE clause is assembled from the filter;
// values always ride as placeholders.
func (r *contactRepository) List(ctx context.Context, userID string, filter ListFilter) ([]Contact, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, user_id, first_name, last_name, email, phone, birthday
	                FROM contacts WHERE user_id = ?`)
	args := []any{userID}

	if filter.FirstName != "" {
		sb.WriteString(" AND first_name = ?")
		args = append(args, filter.FirstName)
	}
	if filter.LastName != "" {
		sb.WriteString(" AND last_name = ?")
		args = append(args, filter.LastName)
	}
	if filter.Email != "" {
		sb.WriteString(" AND email = ?")
		args = append(args, filter.Email)
	}

	sb.WriteString(" ORDER BY id LIMIT ? OFFSET ?")
	args = append(args, filter.Limit, filter.Skip)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.UserID, &c.FirstName, &c.LastName,
			&c.Email, &c.Phone, &c.Birthday); err != nil {
			return nil, fmt.Errorf("scanning contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contacts: %w", err)
	}
	return contacts, nil
}

// ListAll retrieves every contact the user owns, unpaginated. Used by the
// upcoming-birthdays query, which filters in application code.
func (r *contactRepository) ListAll(ctx context.Context, userID string) ([]Contact, error) {
	query := `SELECT id, user_id, first_name, last_name, email, phone, birthday
	          FROM contacts WHERE user_id = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.UserID, &c.FirstName, &c.LastName,
			&c.Email, &c.Phone, &c.Birthday); err != nil {
			return nil, fmt.Errorf("scanning contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contacts: %w", err)
	}
	return contacts, nil
}

// Update rewrites all mutable columns of one of the user's contacts.
func (r *contactRepository) Update(ctx context.Context, contact *Contact) error {
	query := `UPDATE contacts
	          SET first_name = ?, last_name = ?, email = ?, phone = ?, birthday = ?
	          WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query,
		contact.FirstName, contact.LastName, contact.Email,
		contact.Phone, contact.Birthday,
		contact.ID, contact.UserID,
	)
	if err != nil {
		return fmt.Errorf("updating contact: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking updated rows: %w", err)
	}
	if affected == 0 {
		return apperror.NewNotFound("contact not found")
	}
	return nil
}

// Delete removes one of the user's contacts.
func (r *contactRepository) Delete(ctx context.Context, userID string, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if affected == 0 {
		return apperror.NewNotFound("contact not found")
	}
	return nil
}
