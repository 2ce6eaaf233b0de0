// Package contacts implements per-user contact management: CRUD with
// list filters and pagination, plus the upcoming-birthdays query. Every
// operation is scoped to the owning user; one user can never see or touch
// another user's contacts.
package contacts

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"time"
)

// dateLayout is the wire and storage format for birthdays.
const dateLayout = "2006-01-02"

// Date is a calendar day without a time component. It marshals as
// "YYYY-MM-DD" in JSON and maps to the DATE column type.
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON renders the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON parses "YYYY-MM-DD".
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("date must be a %q string", dateLayout)
	}
	t, err := time.Parse(dateLayout, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("parsing date: %w", err)
	}
	d.Time = t
	return nil
}

// Scan implements sql.Scanner. The driver delivers DATE columns as
// time.Time when parseTime is enabled.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = v
		return nil
	case []byte:
		t, err := time.Parse(dateLayout, string(v))
		if err != nil {
			return fmt.Errorf("scanning date: %w", err)
		}
		d.Time = t
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.Format(dateLayout), nil
}

// Contact is a persisted contact record, always owned by one user.
type Contact struct {
	ID        int64  `json:"id"`
	UserID    string `json:"-"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Birthday  Date   `json:"birthday"`
}

// ContactRequest is the create/update payload.
type ContactRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Birthday  Date   `json:"birthday"`
}

// ListFilter narrows and paginates a contact listing. Zero-value string
// fields are ignored; Limit is capped by the service.
type ListFilter struct {
	FirstName string
	LastName  string
	Email     string
	Skip      int
	Limit     int
}

// phonePattern matches Ukrainian mobile numbers: +380 followed by nine digits.
var phonePattern = regexp.MustCompile(`^\+380\d{9}$`)

// emailPattern is the same pragmatic check the auth package uses.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// validateContact checks a create/update payload. Returns an error message
// or empty string.
func validateContact(req *ContactRequest, now time.Time) string {
	if req.FirstName == "" || req.LastName == "" {
		return "first_name and last_name are required"
	}
	if len(req.FirstName) > 100 || len(req.LastName) > 100 {
		return "names must be at most 100 characters"
	}
	if req.Email == "" || len(req.Email) > 100 || !emailPattern.MatchString(req.Email) {
		return "email is not a valid address"
	}
	if !phonePattern.MatchString(req.Phone) {
		return "phone must match +380XXXXXXXXX"
	}
	if req.Birthday.IsZero() {
		return "birthday is required"
	}
	if !req.Birthday.Before(now) {
		return "birthday must be in the past"
	}
	return ""
}
