package contacts

import (
	"context"
	"fmt"
	"time"

	"github.com/mkravets/contactly/internal/apperror"
)

// Pagination bounds for contact listings.
const (
	defaultLimit = 10
	maxLimit     = 100
)

// birthdayWindow is how far ahead the upcoming-birthdays query looks.
const birthdayWindow = 7 * 24 * time.Hour

// ContactService defines the business logic contract for contacts.
type ContactService interface {
	Create(ctx context.Context, userID string, req *ContactRequest) (*Contact, error)
	Get(ctx context.Context, userID string, id int64) (*Contact, error)
	List(ctx context.Context, userID string, filter ListFilter) ([]Contact, error)
	Update(ctx context.Context, userID string, id int64, req *ContactRequest) (*Contact, error)
	Delete(ctx context.Context, userID string, id int64) error
	UpcomingBirthdays(ctx context.Context, userID string) ([]Contact, error)
}

// contactService implements ContactService over an injected repository.
// now is injectable so the birthday window is testable.
type contactService struct {
	repo ContactRepository
	now  func() time.Time
}

// NewContactService creates a new contact service.
func NewContactService(repo ContactRepository) ContactService {
	return &contactService{repo: repo, now: time.Now}
}

// Create validates and stores a new contact for the user.
func (s *contactService) Create(ctx context.Context, userID string, req *ContactRequest) (*Contact, error) {
	if msg := validateContact(req, s.now()); msg != "" {
		return nil, apperror.NewValidation(msg)
	}

	contact := &Contact{
		UserID:    userID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Birthday:  req.Birthday,
	}
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating contact: %w", err))
	}
	return contact, nil
}

// Get retrieves one of the user's contacts.
func (s *contactService) Get(ctx context.Context, userID string, id int64) (*Contact, error) {
	contact, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding contact: %w", err))
	}
	return contact, nil
}

// List retrieves the user's contacts with filters and pagination.
func (s *contactService) List(ctx context.Context, userID string, filter ListFilter) ([]Contact, error) {
	if filter.Skip < 0 {
		filter.Skip = 0
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}

	contacts, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing contacts: %w", err))
	}
	if contacts == nil {
		contacts = []Contact{}
	}
	return contacts, nil
}

// Update validates and rewrites an existing contact. 404 if the user owns
// no contact with that ID.
func (s *contactService) Update(ctx context.Context, userID string, id int64, req *ContactRequest) (*Contact, error) {
	if msg := validateContact(req, s.now()); msg != "" {
		return nil, apperror.NewValidation(msg)
	}

	contact, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	contact.FirstName = req.FirstName
	contact.LastName = req.LastName
	contact.Email = req.Email
	contact.Phone = req.Phone
	contact.Birthday = req.Birthday

	if err := s.repo.Update(ctx, contact); err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("updating contact: %w", err))
	}
	return contact, nil
}

// Delete removes one of the user's contacts. 404 if it doesn't exist.
func (s *contactService) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("deleting contact: %w", err))
	}
	return nil
}

// UpcomingBirthdays returns the user's contacts whose birthday, moved to
// the current year, falls strictly after today and within the next seven
// days. Late-December birthdays that wrap into January are not matched;
// the window does not cross the year boundary.
func (s *contactService) UpcomingBirthdays(ctx context.Context, userID string) ([]Contact, error) {
	contacts, err := s.repo.ListAll(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing contacts: %w", err))
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	windowEnd := today.Add(birthdayWindow)

	upcoming := []Contact{}
	for _, c := range contacts {
		b := c.Birthday.Time
		thisYear := time.Date(today.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
		if thisYear.After(today) && !thisYear.After(windowEnd) {
			upcoming = append(upcoming, c)
		}
	}
	return upcoming, nil
}
