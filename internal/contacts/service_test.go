package contacts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mkravets/contactly/internal/apperror"
)

// --- Mock Repository ---

// mockContactRepo implements ContactRepository for testing.
type mockContactRepo struct {
	createFn   func(ctx context.Context, contact *Contact) error
	findByIDFn func(ctx context.Context, userID string, id int64) (*Contact, error)
	listFn     func(ctx context.Context, userID string, filter ListFilter) ([]Contact, error)
	listAllFn  func(ctx context.Context, userID string) ([]Contact, error)
	updateFn   func(ctx context.Context, contact *Contact) error
	deleteFn   func(ctx context.Context, userID string, id int64) error
}

func (m *mockContactRepo) Create(ctx context.Context, contact *Contact) error {
	if m.createFn != nil {
		return m.createFn(ctx, contact)
	}
	contact.ID = 1
	return nil
}

func (m *mockContactRepo) FindByID(ctx context.Context, userID string, id int64) (*Contact, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, userID, id)
	}
	return nil, apperror.NewNotFound("contact not found")
}

func (m *mockContactRepo) List(ctx context.Context, userID string, filter ListFilter) ([]Contact, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, filter)
	}
	return nil, nil
}

func (m *mockContactRepo) ListAll(ctx context.Context, userID string) ([]Contact, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockContactRepo) Update(ctx context.Context, contact *Contact) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, contact)
	}
	return nil
}

func (m *mockContactRepo) Delete(ctx context.Context, userID string, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

// --- Test Helpers ---

const testUserID = "11111111-2222-3333-4444-555555555555"

// fixedNow pins the clock for deterministic birthday-window tests.
var fixedNow = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

func newTestService(repo *mockContactRepo) *contactService {
	return &contactService{repo: repo, now: func() time.Time { return fixedNow }}
}

func validRequest() *ContactRequest {
	return &ContactRequest{
		FirstName: "Olena",
		LastName:  "Shevchenko",
		Email:     "olena@example.com",
		Phone:     "+380501234567",
		Birthday:  NewDate(1990, time.March, 15),
	}
}

func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// --- Create Tests ---

func TestCreate_Success(t *testing.T) {
	var created *Contact
	repo := &mockContactRepo{
		createFn: func(ctx context.Context, contact *Contact) error {
			contact.ID = 42
			created = contact
			return nil
		},
	}
	svc := newTestService(repo)

	contact, err := svc.Create(context.Background(), testUserID, validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contact.ID != 42 {
		t.Errorf("expected generated ID 42, got %d", contact.ID)
	}
	if created.UserID != testUserID {
		t.Errorf("expected owner %s, got %s", testUserID, created.UserID)
	}
}

func TestCreate_InvalidPhone(t *testing.T) {
	svc := newTestService(&mockContactRepo{})

	for _, phone := range []string{"", "0501234567", "+38050123456", "+3805012345678", "+380abcdefghi"} {
		req := validRequest()
		req.Phone = phone
		_, err := svc.Create(context.Background(), testUserID, req)
		if err == nil {
			t.Errorf("phone %q: expected validation error", phone)
			continue
		}
		assertAppError(t, err, 422)
	}
}

func TestCreate_BirthdayMustBePast(t *testing.T) {
	svc := newTestService(&mockContactRepo{})

	req := validRequest()
	req.Birthday = NewDate(2030, time.January, 1)
	_, err := svc.Create(context.Background(), testUserID, req)
	assertAppError(t, err, 422)
}

func TestCreate_MissingNames(t *testing.T) {
	svc := newTestService(&mockContactRepo{})

	req := validRequest()
	req.FirstName = ""
	_, err := svc.Create(context.Background(), testUserID, req)
	assertAppError(t, err, 422)
}

// --- Get / Update / Delete Tests ---

func TestGet_NotFound(t *testing.T) {
	svc := newTestService(&mockContactRepo{})

	_, err := svc.Get(context.Background(), testUserID, 99)
	assertAppError(t, err, 404)
}

func TestGet_ScopedToUser(t *testing.T) {
	repo := &mockContactRepo{
		findByIDFn: func(ctx context.Context, userID string, id int64) (*Contact, error) {
			if userID != testUserID {
				t.Errorf("expected lookup scoped to %s, got %s", testUserID, userID)
			}
			return &Contact{ID: id, UserID: userID}, nil
		},
	}
	svc := newTestService(repo)

	if _, err := svc.Get(context.Background(), testUserID, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestService(&mockContactRepo{})

	_, err := svc.Update(context.Background(), testUserID, 99, validRequest())
	assertAppError(t, err, 404)
}

func TestUpdate_RewritesFields(t *testing.T) {
	existing := &Contact{
		ID: 7, UserID: testUserID,
		FirstName: "Old", LastName: "Name",
		Email: "old@example.com", Phone: "+380501111111",
		Birthday: NewDate(1980, time.January, 1),
	}
	var updated *Contact
	repo := &mockContactRepo{
		findByIDFn: func(ctx context.Context, userID string, id int64) (*Contact, error) {
			return existing, nil
		},
		updateFn: func(ctx context.Context, contact *Contact) error {
			updated = contact
			return nil
		},
	}
	svc := newTestService(repo)

	req := validRequest()
	contact, err := svc.Update(context.Background(), testUserID, 7, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated == nil {
		t.Fatal("expected repository Update to be called")
	}
	if contact.FirstName != req.FirstName || contact.Phone != req.Phone {
		t.Errorf("expected fields rewritten, got %+v", contact)
	}
	if contact.ID != 7 || contact.UserID != testUserID {
		t.Error("update must preserve identity and ownership")
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc := newTestService(&mockContactRepo{})

	err := svc.Delete(context.Background(), testUserID, 99)
	assertAppError(t, err, 404)
}

// --- List Tests ---

func TestList_PaginationDefaults(t *testing.T) {
	var got ListFilter
	repo := &mockContactRepo{
		listFn: func(ctx context.Context, userID string, filter ListFilter) ([]Contact, error) {
			got = filter
			return nil, nil
		},
	}
	svc := newTestService(repo)

	contacts, err := svc.List(context.Background(), testUserID, ListFilter{Skip: -5, Limit: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Skip != 0 || got.Limit != defaultLimit {
		t.Errorf("expected skip=0 limit=%d, got skip=%d limit=%d", defaultLimit, got.Skip, got.Limit)
	}
	if contacts == nil {
		t.Error("empty listing must be [], not null")
	}
}

func TestList_LimitCapped(t *testing.T) {
	var got ListFilter
	repo := &mockContactRepo{
		listFn: func(ctx context.Context, userID string, filter ListFilter) ([]Contact, error) {
			got = filter
			return nil, nil
		},
	}
	svc := newTestService(repo)

	if _, err := svc.List(context.Background(), testUserID, ListFilter{Limit: 10000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Limit != maxLimit {
		t.Errorf("expected limit capped at %d, got %d", maxLimit, got.Limit)
	}
}

// --- Birthday Window Tests ---

// birthdayContact builds a contact whose birthday falls on the given
// month/day (birth year is irrelevant to the window).
func birthdayContact(id int64, month time.Month, day int) Contact {
	return Contact{
		ID: id, UserID: testUserID,
		FirstName: "C", LastName: "C",
		Email: "c@example.com", Phone: "+380501234567",
		Birthday: NewDate(1985, month, day),
	}
}

func TestUpcomingBirthdays_Window(t *testing.T) {
	// fixedNow is 2024-06-10; the window is (06-10, 06-17].
	repo := &mockContactRepo{
		listAllFn: func(ctx context.Context, userID string) ([]Contact, error) {
			return []Contact{
				birthdayContact(1, time.June, 10), // today: excluded
				birthdayContact(2, time.June, 11), // tomorrow: included
				birthdayContact(3, time.June, 17), // boundary: included
				birthdayContact(4, time.June, 18), // past window: excluded
				birthdayContact(5, time.March, 15),
			}, nil
		},
	}
	svc := newTestService(repo)

	upcoming, err := svc.UpcomingBirthdays(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(upcoming) != 2 {
		t.Fatalf("expected 2 upcoming birthdays, got %d: %+v", len(upcoming), upcoming)
	}
	if upcoming[0].ID != 2 || upcoming[1].ID != 3 {
		t.Errorf("expected contacts 2 and 3, got %d and %d", upcoming[0].ID, upcoming[1].ID)
	}
}

// The window never wraps the year: in late December, January birthdays
// are not reported.
func TestUpcomingBirthdays_NoYearWrap(t *testing.T) {
	repo := &mockContactRepo{
		listAllFn: func(ctx context.Context, userID string) ([]Contact, error) {
			return []Contact{
				birthdayContact(1, time.January, 2),
				birthdayContact(2, time.December, 30),
			}, nil
		},
	}
	svc := newTestService(repo)
	svc.now = func() time.Time {
		return time.Date(2024, time.December, 28, 12, 0, 0, 0, time.UTC)
	}

	upcoming, err := svc.UpcomingBirthdays(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].ID != 2 {
		t.Errorf("expected only the December birthday, got %+v", upcoming)
	}
}

func TestUpcomingBirthdays_Empty(t *testing.T) {
	svc := newTestService(&mockContactRepo{})

	upcoming, err := svc.UpcomingBirthdays(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upcoming == nil || len(upcoming) != 0 {
		t.Errorf("expected empty slice, got %v", upcoming)
	}
}
