package employee

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/timeclock/internal/clock"
	"github.com/hitoshi/timeclock/internal/model"
	"github.com/hitoshi/timeclock/internal/repository"
	"github.com/hitoshi/timeclock/internal/security"
)

var now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// --- モック ---

type mockEmployeeRepo struct {
	createFn     func(ctx context.Context, e *model.Employee) error
	listActiveFn func(ctx context.Context) ([]*model.Employee, error)
}

func (m *mockEmployeeRepo) FindByUID(ctx context.Context, uid string) (*model.Employee, error) {
	return nil, nil
}
func (m *mockEmployeeRepo) ListActive(ctx context.Context) ([]*model.Employee, error) {
	return m.listActiveFn(ctx)
}
func (m *mockEmployeeRepo) Create(ctx context.Context, e *model.Employee) error {
	return m.createFn(ctx, e)
}
func (m *mockEmployeeRepo) UpdateCheckedIn(ctx context.Context, id string, checkedIn bool) error {
	return nil
}

func newService(repo repository.EmployeeRepository) *Service {
	return NewService(repo, security.NewNameSanitizer(), clock.NewFake(now), "s3cret")
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestProvision_Success(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newService(store.Employees())

	e, err := svc.Provision(context.Background(), "s3cret", " card-1 ", "<b>Alice</b>")
	if err != nil {
		t.Fatalf("Provision returned error: %v", err)
	}
	if e.UID != "card-1" || e.Name != "Alice" || !e.Active || e.CheckedIn {
		t.Errorf("unexpected employee: %+v", e)
	}
	if !e.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", e.CreatedAt, now)
	}

	stored, _ := store.Employees().FindByUID(context.Background(), "card-1")
	if stored == nil || stored.ID != e.ID {
		t.Errorf("employee not stored: %+v", stored)
	}
}

func TestProvision_WrongSecret(t *testing.T) {
	called := false
	svc := newService(&mockEmployeeRepo{createFn: func(ctx context.Context, e *model.Employee) error {
		called = true
		return nil
	}})

	_, err := svc.Provision(context.Background(), "wrong", "card-1", "Alice")
	assertCode(t, err, model.ErrCodeForbidden)
	if called {
		t.Error("repository must not be called on secret mismatch")
	}
}

func TestProvision_EmptySecretConfiguredAlwaysForbidden(t *testing.T) {
	svc := NewService(repository.NewMemoryStore().Employees(), security.NewNameSanitizer(), clock.NewFake(now), "")

	_, err := svc.Provision(context.Background(), "", "card-1", "Alice")
	assertCode(t, err, model.ErrCodeForbidden)
}

func TestProvision_InvalidInput(t *testing.T) {
	svc := newService(repository.NewMemoryStore().Employees())

	tests := []struct {
		name string
		uid  string
		user string
	}{
		{"uidなし", "  ", "Alice"},
		{"名前なし", "card-1", ""},
		{"タグのみの名前", "card-1", "<script>x</script>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Provision(context.Background(), "s3cret", tt.uid, tt.user)
			assertCode(t, err, model.ErrCodeInvalidRequest)
		})
	}
}

func TestProvision_Duplicate(t *testing.T) {
	svc := newService(repository.NewMemoryStore().Employees())
	ctx := context.Background()

	if _, err := svc.Provision(ctx, "s3cret", "card-1", "Alice"); err != nil {
		t.Fatalf("first Provision returned error: %v", err)
	}
	_, err := svc.Provision(ctx, "s3cret", "card-1", "Alice")
	assertCode(t, err, model.ErrCodeEmployeeAlreadyExists)
}

func TestProvision_WrapsRepositoryError(t *testing.T) {
	dbErr := errors.New("connection refused")
	svc := newService(&mockEmployeeRepo{createFn: func(ctx context.Context, e *model.Employee) error {
		return dbErr
	}})

	_, err := svc.Provision(context.Background(), "s3cret", "card-1", "Alice")
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}

func TestListActive(t *testing.T) {
	svc := newService(&mockEmployeeRepo{listActiveFn: func(ctx context.Context) ([]*model.Employee, error) {
		return []*model.Employee{{ID: "1", Name: "Alice", Active: true}}, nil
	}})

	list, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive returned error: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Alice" {
		t.Errorf("ListActive = %+v", list)
	}
}
