package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad conn", driver.ErrBadConn, true},
		{"wrapped bad conn", fmt.Errorf("query: %w", driver.ErrBadConn), true},
		{"connection failure", &pq.Error{Code: "08006"}, true},
		{"serialization failure", &pq.Error{Code: "40001"}, true},
		{"deadlock", &pq.Error{Code: "40P01"}, true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"plain error", errors.New("syntax"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// flakyUnitOfWork は最初のn回だけ指定エラーを返すUnitOfWork。
type flakyUnitOfWork struct {
	*MemoryStore
	failures int
	err      error
	calls    int
}

func (f *flakyUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return f.MemoryStore.WithinTx(ctx, fn)
}

func TestRunInTx_RetriesOnceOnTransientError(t *testing.T) {
	uow := &flakyUnitOfWork{MemoryStore: NewMemoryStore(), failures: 1, err: driver.ErrBadConn}

	ran := 0
	err := RunInTx(context.Background(), uow, func(ctx context.Context, tx Store) error {
		ran++
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}
	if uow.calls != 2 {
		t.Errorf("WithinTx calls = %d, want 2", uow.calls)
	}
	if ran != 1 {
		t.Errorf("fn ran %d times, want 1", ran)
	}
}

func TestRunInTx_SurfacesSecondTransientError(t *testing.T) {
	uow := &flakyUnitOfWork{MemoryStore: NewMemoryStore(), failures: 2, err: driver.ErrBadConn}

	err := RunInTx(context.Background(), uow, func(ctx context.Context, tx Store) error { return nil })
	if !errors.Is(err, driver.ErrBadConn) {
		t.Fatalf("RunInTx error = %v, want ErrBadConn", err)
	}
	if uow.calls != 2 {
		t.Errorf("WithinTx calls = %d, want 2", uow.calls)
	}
}

func TestRunInTx_DoesNotRetryPermanentError(t *testing.T) {
	perm := errors.New("constraint")
	uow := &flakyUnitOfWork{MemoryStore: NewMemoryStore(), failures: 5, err: perm}

	err := RunInTx(context.Background(), uow, func(ctx context.Context, tx Store) error { return nil })
	if !errors.Is(err, perm) {
		t.Fatalf("RunInTx error = %v, want %v", err, perm)
	}
	if uow.calls != 1 {
		t.Errorf("WithinTx calls = %d, want 1", uow.calls)
	}
}
