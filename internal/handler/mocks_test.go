package handler

import (
	"context"
	"io"

	"github.com/hitoshi/timeclock/internal/model"
	"github.com/hitoshi/timeclock/internal/rcauth"
	"github.com/hitoshi/timeclock/internal/timeclock"
	"github.com/hitoshi/timeclock/internal/worktime"
)

// --- モック定義 ---

type mockEmployeeService struct {
	provisionFn  func(ctx context.Context, secret, uid, name string) (*model.Employee, error)
	listActiveFn func(ctx context.Context) ([]*model.Employee, error)
}

func (m *mockEmployeeService) Provision(ctx context.Context, secret, uid, name string) (*model.Employee, error) {
	if m.provisionFn != nil {
		return m.provisionFn(ctx, secret, uid, name)
	}
	return nil, nil
}

func (m *mockEmployeeService) ListActive(ctx context.Context) ([]*model.Employee, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx)
	}
	return nil, nil
}

type mockAuthService struct {
	createRequestFn func(ctx context.Context, uid string) (*model.AuthRequest, error)
	pollFn          func(ctx context.Context, id string, counter int) (*rcauth.PollResult, error)
}

func (m *mockAuthService) CreateRequest(ctx context.Context, uid string) (*model.AuthRequest, error) {
	if m.createRequestFn != nil {
		return m.createRequestFn(ctx, uid)
	}
	return &model.AuthRequest{ID: "req-1", UID: uid}, nil
}

func (m *mockAuthService) Poll(ctx context.Context, id string, counter int) (*rcauth.PollResult, error) {
	if m.pollFn != nil {
		return m.pollFn(ctx, id, counter)
	}
	return &rcauth.PollResult{RequestID: id, State: model.AuthStatePending, NextCounter: counter + 1}, nil
}

type mockTimeClockService struct {
	toggleFn  func(ctx context.Context, uid string) (timeclock.Outcome, error)
	entriesFn func(ctx context.Context, uid string) ([]*model.TimeClockEntry, error)
	summaryFn func(ctx context.Context, uid string) (worktime.Summary, error)
}

func (m *mockTimeClockService) Toggle(ctx context.Context, uid string) (timeclock.Outcome, error) {
	if m.toggleFn != nil {
		return m.toggleFn(ctx, uid)
	}
	return timeclock.OutcomeClockedIn, nil
}

func (m *mockTimeClockService) Entries(ctx context.Context, uid string) ([]*model.TimeClockEntry, error) {
	if m.entriesFn != nil {
		return m.entriesFn(ctx, uid)
	}
	return nil, nil
}

func (m *mockTimeClockService) Summary(ctx context.Context, uid string) (worktime.Summary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx, uid)
	}
	return worktime.Summarize(nil, timeNow()), nil
}

// mockRenderer は描画されたページ名と値を記録する。
type mockRenderer struct {
	page string
	data map[string]any
	err  error
}

func (m *mockRenderer) Render(w io.Writer, page string, data map[string]any) error {
	m.page = page
	m.data = data
	if m.err != nil {
		return m.err
	}
	_, err := io.WriteString(w, "<html>"+page+"</html>")
	return err
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}
