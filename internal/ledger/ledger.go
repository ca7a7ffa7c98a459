// Package ledger は従業員ごとの打刻エントリ（出勤・退勤）の記録を提供する。
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/timeclock/internal/model"
	"github.com/hitoshi/timeclock/internal/repository"
	"github.com/hitoshi/timeclock/internal/worktime"
)

// Ledger は打刻エントリの作成・クローズ・検索を行う。
// 勤務日はlocのタイムゾーンで見たcheck_inの暦日。
type Ledger struct {
	repo repository.TimeClockRepository
	loc  *time.Location
}

// New はLedgerを生成する。locがnilの場合はUTCを使用する。
func New(repo repository.TimeClockRepository, loc *time.Location) *Ledger {
	if loc == nil {
		loc = time.UTC
	}
	return &Ledger{repo: repo, loc: loc}
}

// Location は勤務日の判定に使うタイムゾーンを返す。
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// Day はatを含む勤務日を返す。
func (l *Ledger) Day(at time.Time) time.Time {
	return model.DayOf(at, l.loc)
}

// OpenEntry はcheck_in=atの未退勤エントリを作成し、そのIDを返す。
// 同日に未退勤エントリがないことは呼び出し側が確認する。
// 同時打刻で重複した場合はENTRY_ALREADY_OPENを返す。
func (l *Ledger) OpenEntry(ctx context.Context, employeeID string, at time.Time) (string, error) {
	entry := &model.TimeClockEntry{
		ID:         uuid.New().String(),
		EmployeeID: employeeID,
		CheckIn:    at.UTC(),
		WorkDay:    l.Day(at),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		return "", err
	}

	slog.Info("time clock entry opened",
		slog.String("entry_id", entry.ID),
		slog.String("employee_id", employeeID),
	)
	return entry.ID, nil
}

// CloseEntry はentryのcheck_outをatにし、合計勤務時間を計算して保存する。
// 既に退勤済みのエントリにはENTRY_ALREADY_CLOSEDを返す。
func (l *Ledger) CloseEntry(ctx context.Context, entry *model.TimeClockEntry, at time.Time) error {
	if !entry.IsOpen() {
		return model.NewEntryAlreadyClosedError(entry.ID)
	}

	closed := *entry
	checkOut := at.UTC()
	closed.CheckOut = &checkOut
	total := CalculateTotal(&closed)
	closed.Total = &total

	if err := l.repo.Close(ctx, &closed); err != nil {
		return err
	}

	*entry = closed
	slog.Info("time clock entry closed",
		slog.String("entry_id", entry.ID),
		slog.String("employee_id", entry.EmployeeID),
		slog.Float64("total_hours", total),
	)
	return nil
}

// CalculateTotal はcheck_outとcheck_inの差を時間数で返す。
// check_outがない場合はcheck_in同士の差、つまり0になる。
func CalculateTotal(entry *model.TimeClockEntry) float64 {
	if entry.CheckOut == nil {
		return worktime.Hours(entry.CheckIn.Sub(entry.CheckIn))
	}
	return worktime.Hours(entry.CheckOut.Sub(entry.CheckIn))
}

// FindOpenEntry はatを含む勤務日の未退勤エントリのうちcheck_inが最も新しいものを返す。
// 見つからない場合はnilを返す。
func (l *Ledger) FindOpenEntry(ctx context.Context, employeeID string, at time.Time) (*model.TimeClockEntry, error) {
	entry, err := l.repo.FindOpen(ctx, employeeID, l.Day(at))
	if err != nil {
		return nil, fmt.Errorf("未退勤エントリの取得に失敗しました: %w", err)
	}
	return entry, nil
}

// ListEntries は従業員の全エントリをcheck_in順で返す。
func (l *Ledger) ListEntries(ctx context.Context, employeeID string, order model.SortOrder) ([]*model.TimeClockEntry, error) {
	entries, err := l.repo.ListByEmployee(ctx, employeeID, order)
	if err != nil {
		return nil, fmt.Errorf("打刻一覧の取得に失敗しました: %w", err)
	}
	return entries, nil
}

// EntriesForDay はatを含む勤務日のエントリをcheck_in昇順で返す。
func (l *Ledger) EntriesForDay(ctx context.Context, employeeID string, at time.Time) ([]*model.TimeClockEntry, error) {
	entries, err := l.repo.ListByEmployeeOnDay(ctx, employeeID, l.Day(at))
	if err != nil {
		return nil, fmt.Errorf("当日の打刻一覧の取得に失敗しました: %w", err)
	}
	return entries, nil
}
