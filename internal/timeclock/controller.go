// Package timeclock は打刻トグルの制御と、打刻一覧・日次サマリーの参照を提供する。
package timeclock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/timeclock/internal/clock"
	"github.com/hitoshi/timeclock/internal/ledger"
	"github.com/hitoshi/timeclock/internal/metrics"
	"github.com/hitoshi/timeclock/internal/model"
	"github.com/hitoshi/timeclock/internal/rcauth"
	"github.com/hitoshi/timeclock/internal/repository"
	"github.com/hitoshi/timeclock/internal/worktime"
)

// Outcome はトグル1回の結果。
type Outcome string

const (
	OutcomeNotFound      Outcome = "not_found"
	OutcomeAuthConfirmed Outcome = "auth_confirmed"
	OutcomeAuthFailed    Outcome = "auth_failed"
	OutcomeClockedIn     Outcome = "clocked_in"
	OutcomeClockedOut    Outcome = "clocked_out"
)

// Controller は打刻トグルを1トランザクションで処理する。
type Controller struct {
	uow     repository.UnitOfWork
	clock   clock.Clock
	loc     *time.Location
	policy  rcauth.Policy
	metrics metrics.MetricsCollector
}

// NewController はControllerを生成する。
// locは勤務日の判定に使うタイムゾーン。mcがnilの場合はメトリクスを記録しない。
func NewController(
	uow repository.UnitOfWork,
	clk clock.Clock,
	loc *time.Location,
	policy rcauth.Policy,
	mc metrics.MetricsCollector,
) *Controller {
	if loc == nil {
		loc = time.UTC
	}
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Controller{
		uow:     uow,
		clock:   clk,
		loc:     loc,
		policy:  policy,
		metrics: mc,
	}
}

// Toggle はuidの従業員について1回分の打刻を処理する。
//
// 古くなっていないPENDINGの認証リクエストがあれば、その承認だけを行って終了する。
// なければ当日の未退勤エントリを閉じるか、新しいエントリを開き、checked_inを更新する。
// 未登録のuidはエラーにせずOutcomeNotFoundを返す。
// 一時的な永続化エラーの場合はトランザクション全体を1回だけ再試行する。
func (c *Controller) Toggle(ctx context.Context, uid string) (Outcome, error) {
	start := time.Now()

	var outcome Outcome
	err := repository.RunInTx(ctx, c.uow, func(ctx context.Context, tx repository.Store) error {
		var err error
		outcome, err = c.toggle(ctx, tx, uid)
		return err
	})
	if err != nil {
		slog.Error("toggle failed",
			slog.String("uid", uid),
			slog.String("error", err.Error()),
		)
		return "", err
	}

	c.metrics.RecordToggle(string(outcome))
	c.metrics.RecordToggleLatency(time.Since(start))
	return outcome, nil
}

func (c *Controller) toggle(ctx context.Context, tx repository.Store, uid string) (Outcome, error) {
	now := c.clock.Now()

	employee, err := tx.Employees().FindByUID(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("従業員の取得に失敗しました: %w", err)
	}
	if employee == nil {
		slog.Info("toggle for unknown employee", slog.String("uid", uid))
		return OutcomeNotFound, nil
	}

	auth, err := tx.AuthRequests().FindCanonicalPending(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("認証リクエストの取得に失敗しました: %w", err)
	}
	if auth != nil && !c.policy.OutOfTime(auth, now) {
		confirmed, err := rcauth.ConfirmRequest(ctx, tx.AuthRequests(), c.policy, auth, now)
		if err != nil {
			return "", err
		}
		if !confirmed {
			return OutcomeAuthFailed, nil
		}
		return OutcomeAuthConfirmed, nil
	}

	l := ledger.New(tx.TimeClock(), c.loc)
	open, err := l.FindOpenEntry(ctx, employee.ID, now)
	if err != nil {
		return "", err
	}

	if open == nil {
		if _, err := l.OpenEntry(ctx, employee.ID, now); err != nil {
			return "", err
		}
		if err := tx.Employees().UpdateCheckedIn(ctx, employee.ID, true); err != nil {
			return "", fmt.Errorf("出勤状態の更新に失敗しました: %w", err)
		}
		slog.Info("clocked in", slog.String("uid", uid), slog.String("employee_id", employee.ID))
		return OutcomeClockedIn, nil
	}

	if err := l.CloseEntry(ctx, open, now); err != nil {
		return "", err
	}
	if err := tx.Employees().UpdateCheckedIn(ctx, employee.ID, false); err != nil {
		return "", fmt.Errorf("出勤状態の更新に失敗しました: %w", err)
	}
	slog.Info("clocked out", slog.String("uid", uid), slog.String("employee_id", employee.ID))
	return OutcomeClockedOut, nil
}

// Entries はuidの従業員の全エントリをcheck_in降順で返す。
// 未登録のuidにはEMPLOYEE_NOT_FOUNDを返す。
func (c *Controller) Entries(ctx context.Context, uid string) ([]*model.TimeClockEntry, error) {
	employee, err := c.findEmployee(ctx, uid)
	if err != nil {
		return nil, err
	}
	return ledger.New(c.uow.TimeClock(), c.loc).ListEntries(ctx, employee.ID, model.Descending)
}

// Summary はuidの従業員の当日の勤務サマリーを返す。
// 未登録のuidにはEMPLOYEE_NOT_FOUNDを返す。
func (c *Controller) Summary(ctx context.Context, uid string) (worktime.Summary, error) {
	employee, err := c.findEmployee(ctx, uid)
	if err != nil {
		return worktime.Summary{}, err
	}

	now := c.clock.Now()
	entries, err := ledger.New(c.uow.TimeClock(), c.loc).EntriesForDay(ctx, employee.ID, now)
	if err != nil {
		return worktime.Summary{}, err
	}
	return worktime.Summarize(entries, now), nil
}

func (c *Controller) findEmployee(ctx context.Context, uid string) (*model.Employee, error) {
	employee, err := c.uow.Employees().FindByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("従業員の取得に失敗しました: %w", err)
	}
	if employee == nil {
		return nil, model.NewEmployeeNotFoundError(uid)
	}
	return employee, nil
}
