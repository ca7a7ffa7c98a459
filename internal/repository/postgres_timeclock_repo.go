package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/timeclock/internal/model"
)

// PostgresTimeClockRepo はPostgreSQLを使用した打刻エントリリポジトリ。
type PostgresTimeClockRepo struct {
	q Querier
}

// NewPostgresTimeClockRepo はPostgresTimeClockRepoを生成する。
func NewPostgresTimeClockRepo(q Querier) *PostgresTimeClockRepo {
	return &PostgresTimeClockRepo{q: q}
}

const timeClockColumns = `id, employee_id, check_in, check_out, total, work_day`

// dateLayout はwork_dayパラメータのフォーマット。
const dateLayout = "2006-01-02"

func scanTimeClockEntry(row interface{ Scan(dest ...any) error }) (*model.TimeClockEntry, error) {
	e := &model.TimeClockEntry{}
	var checkOut sql.NullTime
	var total sql.NullFloat64
	if err := row.Scan(&e.ID, &e.EmployeeID, &e.CheckIn, &checkOut, &total, &e.WorkDay); err != nil {
		return nil, err
	}
	e.CheckIn = e.CheckIn.UTC()
	if checkOut.Valid {
		t := checkOut.Time.UTC()
		e.CheckOut = &t
	}
	if total.Valid {
		v := total.Float64
		e.Total = &v
	}
	return e, nil
}

func (r *PostgresTimeClockRepo) queryEntries(ctx context.Context, query string, args ...any) ([]*model.TimeClockEntry, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query time clock entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.TimeClockEntry
	for rows.Next() {
		e, err := scanTimeClockEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time clock entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate time clock entries: %w", err)
	}
	return entries, nil
}

// Create はエントリを作成する。
// 部分ユニークインデックス(employee_id, work_day) WHERE check_out IS NULLの違反はENTRY_ALREADY_OPENになる。
func (r *PostgresTimeClockRepo) Create(ctx context.Context, e *model.TimeClockEntry) error {
	var total sql.NullFloat64
	if e.Total != nil {
		total = sql.NullFloat64{Float64: *e.Total, Valid: true}
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO timeclock (id, employee_id, check_in, check_out, total, work_day)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.EmployeeID, e.CheckIn, nullTime(e.CheckOut), total, e.WorkDay.Format(dateLayout),
	)
	if isUniqueViolation(err) {
		return model.NewEntryAlreadyOpenError(e.EmployeeID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert time clock entry: %w", err)
	}
	return nil
}

// FindOpen は指定勤務日の未退勤エントリを1件返す。見つからない場合はnilを返す。
func (r *PostgresTimeClockRepo) FindOpen(ctx context.Context, employeeID string, day time.Time) (*model.TimeClockEntry, error) {
	e, err := scanTimeClockEntry(r.q.QueryRowContext(ctx,
		`SELECT `+timeClockColumns+`
		 FROM timeclock
		 WHERE employee_id = $1 AND work_day = $2 AND check_out IS NULL
		 ORDER BY check_in DESC
		 LIMIT 1`,
		employeeID, day.Format(dateLayout),
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find open time clock entry: %w", err)
	}
	return e, nil
}

// ListByEmployee は従業員の全エントリをcheck_in順で返す。
func (r *PostgresTimeClockRepo) ListByEmployee(ctx context.Context, employeeID string, order model.SortOrder) ([]*model.TimeClockEntry, error) {
	direction := "ASC"
	if order == model.Descending {
		direction = "DESC"
	}
	return r.queryEntries(ctx,
		`SELECT `+timeClockColumns+` FROM timeclock WHERE employee_id = $1 ORDER BY check_in `+direction,
		employeeID,
	)
}

// ListByEmployeeOnDay は指定勤務日のエントリをcheck_in昇順で返す。
func (r *PostgresTimeClockRepo) ListByEmployeeOnDay(ctx context.Context, employeeID string, day time.Time) ([]*model.TimeClockEntry, error) {
	return r.queryEntries(ctx,
		`SELECT `+timeClockColumns+`
		 FROM timeclock
		 WHERE employee_id = $1 AND work_day = $2
		 ORDER BY check_in ASC`,
		employeeID, day.Format(dateLayout),
	)
}

// Close はcheck_outとtotalを保存する。check_outが既に設定されている行は更新しない。
func (r *PostgresTimeClockRepo) Close(ctx context.Context, e *model.TimeClockEntry) error {
	var total sql.NullFloat64
	if e.Total != nil {
		total = sql.NullFloat64{Float64: *e.Total, Valid: true}
	}
	result, err := r.q.ExecContext(ctx,
		`UPDATE timeclock SET check_out = $2, total = $3 WHERE id = $1 AND check_out IS NULL`,
		e.ID, nullTime(e.CheckOut), total,
	)
	if err != nil {
		return fmt.Errorf("failed to close time clock entry: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewEntryAlreadyClosedError(e.ID)
	}
	return nil
}

// compile-time interface check
var _ TimeClockRepository = (*PostgresTimeClockRepo)(nil)
