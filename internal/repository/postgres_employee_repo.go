package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/timeclock/internal/model"
)

// PostgresEmployeeRepo はPostgreSQLを使用した従業員リポジトリ。
type PostgresEmployeeRepo struct {
	q Querier
}

// NewPostgresEmployeeRepo はPostgresEmployeeRepoを生成する。
func NewPostgresEmployeeRepo(q Querier) *PostgresEmployeeRepo {
	return &PostgresEmployeeRepo{q: q}
}

const employeeColumns = `id, uid, name, active, checked_in, created_at`

func scanEmployee(row interface{ Scan(dest ...any) error }) (*model.Employee, error) {
	e := &model.Employee{}
	if err := row.Scan(&e.ID, &e.UID, &e.Name, &e.Active, &e.CheckedIn, &e.CreatedAt); err != nil {
		return nil, err
	}
	return e, nil
}

// FindByUID はUIDで従業員を取得する。見つからない場合はnilを返す。
func (r *PostgresEmployeeRepo) FindByUID(ctx context.Context, uid string) (*model.Employee, error) {
	e, err := scanEmployee(r.q.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employee WHERE uid = $1 ORDER BY created_at ASC LIMIT 1`,
		uid,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find employee by uid: %w", err)
	}
	return e, nil
}

// ListActive は有効な従業員を名前順で返す。
func (r *PostgresEmployeeRepo) ListActive(ctx context.Context) ([]*model.Employee, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employee WHERE active = true ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []*model.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return employees, nil
}

// Create は従業員を作成する。
func (r *PostgresEmployeeRepo) Create(ctx context.Context, e *model.Employee) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO employee (id, uid, name, active, checked_in, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.UID, e.Name, e.Active, e.CheckedIn, e.CreatedAt,
	)
	if isUniqueViolation(err) {
		return model.NewEmployeeAlreadyExistsError(e.UID, e.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to insert employee: %w", err)
	}
	return nil
}

// UpdateCheckedIn は出勤中フラグを更新する。
func (r *PostgresEmployeeRepo) UpdateCheckedIn(ctx context.Context, id string, checkedIn bool) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE employee SET checked_in = $2 WHERE id = $1`,
		id, checkedIn,
	)
	if err != nil {
		return fmt.Errorf("failed to update checked_in: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("employee not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ EmployeeRepository = (*PostgresEmployeeRepo)(nil)
