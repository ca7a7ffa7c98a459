package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Querier は*sql.DBと*sql.Txに共通するクエリ実行インターフェース。
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore はPostgreSQLを使用した永続化コンテキスト。
// プロセス起動時に1回生成し、*sql.DBのクローズは呼び出し側が行う。
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore はPostgresStoreを生成する。
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Employees はトランザクション外で動作する従業員リポジトリを返す。
func (s *PostgresStore) Employees() EmployeeRepository {
	return NewPostgresEmployeeRepo(s.db)
}

// AuthRequests はトランザクション外で動作する認証リクエストリポジトリを返す。
func (s *PostgresStore) AuthRequests() AuthRequestRepository {
	return NewPostgresAuthRequestRepo(s.db)
}

// TimeClock はトランザクション外で動作する打刻リポジトリを返す。
func (s *PostgresStore) TimeClock() TimeClockRepository {
	return NewPostgresTimeClockRepo(s.db)
}

// WithinTx はトランザクションを開始しfnを実行する。
// fnがエラーを返した場合はロールバックし、そうでなければコミットする。
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// コミット後のRollbackはsql.ErrTxDoneを返すだけなので無視してよい
	defer tx.Rollback()

	if err := fn(ctx, &txStore{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txStore はトランザクションに束縛されたStore。
type txStore struct {
	q Querier
}

func (s *txStore) Employees() EmployeeRepository       { return NewPostgresEmployeeRepo(s.q) }
func (s *txStore) AuthRequests() AuthRequestRepository { return NewPostgresAuthRequestRepo(s.q) }
func (s *txStore) TimeClock() TimeClockRepository      { return NewPostgresTimeClockRepo(s.q) }

// PostgreSQLのSQLSTATE
const (
	pqUniqueViolation      pq.ErrorCode  = "23505"
	pqSerializationFailure pq.ErrorCode  = "40001"
	pqDeadlockDetected     pq.ErrorCode  = "40P01"
	pqConnectionException  pq.ErrorClass = "08"
)

// isUniqueViolation はerrがユニーク制約違反かどうかを返す。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// compile-time interface check
var (
	_ UnitOfWork = (*PostgresStore)(nil)
	_ Store      = (*txStore)(nil)
)
