package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/timeclock/internal/model"
)

// PostgresAuthRequestRepo はPostgreSQLを使用した認証リクエストリポジトリ。
type PostgresAuthRequestRepo struct {
	q Querier
}

// NewPostgresAuthRequestRepo はPostgresAuthRequestRepoを生成する。
func NewPostgresAuthRequestRepo(q Querier) *PostgresAuthRequestRepo {
	return &PostgresAuthRequestRepo{q: q}
}

const authRequestColumns = `id, uid, requested_at, authenticated_at, success, deleted`

func scanAuthRequest(row interface{ Scan(dest ...any) error }) (*model.AuthRequest, error) {
	req := &model.AuthRequest{}
	var authenticatedAt sql.NullTime
	if err := row.Scan(&req.ID, &req.UID, &req.RequestedAt, &authenticatedAt, &req.Success, &req.Deleted); err != nil {
		return nil, err
	}
	if authenticatedAt.Valid {
		t := authenticatedAt.Time.UTC()
		req.AuthenticatedAt = &t
	}
	req.RequestedAt = req.RequestedAt.UTC()
	return req, nil
}

// Create は認証リクエストを作成する。
func (r *PostgresAuthRequestRepo) Create(ctx context.Context, req *model.AuthRequest) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO rcauthentication (id, uid, requested_at, authenticated_at, success, deleted)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		req.ID, req.UID, req.RequestedAt, nullTime(req.AuthenticatedAt), req.Success, req.Deleted,
	)
	if err != nil {
		return fmt.Errorf("failed to insert auth request: %w", err)
	}
	return nil
}

// FindByID は指定IDの認証リクエストを取得する。見つからない場合はnilを返す。
func (r *PostgresAuthRequestRepo) FindByID(ctx context.Context, id string) (*model.AuthRequest, error) {
	req, err := scanAuthRequest(r.q.QueryRowContext(ctx,
		`SELECT `+authRequestColumns+` FROM rcauthentication WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find auth request: %w", err)
	}
	return req, nil
}

// FindCanonicalPending はUIDに対する最新の未認証・未削除リクエストを返す。
func (r *PostgresAuthRequestRepo) FindCanonicalPending(ctx context.Context, uid string) (*model.AuthRequest, error) {
	req, err := scanAuthRequest(r.q.QueryRowContext(ctx,
		`SELECT `+authRequestColumns+`
		 FROM rcauthentication
		 WHERE uid = $1 AND authenticated_at IS NULL AND deleted = false
		 ORDER BY requested_at DESC
		 LIMIT 1`,
		uid,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending auth request: %w", err)
	}
	return req, nil
}

// Update はauthenticated_at、success、deletedを更新する。
func (r *PostgresAuthRequestRepo) Update(ctx context.Context, req *model.AuthRequest) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE rcauthentication SET authenticated_at = $2, success = $3, deleted = $4 WHERE id = $1`,
		req.ID, nullTime(req.AuthenticatedAt), req.Success, req.Deleted,
	)
	if err != nil {
		return fmt.Errorf("failed to update auth request: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewAuthRequestNotFoundError(req.ID)
	}
	return nil
}

// ExpirePendingBefore はbeforeより古い未認証リクエストをdeletedにする。
func (r *PostgresAuthRequestRepo) ExpirePendingBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx,
		`UPDATE rcauthentication SET deleted = true
		 WHERE authenticated_at IS NULL AND deleted = false AND requested_at < $1`,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending auth requests: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// compile-time interface check
var _ AuthRequestRepository = (*PostgresAuthRequestRepo)(nil)
