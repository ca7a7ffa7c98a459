package model

import "time"

// AuthRequest はリモート承認による認証リクエストを表す。
// PENDINGで作成され、承認されるか期限切れ（Deleted）になると終端状態になる。
type AuthRequest struct {
	ID              string
	UID             string
	RequestedAt     time.Time
	AuthenticatedAt *time.Time
	Success         bool
	Deleted         bool
}

// AuthState は認証リクエストの状態。
type AuthState string

const (
	AuthStatePending   AuthState = "pending"
	AuthStateConfirmed AuthState = "confirmed"
	AuthStateExpired   AuthState = "expired"
)

// State は保存されているフィールドから現在の状態を導出する。
func (r *AuthRequest) State() AuthState {
	switch {
	case r.AuthenticatedAt != nil && r.Success:
		return AuthStateConfirmed
	case r.Deleted:
		return AuthStateExpired
	default:
		return AuthStatePending
	}
}

// Age はnow時点でのリクエスト経過時間を返す。
func (r *AuthRequest) Age(now time.Time) time.Duration {
	return now.Sub(r.RequestedAt)
}
