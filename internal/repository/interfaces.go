// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/timeclock/internal/model"
)

// EmployeeRepository は従業員データの永続化インターフェース。
type EmployeeRepository interface {
	// FindByUID はUIDで従業員を取得する。同一UIDが複数ある場合は最も古い登録を返す。
	// 見つからない場合はnilを返す。
	FindByUID(ctx context.Context, uid string) (*model.Employee, error)

	// ListActive は有効な従業員を名前順で返す。
	ListActive(ctx context.Context) ([]*model.Employee, error)

	// Create は従業員を作成する。UIDと名前の組が重複する場合はEMPLOYEE_ALREADY_EXISTSを返す。
	Create(ctx context.Context, employee *model.Employee) error

	// UpdateCheckedIn は出勤中フラグを更新する。
	UpdateCheckedIn(ctx context.Context, id string, checkedIn bool) error
}

// AuthRequestRepository は認証リクエストの永続化インターフェース。
type AuthRequestRepository interface {
	// Create は認証リクエストを作成する。
	Create(ctx context.Context, req *model.AuthRequest) error

	// FindByID は指定IDの認証リクエストを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.AuthRequest, error)

	// FindCanonicalPending はUIDに対する未認証かつ未削除の認証リクエストのうち、
	// requested_atが最も新しいものを返す。見つからない場合はnilを返す。
	FindCanonicalPending(ctx context.Context, uid string) (*model.AuthRequest, error)

	// Update はauthenticated_at、success、deletedを更新する。
	Update(ctx context.Context, req *model.AuthRequest) error

	// ExpirePendingBefore はrequested_atがbeforeより古い未認証リクエストをdeletedにする。
	// 更新件数を返す。
	ExpirePendingBefore(ctx context.Context, before time.Time) (int64, error)
}

// TimeClockRepository は打刻エントリの永続化インターフェース。
type TimeClockRepository interface {
	// Create はエントリを作成する。
	// 同一従業員・同一勤務日に未退勤エントリが存在する場合はENTRY_ALREADY_OPENを返す。
	Create(ctx context.Context, entry *model.TimeClockEntry) error

	// FindOpen は指定勤務日の未退勤エントリをcheck_in降順で1件返す。見つからない場合はnilを返す。
	FindOpen(ctx context.Context, employeeID string, day time.Time) (*model.TimeClockEntry, error)

	// ListByEmployee は従業員の全エントリをcheck_in順で返す。
	ListByEmployee(ctx context.Context, employeeID string, order model.SortOrder) ([]*model.TimeClockEntry, error)

	// ListByEmployeeOnDay は指定勤務日のエントリをcheck_in昇順で返す。
	ListByEmployeeOnDay(ctx context.Context, employeeID string, day time.Time) ([]*model.TimeClockEntry, error)

	// Close はcheck_outとtotalを保存する。
	// 既に退勤済みのエントリにはENTRY_ALREADY_CLOSEDを返す。
	Close(ctx context.Context, entry *model.TimeClockEntry) error
}

// Store は1つの永続化セッションから得られるリポジトリ群。
type Store interface {
	Employees() EmployeeRepository
	AuthRequests() AuthRequestRepository
	TimeClock() TimeClockRepository
}

// UnitOfWork はトランザクション境界を提供する永続化コンテキスト。
// WithinTxに渡した関数が返すエラーがnilの場合のみコミットする。
type UnitOfWork interface {
	Store
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
