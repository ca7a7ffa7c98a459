// Package rcauth はRFIDリーダーによるリモート承認の認証フローを提供する。
//
// リクエストはPENDINGで作成され、リーダー側のconfirmでCONFIRMEDに、
// ポーリング上限到達またはクリーンアップでEXPIREDになる。
package rcauth

import (
	"time"

	"github.com/hitoshi/timeclock/internal/model"
)

// Policy は認証フローの時間設定。
type Policy struct {
	PollInterval  time.Duration // クライアントのポーリング間隔（1tick）
	MaxTicks      int           // この回数に達しても未承認なら期限切れにする
	StaleAfter    time.Duration // これより古いリクエストはトグルで承認しない
	ConfirmWindow time.Duration // これより古いリクエストへのconfirmは失敗扱い
}

// DefaultPolicy はデフォルトのPolicyを返す。
func DefaultPolicy() Policy {
	return Policy{
		PollInterval:  time.Second,
		MaxTicks:      60,
		StaleAfter:    60 * time.Second,
		ConfirmWindow: 600 * time.Second,
	}
}

// OutOfTime はreqが古くなっているかを返す。
func (p Policy) OutOfTime(req *model.AuthRequest, now time.Time) bool {
	return req.Age(now) > p.StaleAfter
}

// Resolve はreqに対するconfirmの結果をreqに反映する。
// 経過時間がConfirmWindowを超えていればsuccess=falseのままauthenticated_atを設定しない。
// 承認した場合はtrueを返す。
func (p Policy) Resolve(req *model.AuthRequest, now time.Time) bool {
	if req.Age(now) > p.ConfirmWindow {
		req.Success = false
		return false
	}
	confirmedAt := now
	req.AuthenticatedAt = &confirmedAt
	req.Success = true
	return true
}

// Exhausted はcounter回目のポーリングが上限に達しているかを返す。
func (p Policy) Exhausted(counter int) bool {
	return counter >= p.MaxTicks
}
