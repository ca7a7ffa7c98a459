// Package clock はテスト可能な時刻取得の抽象化を提供する。
// 本番ではReal()を注入し、テストではNewFake()で時刻を固定・前進させる。
package clock

import (
	"sync"
	"time"
)

// Clock は現在時刻を返すインターフェース。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

// Real はシステム時刻を返すClockを返す。
func Real() Clock {
	return realClock{}
}

// Now は現在のUTC時刻を返す。
func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Fake は手動で進めるテスト用Clock。
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake はstartを現在時刻とするFakeを生成する。
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now は固定された現在時刻を返す。
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance は現在時刻をdだけ進める。
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set は現在時刻をtに設定する。
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

var (
	_ Clock = realClock{}
	_ Clock = (*Fake)(nil)
)
