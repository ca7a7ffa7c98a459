package model

import "time"

// HourSeconds は1時間あたりの秒数。合計時間は秒数をこの値で割った時間数で保持する。
const HourSeconds = 3600

// TimeClockEntry は1回の出勤から退勤までの打刻記録を表す。
// CheckOutがnilの間は勤務中（open）として扱う。
type TimeClockEntry struct {
	ID         string
	EmployeeID string
	CheckIn    time.Time
	CheckOut   *time.Time
	Total      *float64 // 退勤時に計算される勤務時間（時間単位）
	WorkDay    time.Time
}

// IsOpen はエントリが未退勤かどうかを返す。
func (e *TimeClockEntry) IsOpen() bool {
	return e.CheckOut == nil
}

// SortOrder はエントリ一覧の並び順。
type SortOrder int

const (
	// Ascending はcheck_inの昇順。
	Ascending SortOrder = iota
	// Descending はcheck_inの降順。
	Descending
)

// DayOf はtをlocのタイムゾーンで見た暦日（00:00 UTC表現）を返す。
// work_dayカラムとの比較に使用する。
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
