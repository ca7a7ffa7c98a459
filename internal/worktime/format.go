// Package worktime は勤務時間の表記と日次サマリー（休憩区間・合計勤務時間）の計算を提供する。
package worktime

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/hitoshi/timeclock/internal/model"
)

// Placeholder はサマリーに値がないときの表示文字列。
const Placeholder = "-"

// WorkingTimeRepr は時間数tを "{h} hours {m} minutes" 形式に変換する。
//
// 分は ((t mod 1) * 0.6) * 100 を小数第1位で丸めて切り捨てた値で、
// 既存の出力と一致させるため (t mod 1) * 60 とは計算順序を変えていない。
// mod は除数と同符号になる剰余（負のtでも0以上1未満）。
func WorkingTimeRepr(t float64) string {
	hours := int(t)
	minutes := int(roundHalfEven(((floorMod(t, 1))*.6)*100, 1))
	return fmt.Sprintf("%d hours %d minutes", hours, minutes)
}

// FormatTotal はnilでなければWorkingTimeReprの結果を返す。nilの場合はokがfalseになる。
func FormatTotal(total *float64) (string, bool) {
	if total == nil {
		return "", false
	}
	return WorkingTimeRepr(*total), true
}

// Hours はdを時間数に変換する。
func Hours(d time.Duration) float64 {
	return d.Seconds() / model.HourSeconds
}

func floorMod(x, y float64) float64 {
	m := math.Mod(x, y)
	if m != 0 && (m < 0) != (y < 0) {
		m += y
	}
	return m
}

// roundHalfEven はxの2進値そのものを小数第digits位で丸める。
// x*10^digitsを経由すると乗算の誤差で丸め方向が変わるため、10進変換で丸める。
func roundHalfEven(x float64, digits int) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', digits, 64), 64)
	if err != nil {
		return x
	}
	return v
}
