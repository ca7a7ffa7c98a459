package worktime

import (
	"time"

	"github.com/hitoshi/timeclock/internal/model"
)

// Break は退勤から次の出勤までの休憩区間。
type Break struct {
	Start time.Time
	End   time.Time
	Total string
}

// Summary は1日分の勤務サマリー。
// エントリがない日はStartingTimeがnil、Breaksが空、OverallTotalがPlaceholderになる。
type Summary struct {
	StartingTime *time.Time
	Breaks       []Break
	OverallTotal string
}

// IsEmpty はエントリのない日のサマリーかどうかを返す。
func (s Summary) IsEmpty() bool {
	return s.StartingTime == nil
}

// StartingTimeText はStartingTimeをlayoutで整形する。nilならPlaceholderを返す。
func (s Summary) StartingTimeText(layout string) string {
	if s.StartingTime == nil {
		return Placeholder
	}
	return s.StartingTime.Format(layout)
}

// Summarize はcheck_in昇順に並んだ1日分のエントリから勤務サマリーを計算する。
//
// あるエントリのcheck_outで休憩候補を開き、次のエントリのcheck_inで閉じる。
// 閉じられなかった候補（最後のエントリが退勤済み、など）は結果に含めない。
// 合計は各エントリのtotalの和で、未退勤エントリはnowまでの経過時間を加える。
func Summarize(entries []*model.TimeClockEntry, now time.Time) Summary {
	if len(entries) == 0 {
		return Summary{Breaks: []Break{}, OverallTotal: Placeholder}
	}

	start := entries[0].CheckIn
	breaks := make([]Break, 0, len(entries)-1)

	var pending *time.Time
	var total float64
	for _, e := range entries {
		if pending != nil {
			breaks = append(breaks, Break{
				Start: *pending,
				End:   e.CheckIn,
				Total: WorkingTimeRepr(Hours(e.CheckIn.Sub(*pending))),
			})
			pending = nil
		}
		if e.CheckOut != nil {
			out := *e.CheckOut
			pending = &out
		}

		if e.Total != nil {
			total += *e.Total
		} else {
			total += Hours(now.Sub(e.CheckIn))
		}
	}

	return Summary{
		StartingTime: &start,
		Breaks:       breaks,
		OverallTotal: WorkingTimeRepr(total),
	}
}
