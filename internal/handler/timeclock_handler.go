package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/timeclock/internal/model"
	"github.com/hitoshi/timeclock/internal/timeclock"
	"github.com/hitoshi/timeclock/internal/view"
	"github.com/hitoshi/timeclock/internal/worktime"
)

// TimeClockServiceInterface は打刻ハンドラーが必要とするサービスインターフェース。
type TimeClockServiceInterface interface {
	// Toggle はカード読み取りイベントを処理する。
	Toggle(ctx context.Context, uid string) (timeclock.Outcome, error)
	// Entries は従業員の全エントリをcheck_in降順で返す。
	Entries(ctx context.Context, uid string) ([]*model.TimeClockEntry, error)
	// Summary は当日の勤務サマリーを返す。
	Summary(ctx context.Context, uid string) (worktime.Summary, error)
}

// TimeClockHandler は打刻と勤務時間表示のHTTPハンドラー。
type TimeClockHandler struct {
	service  TimeClockServiceInterface
	renderer Renderer
	location *time.Location
}

// NewTimeClockHandler はTimeClockHandlerを生成する。
// locはサマリーページの時刻表示に使用するタイムゾーン。nilの場合はUTC。
func NewTimeClockHandler(service TimeClockServiceInterface, renderer Renderer, loc *time.Location) *TimeClockHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TimeClockHandler{service: service, renderer: renderer, location: loc}
}

// toggleResponse は打刻結果のAPIレスポンス。
type toggleResponse struct {
	Outcome string `json:"outcome"`
}

// entryResponse は打刻エントリのAPIレスポンス。
type entryResponse struct {
	ID         string  `json:"id"`
	CheckIn    string  `json:"check_in"`
	CheckOut   string  `json:"check_out"`
	Total      *string `json:"total"`
	EmployeeID string  `json:"employee_id"`
}

// Toggle はカード読み取りによる打刻を処理する。
// POST /add/{uid}
func (h *TimeClockHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	outcome, err := h.service.Toggle(r.Context(), uid)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if outcome == timeclock.OutcomeNotFound {
		handleServiceError(w, model.NewEmployeeNotFoundError(uid))
		return
	}

	slog.Info("toggle processed",
		slog.String("uid", uid),
		slog.String("outcome", string(outcome)),
	)
	writeJSON(w, http.StatusAccepted, toggleResponse{Outcome: string(outcome)})
}

// ListEntries は従業員の全エントリをJSONで返す。
// GET /list/{uid}
func (h *TimeClockHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	entries, err := h.service.Entries(r.Context(), uid)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Info は当日の勤務サマリーページを返す。
// GET /info/{uid}
func (h *TimeClockHandler) Info(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	summary, err := h.service.Summary(r.Context(), uid)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	renderPage(w, h.renderer, view.PageInfo, h.summaryData(summary))
}

// summaryData はサマリーをテンプレートに渡す値に変換する。時刻は表示用タイムゾーンに変換する。
func (h *TimeClockHandler) summaryData(s worktime.Summary) map[string]any {
	breaks := make([]map[string]any, 0, len(s.Breaks))
	for _, b := range s.Breaks {
		breaks = append(breaks, map[string]any{
			"start": b.Start.In(h.location),
			"end":   b.End.In(h.location),
			"total": b.Total,
		})
	}

	var startingTime any = worktime.Placeholder
	if s.StartingTime != nil {
		startingTime = s.StartingTime.In(h.location)
	}

	return map[string]any{
		"starting_time": startingTime,
		"breaks":        breaks,
		"overall_total": s.OverallTotal,
	}
}

func toEntryResponse(e *model.TimeClockEntry) entryResponse {
	resp := entryResponse{
		ID:         e.ID,
		CheckIn:    formatTimestamp(e.CheckIn),
		CheckOut:   noneValue,
		EmployeeID: e.EmployeeID,
	}
	if e.CheckOut != nil {
		resp.CheckOut = formatTimestamp(*e.CheckOut)
	}
	if total, ok := worktime.FormatTotal(e.Total); ok {
		resp.Total = &total
	}
	return resp
}
