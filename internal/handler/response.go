package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/timeclock/internal/middleware"
	"github.com/hitoshi/timeclock/internal/model"
)

// Renderer はHTMLページを描画するインターフェース。view.Rendererが実装する。
type Renderer interface {
	Render(w io.Writer, page string, data map[string]any) error
}

// listTimestampLayout は/list/{uid}の日時文字列のフォーマット。
// マイクロ秒が0でない場合のみ".ffffff"を付ける。
const listTimestampLayout = "2006-01-02 15:04:05"

// noneValue は未退勤エントリのcheck_outに出力する値。
const noneValue = "None"

// formatTimestamp はUTCの日時を"YYYY-MM-DD HH:MM:SS[.ffffff]"形式にする。
func formatTimestamp(t time.Time) string {
	t = t.UTC()
	s := t.Format(listTimestampLayout)
	if us := t.Nanosecond() / int(time.Microsecond); us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	return s
}

// writeJSON はvをJSONでレスポンスに書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// renderPage はpageを描画する。失敗した場合は500を返す。
func renderPage(w http.ResponseWriter, renderer Renderer, page string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderer.Render(w, page, data); err != nil {
		slog.Error("failed to render page",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
	}
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱い、詳細はログのみに残す
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeEmployeeNotFound, model.ErrCodeAuthRequestNotFound:
		return http.StatusNotFound
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeEmployeeAlreadyExists, model.ErrCodeEntryAlreadyOpen, model.ErrCodeEntryAlreadyClosed:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
