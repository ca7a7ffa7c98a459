package handler

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/timeclock/internal/model"
	"github.com/hitoshi/timeclock/internal/rcauth"
	"github.com/hitoshi/timeclock/internal/view"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// CreateRequest はuidに対する認証リクエストを作成する。
	CreateRequest(ctx context.Context, uid string) (*model.AuthRequest, error)
	// Poll はcounter回目のポーリングステップを処理する。
	Poll(ctx context.Context, id string, counter int) (*rcauth.PollResult, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	// PollInterval は確認ページが次のポーリングまで待つ間隔。
	PollInterval time.Duration
}

// AuthHandler はリモート承認フローのHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	renderer Renderer
	config   AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, renderer Renderer, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{service: service, renderer: renderer, config: config}
}

// RequestAuth は認証リクエストを作成し、ポーリングページを返す。
// GET|POST /auth/request/{uid}
func (h *AuthHandler) RequestAuth(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	req, err := h.service.CreateRequest(r.Context(), uid)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.renderPending(w, req.ID, 0)
}

// ValidateAuth はポーリングの1ステップを処理する。
// 承認済みなら/info/{uid}へリダイレクトし、期限切れなら失敗ページを返す。
// GET /validate/auth/{id}/{counter}
func (h *AuthHandler) ValidateAuth(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	counter, err := strconv.Atoi(chi.URLParam(r, "counter"))
	if err != nil {
		handleServiceError(w, model.NewInvalidRequestError("counter must be an integer"))
		return
	}

	result, err := h.service.Poll(r.Context(), id, counter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	switch result.State {
	case model.AuthStateConfirmed:
		http.Redirect(w, r, "/info/"+url.PathEscape(result.UID), http.StatusSeeOther)
	case model.AuthStateExpired:
		renderPage(w, h.renderer, view.PageFailed, map[string]any{})
	default:
		h.renderPending(w, result.RequestID, result.NextCounter)
	}
}

func (h *AuthHandler) renderPending(w http.ResponseWriter, id string, counter int) {
	renderPage(w, h.renderer, view.PageAuthenticate, map[string]any{
		"auth_request_id": id,
		"counter":         counter,
		"refresh_seconds": refreshSeconds(h.config.PollInterval),
	})
}

// refreshSeconds はmeta refreshに指定する秒数を返す。1秒未満は1秒に切り上げる。
func refreshSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}
