package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/timeclock/internal/metrics"
	"github.com/hitoshi/timeclock/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter // nilの場合は打刻のレート制限を行わない

	// 監視
	HealthChecker    HealthChecker
	MetricsGatherer  prometheus.Gatherer // nilの場合は/metricsを公開しない
	MetricsCollector metrics.MetricsCollector

	// 描画
	Renderer Renderer

	// 従業員
	EmployeeService EmployeeServiceInterface

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 打刻
	TimeClockService TimeClockServiceInterface
	Location         *time.Location // サマリーページの時刻表示タイムゾーン
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Logging → Metrics → Recovery → SecurityHeaders → CORS
//
// 打刻（POST /add/{uid}）と認証リクエスト（/auth/request/{uid}）にuid単位のレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mc := deps.MetricsCollector
	if mc == nil {
		mc = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(mc))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	employeeHandler := NewEmployeeHandler(deps.EmployeeService, deps.Renderer)
	authHandler := NewAuthHandler(deps.AuthService, deps.Renderer, deps.AuthConfig)
	timeClockHandler := NewTimeClockHandler(deps.TimeClockService, deps.Renderer, deps.Location)

	// --- 監視 ---
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- 従業員 ---
	r.Get("/", employeeHandler.Index)
	r.Get("/list/employees", employeeHandler.ListEmployees)
	r.Post("/new-employee/{secret}", employeeHandler.NewEmployee)

	// uid単位のレート制限は打刻と認証リクエストで別枠にする
	var toggle, authRequest chi.Router = r, r
	if deps.RateLimiter != nil {
		uidKey := middleware.URLParamKey("uid")
		toggle = r.With(deps.RateLimiter.Middleware(middleware.PrefixedKey("toggle:", uidKey)))
		authRequest = r.With(deps.RateLimiter.Middleware(middleware.PrefixedKey("auth:", uidKey)))
	}

	// --- リモート承認 ---
	authRequest.Get("/auth/request/{uid}", authHandler.RequestAuth)
	authRequest.Post("/auth/request/{uid}", authHandler.RequestAuth)
	r.Get("/validate/auth/{id}/{counter}", authHandler.ValidateAuth)

	// --- 打刻 ---
	toggle.Post("/add/{uid}", timeClockHandler.Toggle)
	r.Get("/list/{uid}", timeClockHandler.ListEntries)
	r.Get("/info/{uid}", timeClockHandler.Info)

	return r
}
