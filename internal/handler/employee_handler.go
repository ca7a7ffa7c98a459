package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/timeclock/internal/model"
	"github.com/hitoshi/timeclock/internal/view"
)

// maxRequestBodyBytes は従業員登録リクエストボディの上限。
const maxRequestBodyBytes = 1 << 16

// EmployeeServiceInterface は従業員ハンドラーが必要とするサービスインターフェース。
type EmployeeServiceInterface interface {
	// Provision はシークレットを検証して従業員を登録する。
	Provision(ctx context.Context, secret, uid, name string) (*model.Employee, error)
	// ListActive は有効な従業員を名前順で返す。
	ListActive(ctx context.Context) ([]*model.Employee, error)
}

// EmployeeHandler は従業員一覧と登録のHTTPハンドラー。
type EmployeeHandler struct {
	service  EmployeeServiceInterface
	renderer Renderer
}

// NewEmployeeHandler はEmployeeHandlerを生成する。
func NewEmployeeHandler(service EmployeeServiceInterface, renderer Renderer) *EmployeeHandler {
	return &EmployeeHandler{service: service, renderer: renderer}
}

// newEmployeeRequest は従業員登録リクエストのボディ。
type newEmployeeRequest struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// employeeResponse は従業員情報のAPIレスポンス。
type employeeResponse struct {
	ID        string `json:"id"`
	UID       string `json:"uid"`
	Name      string `json:"name"`
	CheckedIn bool   `json:"checked_in"`
}

// Index は有効な従業員の一覧ページを返す。
// GET /
func (h *EmployeeHandler) Index(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.ListActive(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	rows := make([]map[string]any, 0, len(employees))
	for _, e := range employees {
		rows = append(rows, map[string]any{
			"uid":        e.UID,
			"name":       e.Name,
			"checked_in": e.CheckedIn,
		})
	}

	renderPage(w, h.renderer, view.PageIndex, map[string]any{"employees": rows})
}

// ListEmployees は有効な従業員の一覧をJSONで返す。
// GET /list/employees
func (h *EmployeeHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.ListActive(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]employeeResponse, 0, len(employees))
	for _, e := range employees {
		resp = append(resp, toEmployeeResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

// NewEmployee は従業員を登録する。
// POST /new-employee/{secret}
func (h *EmployeeHandler) NewEmployee(w http.ResponseWriter, r *http.Request) {
	secret := chi.URLParam(r, "secret")

	var req newEmployeeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		handleServiceError(w, model.NewInvalidRequestError("malformed JSON body"))
		return
	}

	employee, err := h.service.Provision(r.Context(), secret, req.UserID, req.Username)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmployeeResponse(employee))
}

func toEmployeeResponse(e *model.Employee) employeeResponse {
	return employeeResponse{
		ID:        e.ID,
		UID:       e.UID,
		Name:      e.Name,
		CheckedIn: e.CheckedIn,
	}
}
