package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, timeclock, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeEmployeeNotFound      = "EMPLOYEE_NOT_FOUND"
	ErrCodeEmployeeAlreadyExists = "EMPLOYEE_ALREADY_EXISTS"
	ErrCodeAuthRequestNotFound   = "AUTH_REQUEST_NOT_FOUND"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeInvalidRequest        = "INVALID_REQUEST"
	ErrCodeEntryAlreadyOpen      = "ENTRY_ALREADY_OPEN"
	ErrCodeEntryAlreadyClosed    = "ENTRY_ALREADY_CLOSED"
)

// NewEmployeeNotFoundError は従業員が見つからない場合のエラーを生成する。
func NewEmployeeNotFoundError(uid string) *APIError {
	return &APIError{
		Code:     ErrCodeEmployeeNotFound,
		Message:  fmt.Sprintf("employee not found: %s", uid),
		Category: "timeclock",
		Action:   "Check the card UID or ask an administrator to register the employee.",
	}
}

// NewEmployeeAlreadyExistsError はUIDと名前の組が既に登録されている場合のエラーを生成する。
func NewEmployeeAlreadyExistsError(uid, name string) *APIError {
	return &APIError{
		Code:     ErrCodeEmployeeAlreadyExists,
		Message:  fmt.Sprintf("employee already exists: %s (%s)", name, uid),
		Category: "validation",
		Action:   "Use a different UID or name.",
	}
}

// NewAuthRequestNotFoundError は認証リクエストが見つからない場合のエラーを生成する。
func NewAuthRequestNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeAuthRequestNotFound,
		Message:  fmt.Sprintf("authentication request not found: %s", id),
		Category: "auth",
		Action:   "Start a new authentication request.",
	}
}

// NewForbiddenError は管理者シークレットが一致しない場合のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "access denied.",
		Category: "auth",
		Action:   "Check the provisioning secret.",
	}
}

// NewInvalidRequestError はリクエスト内容が不正な場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("invalid request: %s", reason),
		Category: "validation",
		Action:   "Fix the request body and try again.",
	}
}

// NewEntryAlreadyOpenError は同一従業員・同一日に未退勤エントリが既に存在する場合のエラーを生成する。
// 同時に2回打刻された場合、部分ユニークインデックス違反としてここに到達する。
func NewEntryAlreadyOpenError(employeeID string) *APIError {
	return &APIError{
		Code:     ErrCodeEntryAlreadyOpen,
		Message:  fmt.Sprintf("an open time clock entry already exists for employee %s", employeeID),
		Category: "timeclock",
		Action:   "Wait a moment and check the current status before clocking again.",
	}
}

// NewEntryAlreadyClosedError は退勤済みエントリを再度閉じようとした場合のエラーを生成する。
func NewEntryAlreadyClosedError(entryID string) *APIError {
	return &APIError{
		Code:     ErrCodeEntryAlreadyClosed,
		Message:  fmt.Sprintf("time clock entry is already closed: %s", entryID),
		Category: "timeclock",
		Action:   "Reload the current status.",
	}
}
