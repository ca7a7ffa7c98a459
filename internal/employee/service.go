// Package employee は従業員の登録と一覧取得を提供する。
package employee

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/timeclock/internal/clock"
	"github.com/hitoshi/timeclock/internal/model"
	"github.com/hitoshi/timeclock/internal/repository"
	"github.com/hitoshi/timeclock/internal/security"
)

// Service は従業員管理のサービス層。
type Service struct {
	repo      repository.EmployeeRepository
	sanitizer security.NameSanitizerService
	clock     clock.Clock
	secret    string
}

// NewService はServiceを生成する。secretは登録用エンドポイントの管理者シークレット。
func NewService(
	repo repository.EmployeeRepository,
	sanitizer security.NameSanitizerService,
	clk clock.Clock,
	secret string,
) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		clock:     clk,
		secret:    secret,
	}
}

// Provision はsecretを検証したうえで従業員を登録する。
//
// secretが一致しない場合はFORBIDDEN、uidまたはサニタイズ後の名前が空の場合はINVALID_REQUEST、
// uidと名前の組が登録済みの場合はEMPLOYEE_ALREADY_EXISTSを返す。
func (s *Service) Provision(ctx context.Context, secret, uid, name string) (*model.Employee, error) {
	if !s.secretMatches(secret) {
		slog.Warn("employee provisioning rejected: secret mismatch")
		return nil, model.NewForbiddenError()
	}

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, model.NewInvalidRequestError("user_id is required")
	}
	name = s.sanitizer.Sanitize(name)
	if name == "" {
		return nil, model.NewInvalidRequestError("username is required")
	}

	e := &model.Employee{
		ID:        uuid.New().String(),
		UID:       uid,
		Name:      name,
		Active:    true,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, e); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return nil, err
		}
		return nil, fmt.Errorf("従業員の登録に失敗しました: %w", err)
	}

	slog.Info("employee provisioned",
		slog.String("employee_id", e.ID),
		slog.String("uid", e.UID),
	)
	return e, nil
}

// ListActive は有効な従業員を名前順で返す。
func (s *Service) ListActive(ctx context.Context) ([]*model.Employee, error) {
	employees, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("従業員一覧の取得に失敗しました: %w", err)
	}
	return employees, nil
}

// secretMatches は定数時間でsecretを比較する。未設定のシークレットには一致させない。
func (s *Service) secretMatches(secret string) bool {
	if s.secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) == 1
}
