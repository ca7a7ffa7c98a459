package rcauth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/timeclock/internal/clock"
	"github.com/hitoshi/timeclock/internal/metrics"
	"github.com/hitoshi/timeclock/internal/model"
	"github.com/hitoshi/timeclock/internal/repository"
)

// PollResult は1回のポーリングステップの結果。
type PollResult struct {
	RequestID   string
	UID         string
	State       model.AuthState
	NextCounter int // StateがPENDINGのときに次に問い合わせるcounter
}

// Service は認証リクエストの作成・承認・ポーリングを行う。
type Service struct {
	employees repository.EmployeeRepository
	requests  repository.AuthRequestRepository
	clock     clock.Clock
	policy    Policy
	metrics   metrics.MetricsCollector
}

// NewService はServiceを生成する。mcがnilの場合はメトリクスを記録しない。
func NewService(
	employees repository.EmployeeRepository,
	requests repository.AuthRequestRepository,
	clk clock.Clock,
	policy Policy,
	mc metrics.MetricsCollector,
) *Service {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Service{
		employees: employees,
		requests:  requests,
		clock:     clk,
		policy:    policy,
		metrics:   mc,
	}
}

// Policy はServiceが使用するPolicyを返す。
func (s *Service) Policy() Policy {
	return s.policy
}

// CreateRequest はuidに対するPENDINGの認証リクエストを作成する。
// 未登録のuidにはEMPLOYEE_NOT_FOUNDを返す。
func (s *Service) CreateRequest(ctx context.Context, uid string) (*model.AuthRequest, error) {
	employee, err := s.employees.FindByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("従業員の取得に失敗しました: %w", err)
	}
	if employee == nil {
		return nil, model.NewEmployeeNotFoundError(uid)
	}

	req := &model.AuthRequest{
		ID:          uuid.New().String(),
		UID:         uid,
		RequestedAt: s.clock.Now(),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("認証リクエストの作成に失敗しました: %w", err)
	}

	s.metrics.RecordAuthRequest()
	slog.Info("auth request created",
		slog.String("auth_request_id", req.ID),
		slog.String("uid", uid),
	)
	return req, nil
}

// Confirm はuidの正規PENDINGリクエストを承認する。
// ConfirmWindowを超えたリクエストはsuccess=falseとして保存し、承認しない。
// 対象がない場合はAUTH_REQUEST_NOT_FOUNDを返す。
func (s *Service) Confirm(ctx context.Context, uid string) (*model.AuthRequest, error) {
	req, err := s.requests.FindCanonicalPending(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("認証リクエストの取得に失敗しました: %w", err)
	}
	if req == nil {
		return nil, model.NewAuthRequestNotFoundError(uid)
	}

	if _, err := ConfirmRequest(ctx, s.requests, s.policy, req, s.clock.Now()); err != nil {
		return nil, err
	}
	return req, nil
}

// ConfirmRequest はPolicyに従ってreqへのconfirmを反映し、requestsに保存する。
// requestsはトランザクションに束縛されたリポジトリでもよい。承認した場合はtrueを返す。
func ConfirmRequest(ctx context.Context, requests repository.AuthRequestRepository, policy Policy, req *model.AuthRequest, now time.Time) (bool, error) {
	confirmed := policy.Resolve(req, now)
	if err := requests.Update(ctx, req); err != nil {
		return false, fmt.Errorf("認証リクエストの更新に失敗しました: %w", err)
	}

	if confirmed {
		slog.Info("auth request confirmed",
			slog.String("auth_request_id", req.ID),
			slog.String("uid", req.UID),
		)
	} else {
		slog.Warn("auth request confirmed too late",
			slog.String("auth_request_id", req.ID),
			slog.String("uid", req.UID),
			slog.Float64("age_seconds", req.Age(now).Seconds()),
		)
	}
	return confirmed, nil
}

// Poll はcounter回目のポーリングステップを処理する。
// 承認済みならCONFIRMED、上限に達しても未承認なら削除済みにしてEXPIREDを返す。
// 未知のidにはAUTH_REQUEST_NOT_FOUNDを返す。
func (s *Service) Poll(ctx context.Context, id string, counter int) (*PollResult, error) {
	if counter < 0 {
		return nil, model.NewInvalidRequestError("counter must not be negative")
	}

	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("認証リクエストの取得に失敗しました: %w", err)
	}
	if req == nil {
		return nil, model.NewAuthRequestNotFoundError(id)
	}

	result := &PollResult{RequestID: req.ID, UID: req.UID, State: req.State()}

	switch result.State {
	case model.AuthStateConfirmed, model.AuthStateExpired:
		// 終端状態
	default:
		if s.policy.Exhausted(counter) {
			req.Deleted = true
			if err := s.requests.Update(ctx, req); err != nil {
				return nil, fmt.Errorf("認証リクエストの期限切れ更新に失敗しました: %w", err)
			}
			result.State = model.AuthStateExpired
			slog.Info("auth request expired",
				slog.String("auth_request_id", req.ID),
				slog.String("uid", req.UID),
				slog.Int("counter", counter),
			)
		} else {
			result.NextCounter = counter + 1
		}
	}

	s.metrics.RecordAuthPoll(string(result.State))
	return result, nil
}
