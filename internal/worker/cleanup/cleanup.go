// Package cleanup は放置された認証リクエストを期限切れにするジョブを提供する。
// クライアントがポーリングを途中でやめたリクエストはPENDINGのまま残るため、
// 承認ウィンドウを過ぎたものを定期的にdeletedにする。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/timeclock/internal/clock"
	"github.com/hitoshi/timeclock/internal/metrics"
)

// Expirer は古いPENDINGリクエストを期限切れにするインターフェース。
// repository.AuthRequestRepositoryが満たす。
type Expirer interface {
	ExpirePendingBefore(ctx context.Context, before time.Time) (int64, error)
}

// AuthExpiryJob は承認ウィンドウを過ぎた認証リクエストの期限切れジョブ。
// 冪等で、対象がない場合もエラーにならない。
type AuthExpiryJob struct {
	repo    Expirer
	clock   clock.Clock
	logger  *slog.Logger
	metrics metrics.MetricsCollector
	MaxAge  time.Duration // requested_atからこの時間を過ぎたPENDINGを期限切れにする
}

// NewAuthExpiryJob は新しいAuthExpiryJobを生成する。mcがnilの場合はメトリクスを記録しない。
func NewAuthExpiryJob(repo Expirer, clk clock.Clock, logger *slog.Logger, mc metrics.MetricsCollector, maxAge time.Duration) *AuthExpiryJob {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &AuthExpiryJob{
		repo:    repo,
		clock:   clk,
		logger:  logger,
		metrics: mc,
		MaxAge:  maxAge,
	}
}

// Run はMaxAgeより古いPENDINGリクエストを期限切れにする。
func (j *AuthExpiryJob) Run(ctx context.Context) error {
	start := time.Now()
	before := j.clock.Now().Add(-j.MaxAge)

	expired, err := j.repo.ExpirePendingBefore(ctx, before)
	if err != nil {
		j.logger.Error("認証リクエストの期限切れ処理に失敗しました",
			slog.String("error", err.Error()),
			slog.Duration("max_age", j.MaxAge),
		)
		return fmt.Errorf("認証リクエストの期限切れ処理に失敗: %w", err)
	}

	j.metrics.RecordAuthExpired(expired)
	j.logger.Info("認証リクエストの期限切れ処理が完了しました",
		slog.Int64("expired_count", expired),
		slog.Duration("max_age", j.MaxAge),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start は起動直後に1回、以後interval毎にRunを実行する。ctxがキャンセルされると戻る。
func (j *AuthExpiryJob) Start(ctx context.Context, interval time.Duration) {
	j.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *AuthExpiryJob) runOnce(ctx context.Context) {
	if err := j.Run(ctx); err != nil && ctx.Err() == nil {
		j.logger.Error("auth expiry job failed", slog.String("error", err.Error()))
	}
}
