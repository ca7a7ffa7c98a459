package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"log/slog"

	"github.com/lib/pq"
)

// IsTransient は永続化エラーが一時的なもので、再試行に値するかを判定する。
// 接続断（driver.ErrBadConn、SQLSTATEクラス08）、シリアライズ失敗、デッドロックを一時的とみなす。
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code.Class() == pqConnectionException:
			return true
		case pqErr.Code == pqSerializationFailure, pqErr.Code == pqDeadlockDetected:
			return true
		}
	}
	return false
}

// RunInTx はfnを1つのトランザクションで実行する。
// 一時的なエラーで失敗した場合に限り1回だけ再試行し、それでも失敗したらエラーを返す。
func RunInTx(ctx context.Context, uow UnitOfWork, fn func(ctx context.Context, tx Store) error) error {
	err := uow.WithinTx(ctx, fn)
	if !IsTransient(err) {
		return err
	}

	slog.Warn("transient persistence error, retrying once",
		slog.String("error", err.Error()),
	)
	return uow.WithinTx(ctx, fn)
}
