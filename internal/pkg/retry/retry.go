package retry

import (
	"context"
	"time"
)

// Policy はリトライの方針を表す
// 一時的な障害（ロック競合・接続断など）のみを対象とし、
// ビジネスルール上の拒否は呼び出し側が Permanent で打ち切る
type Policy struct {
	MaxAttempts int           // 総試行回数（1以上）
	BaseDelay   time.Duration // 初回リトライまでの待機時間
	MaxDelay    time.Duration // 待機時間の上限
	Multiplier  float64       // 待機時間の倍率
}

// DefaultPolicy は既定のリトライ方針を返す（3回・100ms起点・指数バックオフ）
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Multiplier:  2.0,
	}
}

// permanentError はリトライ対象外のエラーを包む
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent は err をリトライ対象外として扱わせる
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do は fn を方針に従ってリトライ付きで実行する
// fn が Permanent で包まれたエラーを返した場合は即座に中断し、元のエラーを返す
// コンテキストのキャンセルはリトライ待機中にのみ反映される
func Do(ctx context.Context, policy Policy, fn func() error) error {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	delay := policy.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if pe, ok := err.(*permanentError); ok {
			return pe.err
		}
		lastErr = err

		if attempt == policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * policy.Multiplier)
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	return lastErr
}
