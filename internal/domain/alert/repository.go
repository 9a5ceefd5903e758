package alert

import (
	"context"
	"errors"
)

// ErrAlertNotFound はアラートが存在しないことを表す
var ErrAlertNotFound = errors.New("アラートが見つかりません")

// Repository はシステムアラートリポジトリのインターフェース
type Repository interface {
	// Create は新しいアラートを作成する
	Create(ctx context.Context, alert *SystemAlert) error

	// ListActive はアクティブなアラート一覧を取得する
	ListActive(ctx context.Context) ([]*SystemAlert, error)

	// Dismiss はアラートを非表示にする
	Dismiss(ctx context.Context, id string) error
}
