package refund

import "errors"

// Refund ドメインのエラー定義
var (
	ErrRequestNotFound   = errors.New("返金リクエストが見つかりません")
	ErrRequestNotPending = errors.New("返金リクエストは保留中ではありません")
)
