package refund

import "context"

// Repository は返金リクエストリポジトリのインターフェース
type Repository interface {
	// Create は新しい返金リクエストを作成する
	Create(ctx context.Context, request *Request) error

	// GetByID はIDから返金リクエストを取得する
	GetByID(ctx context.Context, id string) (*Request, error)

	// ListPending は保留中の返金リクエスト一覧を取得する
	ListPending(ctx context.Context) ([]*Request, error)

	// Update は返金リクエストを更新する
	Update(ctx context.Context, request *Request) error
}
