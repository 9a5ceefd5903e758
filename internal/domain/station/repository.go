package station

import "context"

// Repository は駅リポジトリのインターフェース
type Repository interface {
	// Create は新しい駅を作成する
	Create(ctx context.Context, station *Station) error

	// GetByID はIDから駅を取得する
	GetByID(ctx context.Context, id string) (*Station, error)

	// List は駅一覧を取得する
	List(ctx context.Context) ([]*Station, error)
}
