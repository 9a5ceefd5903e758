package train

import "context"

// Repository は列車リポジトリのインターフェース
type Repository interface {
	// Create は新しい列車を作成する
	Create(ctx context.Context, train *Train) error

	// GetByID はIDから列車を取得する
	GetByID(ctx context.Context, id string) (*Train, error)

	// List は列車一覧を取得する（非アクティブ含む）
	List(ctx context.Context, limit, offset int) ([]*Train, error)

	// Update は列車を更新する（楽観的ロック）
	Update(ctx context.Context, train *Train) error

	// SetActive は列車と関連経路のアクティブ状態を切り替える
	SetActive(ctx context.Context, id string, active bool) error
}

// RouteRepository は経路リポジトリのインターフェース
type RouteRepository interface {
	// Create は新しい経路を作成する
	Create(ctx context.Context, route *Route) error

	// GetByID はIDから経路を取得する
	GetByID(ctx context.Context, id string) (*Route, error)

	// ListActive はアクティブな経路一覧を取得する
	ListActive(ctx context.Context) ([]*Route, error)

	// ExistsActive は同じ列車・駅の組み合わせのアクティブな経路が存在するかを返す
	ExistsActive(ctx context.Context, trainID, sourceStationID, destStationID string) (bool, error)
}
