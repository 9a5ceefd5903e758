package schedule

import (
	"context"
	"time"

	"github.com/20r01a04l8/railway-management-system/internal/domain/transaction"
)

// SearchCriteria は列車検索の条件を表す
type SearchCriteria struct {
	SourceStationID      string
	DestinationStationID string
	TravelDate           time.Time
}

// Repository は運行スケジュールリポジトリのインターフェース
type Repository interface {
	// Create は新しいスケジュールを作成する
	Create(ctx context.Context, schedule *Schedule) error

	// GetByID はIDからスケジュールを取得する
	GetByID(ctx context.Context, id string) (*Schedule, error)

	// GetByIDForUpdate はスケジュール行を排他ロックして取得する（トランザクション必須）
	// 予約・解放のクリティカルセクションはこのロック下でのみ空席数を変更できる
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Schedule, error)

	// AdjustSeats は空席数を delta だけ変更する（トランザクション必須）
	// 変更後の値が 0..total_capacity の範囲外になる場合は1行も更新しない
	AdjustSeats(ctx context.Context, tx transaction.Tx, id string, delta int) error

	// ExistsForRouteAndDate は経路・日付のスケジュールが存在するかを返す
	ExistsForRouteAndDate(ctx context.Context, routeID string, date time.Time) (bool, error)

	// Search は出発駅・到着駅・日付で空席のあるスケジュールを検索する
	Search(ctx context.Context, criteria SearchCriteria) ([]*Schedule, error)
}
