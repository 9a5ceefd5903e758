package booking

import (
	"context"
	"time"

	"github.com/20r01a04l8/railway-management-system/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	// 空席数の減算と同一トランザクションでコミットされる
	Create(ctx context.Context, tx transaction.Tx, booking *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// GetByIDForUpdate は予約行を排他ロックして取得する（トランザクション必須）
	// 同一予約の二重解放を防ぐため、解放時の状態確認はこのロック下で行う
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Booking, error)

	// GetByReference は予約参照コードから予約を取得する
	GetByReference(ctx context.Context, reference string) (*Booking, error)

	// GetByUserID はユーザーIDから予約一覧を取得する
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Booking, error)

	// UpdateStatus は予約の状態を更新する（トランザクション必須）
	UpdateStatus(ctx context.Context, tx transaction.Tx, booking *Booking) error

	// UpdatePassengers は乗客情報を更新する（人数は変更不可）
	UpdatePassengers(ctx context.Context, booking *Booking) error

	// GetConfirmedJourneyEndedBefore は旅程が終了した確定予約を取得する
	GetConfirmedJourneyEndedBefore(ctx context.Context, before time.Time) ([]*Booking, error)
}
