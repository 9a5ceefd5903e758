package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/20r01a04l8/railway-management-system/internal/domain/schedule"
	"github.com/20r01a04l8/railway-management-system/internal/domain/transaction"
)

type scheduleRow struct {
	ID             string    `db:"id"`
	RouteID        string    `db:"route_id"`
	ScheduleDate   time.Time `db:"schedule_date"`
	TotalCapacity  int       `db:"total_capacity"`
	AvailableSeats int       `db:"available_seats"`
	BaseFare       int       `db:"base_fare"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r *scheduleRow) toEntity() *schedule.Schedule {
	return &schedule.Schedule{
		ID: r.ID, RouteID: r.RouteID, ScheduleDate: r.ScheduleDate,
		TotalCapacity: r.TotalCapacity, AvailableSeats: r.AvailableSeats,
		BaseFare: r.BaseFare, Status: schedule.Status(r.Status), CreatedAt: r.CreatedAt,
	}
}

// ScheduleRepository は運行スケジュールリポジトリのPostgreSQL実装
type ScheduleRepository struct{ db *sqlx.DB }

func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository { return &ScheduleRepository{db: db} }

func (r *ScheduleRepository) Create(ctx context.Context, s *schedule.Schedule) error {
	query := `INSERT INTO train_schedules (route_id, schedule_date, total_capacity, available_seats, base_fare, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		s.RouteID, s.ScheduleDate, s.TotalCapacity, s.AvailableSeats, s.BaseFare, string(s.Status), s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("スケジュール作成に失敗: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*schedule.Schedule, error) {
	query := `SELECT id, route_id, schedule_date, total_capacity, available_seats, base_fare, status, created_at FROM train_schedules WHERE id = $1`
	var row scheduleRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schedule.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("スケジュール取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDForUpdate は FOR UPDATE でスケジュール行をロックして取得する
// 空席数の確認から更新までの間、同一スケジュールへの他の予約・解放を直列化する
func (r *ScheduleRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*schedule.Schedule, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, fmt.Errorf("不正なトランザクション型です")
	}
	query := `SELECT id, route_id, schedule_date, total_capacity, available_seats, base_fare, status, created_at FROM train_schedules WHERE id = $1 FOR UPDATE`
	var row scheduleRow
	if err := sqlxTx.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schedule.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("スケジュールのロック取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// AdjustSeats は空席数を delta だけ変更する
// WHERE 句で 0..total_capacity の範囲を保証し、範囲外になる更新は1行も行わない
func (r *ScheduleRepository) AdjustSeats(ctx context.Context, tx transaction.Tx, id string, delta int) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("不正なトランザクション型です")
	}
	query := `UPDATE train_schedules
		SET available_seats = available_seats + $1
		WHERE id = $2
		  AND available_seats + $1 >= 0
		  AND available_seats + $1 <= total_capacity`
	result, err := sqlxTx.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("空席数更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return schedule.ErrCapacityInvariantViolated
	}
	return nil
}

func (r *ScheduleRepository) ExistsForRouteAndDate(ctx context.Context, routeID string, date time.Time) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM train_schedules WHERE route_id = $1 AND schedule_date = $2)`, routeID, date)
	if err != nil {
		return false, fmt.Errorf("スケジュール存在確認に失敗: %w", err)
	}
	return exists, nil
}

func (r *ScheduleRepository) Search(ctx context.Context, criteria schedule.SearchCriteria) ([]*schedule.Schedule, error) {
	query := `SELECT s.id, s.route_id, s.schedule_date, s.total_capacity, s.available_seats, s.base_fare, s.status, s.created_at
		FROM train_schedules s
		JOIN routes r ON r.id = s.route_id
		JOIN trains t ON t.id = r.train_id
		WHERE r.source_station_id = $1
		  AND r.destination_station_id = $2
		  AND s.schedule_date = $3
		  AND s.available_seats > 0
		  AND r.is_active AND t.is_active
		ORDER BY r.departure_time`
	var rows []scheduleRow
	if err := r.db.SelectContext(ctx, &rows, query,
		criteria.SourceStationID, criteria.DestinationStationID, criteria.TravelDate); err != nil {
		return nil, fmt.Errorf("スケジュール検索に失敗: %w", err)
	}
	schedules := make([]*schedule.Schedule, len(rows))
	for i, row := range rows {
		schedules[i] = row.toEntity()
	}
	return schedules, nil
}

var _ schedule.Repository = (*ScheduleRepository)(nil)
