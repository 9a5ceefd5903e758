package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/20r01a04l8/railway-management-system/internal/domain/train"
)

type trainRow struct {
	ID         string    `db:"id"`
	Number     string    `db:"number"`
	Name       string    `db:"name"`
	Type       string    `db:"type"`
	TotalSeats int       `db:"total_seats"`
	IsActive   bool      `db:"is_active"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
	Version    int       `db:"version"`
}

func (r *trainRow) toEntity() *train.Train {
	return &train.Train{
		ID: r.ID, Number: r.Number, Name: r.Name, Type: train.Type(r.Type),
		TotalSeats: r.TotalSeats, IsActive: r.IsActive,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, Version: r.Version,
	}
}

// TrainRepository は列車リポジトリのPostgreSQL実装
type TrainRepository struct{ db *sqlx.DB }

func NewTrainRepository(db *sqlx.DB) *TrainRepository { return &TrainRepository{db: db} }

func (r *TrainRepository) Create(ctx context.Context, t *train.Train) error {
	query := `INSERT INTO trains (number, name, type, total_seats, is_active, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		t.Number, t.Name, string(t.Type), t.TotalSeats, t.IsActive, t.CreatedAt, t.UpdatedAt, t.Version,
	).Scan(&t.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return train.ErrTrainNumberDuplicate
		}
		return fmt.Errorf("列車作成に失敗: %w", err)
	}
	return nil
}

func (r *TrainRepository) GetByID(ctx context.Context, id string) (*train.Train, error) {
	var row trainRow
	query := `SELECT id, number, name, type, total_seats, is_active, created_at, updated_at, version FROM trains WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, train.ErrTrainNotFound
		}
		return nil, fmt.Errorf("列車取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *TrainRepository) List(ctx context.Context, limit, offset int) ([]*train.Train, error) {
	var rows []trainRow
	query := `SELECT id, number, name, type, total_seats, is_active, created_at, updated_at, version
		FROM trains ORDER BY number LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("列車一覧取得に失敗: %w", err)
	}
	trains := make([]*train.Train, len(rows))
	for i, row := range rows {
		trains[i] = row.toEntity()
	}
	return trains, nil
}

// Update は楽観的ロックで列車を更新する
// バージョンが一致しない場合は ErrTrainNotFound を返す
func (r *TrainRepository) Update(ctx context.Context, t *train.Train) error {
	query := `UPDATE trains
		SET name = $1, type = $2, total_seats = $3, updated_at = $4, version = version + 1
		WHERE id = $5 AND version = $6`
	result, err := r.db.ExecContext(ctx, query,
		t.Name, string(t.Type), t.TotalSeats, time.Now(), t.ID, t.Version)
	if err != nil {
		return fmt.Errorf("列車更新に失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗: %w", err)
	}
	if rows == 0 {
		return train.ErrTrainNotFound
	}
	t.Version++
	return nil
}

func (r *TrainRepository) SetActive(ctx context.Context, id string, active bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE trains SET is_active = $1, updated_at = $2 WHERE id = $3`, active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("列車の状態更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return train.ErrTrainNotFound
	}

	// 列車を無効化する場合は関連経路も合わせて無効化する
	if _, err := tx.ExecContext(ctx,
		`UPDATE routes SET is_active = $1 WHERE train_id = $2`, active, id); err != nil {
		return fmt.Errorf("関連経路の状態更新に失敗: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}

var _ train.Repository = (*TrainRepository)(nil)

type routeRow struct {
	ID                   string    `db:"id"`
	TrainID              string    `db:"train_id"`
	SourceStationID      string    `db:"source_station_id"`
	DestinationStationID string    `db:"destination_station_id"`
	DepartureTime        string    `db:"departure_time"`
	ArrivalTime          string    `db:"arrival_time"`
	DistanceKM           int       `db:"distance_km"`
	BaseFare             int       `db:"base_fare"`
	IsActive             bool      `db:"is_active"`
	CreatedAt            time.Time `db:"created_at"`
}

func (r *routeRow) toEntity() *train.Route {
	return &train.Route{
		ID: r.ID, TrainID: r.TrainID,
		SourceStationID: r.SourceStationID, DestinationStationID: r.DestinationStationID,
		DepartureTime: r.DepartureTime, ArrivalTime: r.ArrivalTime,
		DistanceKM: r.DistanceKM, BaseFare: r.BaseFare,
		IsActive: r.IsActive, CreatedAt: r.CreatedAt,
	}
}

// RouteRepository は経路リポジトリのPostgreSQL実装
type RouteRepository struct{ db *sqlx.DB }

func NewRouteRepository(db *sqlx.DB) *RouteRepository { return &RouteRepository{db: db} }

func (r *RouteRepository) Create(ctx context.Context, route *train.Route) error {
	query := `INSERT INTO routes (train_id, source_station_id, destination_station_id, departure_time, arrival_time, distance_km, base_fare, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		route.TrainID, route.SourceStationID, route.DestinationStationID,
		route.DepartureTime, route.ArrivalTime, route.DistanceKM, route.BaseFare,
		route.IsActive, route.CreatedAt,
	).Scan(&route.ID)
	if err != nil {
		return fmt.Errorf("経路作成に失敗: %w", err)
	}
	return nil
}

func (r *RouteRepository) GetByID(ctx context.Context, id string) (*train.Route, error) {
	var row routeRow
	query := `SELECT id, train_id, source_station_id, destination_station_id, departure_time, arrival_time, distance_km, base_fare, is_active, created_at
		FROM routes WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, train.ErrRouteNotFound
		}
		return nil, fmt.Errorf("経路取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *RouteRepository) ListActive(ctx context.Context) ([]*train.Route, error) {
	var rows []routeRow
	query := `SELECT id, train_id, source_station_id, destination_station_id, departure_time, arrival_time, distance_km, base_fare, is_active, created_at
		FROM routes WHERE is_active ORDER BY departure_time`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("経路一覧取得に失敗: %w", err)
	}
	routes := make([]*train.Route, len(rows))
	for i, row := range rows {
		routes[i] = row.toEntity()
	}
	return routes, nil
}

func (r *RouteRepository) ExistsActive(ctx context.Context, trainID, sourceStationID, destStationID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM routes WHERE train_id = $1 AND source_station_id = $2 AND destination_station_id = $3 AND is_active)`,
		trainID, sourceStationID, destStationID)
	if err != nil {
		return false, fmt.Errorf("経路存在確認に失敗: %w", err)
	}
	return exists, nil
}

var _ train.RouteRepository = (*RouteRepository)(nil)
