package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/20r01a04l8/railway-management-system/internal/domain/station"
)

type stationRow struct {
	ID        string    `db:"id"`
	Code      string    `db:"code"`
	Name      string    `db:"name"`
	City      string    `db:"city"`
	State     string    `db:"state"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *stationRow) toEntity() *station.Station {
	return &station.Station{
		ID: r.ID, Code: r.Code, Name: r.Name,
		City: r.City, State: r.State, CreatedAt: r.CreatedAt,
	}
}

// StationRepository は駅リポジトリのPostgreSQL実装
type StationRepository struct{ db *sqlx.DB }

func NewStationRepository(db *sqlx.DB) *StationRepository { return &StationRepository{db: db} }

func (r *StationRepository) Create(ctx context.Context, s *station.Station) error {
	query := `INSERT INTO stations (code, name, city, state, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, s.Code, s.Name, s.City, s.State, s.CreatedAt).Scan(&s.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return station.ErrStationCodeDuplicate
		}
		return fmt.Errorf("駅作成に失敗: %w", err)
	}
	return nil
}

func (r *StationRepository) GetByID(ctx context.Context, id string) (*station.Station, error) {
	var row stationRow
	query := `SELECT id, code, name, city, state, created_at FROM stations WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, station.ErrStationNotFound
		}
		return nil, fmt.Errorf("駅取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *StationRepository) List(ctx context.Context) ([]*station.Station, error) {
	var rows []stationRow
	query := `SELECT id, code, name, city, state, created_at FROM stations ORDER BY name`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("駅一覧取得に失敗: %w", err)
	}
	stations := make([]*station.Station, len(rows))
	for i, row := range rows {
		stations[i] = row.toEntity()
	}
	return stations, nil
}

var _ station.Repository = (*StationRepository)(nil)
