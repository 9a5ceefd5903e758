package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/20r01a04l8/railway-management-system/internal/domain/alert"
)

type alertRow struct {
	ID          string    `db:"id"`
	Type        string    `db:"type"`
	Title       string    `db:"title"`
	Message     string    `db:"message"`
	Icon        string    `db:"icon"`
	Dismissible bool      `db:"dismissible"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *alertRow) toEntity() *alert.SystemAlert {
	return &alert.SystemAlert{
		ID: r.ID, Type: alert.Type(r.Type), Title: r.Title, Message: r.Message,
		Icon: r.Icon, Dismissible: r.Dismissible, IsActive: r.IsActive, CreatedAt: r.CreatedAt,
	}
}

// AlertRepository はシステムアラートリポジトリのPostgreSQL実装
type AlertRepository struct{ db *sqlx.DB }

func NewAlertRepository(db *sqlx.DB) *AlertRepository { return &AlertRepository{db: db} }

func (r *AlertRepository) Create(ctx context.Context, a *alert.SystemAlert) error {
	query := `INSERT INTO system_alerts (type, title, message, icon, dismissible, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		string(a.Type), a.Title, a.Message, a.Icon, a.Dismissible, a.IsActive, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("アラート作成に失敗: %w", err)
	}
	return nil
}

func (r *AlertRepository) ListActive(ctx context.Context) ([]*alert.SystemAlert, error) {
	var rows []alertRow
	query := `SELECT id, type, title, message, icon, dismissible, is_active, created_at
		FROM system_alerts WHERE is_active ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("アラート一覧取得に失敗: %w", err)
	}
	alerts := make([]*alert.SystemAlert, len(rows))
	for i, row := range rows {
		alerts[i] = row.toEntity()
	}
	return alerts, nil
}

func (r *AlertRepository) Dismiss(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE system_alerts SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("アラートの非表示化に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return alert.ErrAlertNotFound
	}
	return nil
}

var _ alert.Repository = (*AlertRepository)(nil)
