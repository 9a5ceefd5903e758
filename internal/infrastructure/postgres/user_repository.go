package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/20r01a04l8/railway-management-system/internal/domain/user"
)

type userRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	FullName     string    `db:"full_name"`
	Phone        string    `db:"phone"`
	Role         string    `db:"role"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r *userRow) toEntity() *user.User {
	return &user.User{
		ID: r.ID, Username: r.Username, Email: r.Email, PasswordHash: r.PasswordHash,
		FullName: r.FullName, Phone: r.Phone, Role: user.Role(r.Role),
		IsActive: r.IsActive, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// UserRepository はユーザーリポジトリのPostgreSQL実装
type UserRepository struct{ db *sqlx.DB }

func NewUserRepository(db *sqlx.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (username, email, password_hash, full_name, phone, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		u.Username, u.Email, u.PasswordHash, u.FullName, u.Phone,
		string(u.Role), u.IsActive, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "email") {
				return user.ErrEmailDuplicate
			}
			return user.ErrUsernameDuplicate
		}
		return fmt.Errorf("ユーザー作成に失敗: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	var row userRow
	query := `SELECT id, username, email, password_hash, full_name, phone, role, is_active, created_at, updated_at
		FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("ユーザー取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var row userRow
	query := `SELECT id, username, email, password_hash, full_name, phone, role, is_active, created_at, updated_at
		FROM users WHERE username = $1`
	if err := r.db.GetContext(ctx, &row, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("ユーザー取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *UserRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE is_active`); err != nil {
		return 0, fmt.Errorf("ユーザー数の取得に失敗: %w", err)
	}
	return count, nil
}

var _ user.Repository = (*UserRepository)(nil)
