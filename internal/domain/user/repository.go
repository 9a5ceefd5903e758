package user

import "context"

// Repository はユーザーリポジトリのインターフェース
type Repository interface {
	// Create は新しいユーザーを作成する
	Create(ctx context.Context, user *User) error

	// GetByID はIDからユーザーを取得する
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByUsername はユーザー名からユーザーを取得する
	GetByUsername(ctx context.Context, username string) (*User, error)

	// CountActive はアクティブなユーザー数を取得する
	CountActive(ctx context.Context) (int, error)
}
