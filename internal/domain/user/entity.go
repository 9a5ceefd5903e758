package user

import "time"

// Role はユーザーの権限を表す
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User はユーザーエンティティを表す
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Phone        string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser は新しいユーザーを作成する
func NewUser(username, email, passwordHash, fullName, phone string) *User {
	now := time.Now()
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Phone:        phone,
		Role:         RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsAdmin はユーザーが管理者かを返す
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Validate はユーザーの検証を行う
func (u *User) Validate() error {
	if u.Username == "" {
		return ErrUsernameRequired
	}
	if u.Email == "" {
		return ErrEmailRequired
	}
	if u.PasswordHash == "" {
		return ErrPasswordRequired
	}
	if u.FullName == "" {
		return ErrFullNameRequired
	}
	return nil
}
