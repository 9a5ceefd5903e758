package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/20r01a04l8/railway-management-system/internal/domain/user"
)

// Claims はJWTに含めるクレームを表す
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService は認証に関するユースケースを提供する
type AuthService struct {
	userRepo  user.Repository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService は新しいAuthServiceを作成する
func NewAuthService(userRepo user.Repository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// RegisterInput はユーザー登録の入力を表す
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Phone    string
}

// Register は新しいユーザーを登録する
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}

	u := user.NewUser(input.Username, input.Email, string(hash), input.FullName, input.Phone)
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login は認証を行いJWTを発行する
// ユーザーが存在しない場合もパスワード不一致と同じエラーを返す
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *user.User, error) {
	u, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", nil, user.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !u.IsActive {
		return "", nil, user.ErrUserInactive
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, user.ErrInvalidCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// GetProfile はユーザー情報を取得する
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*user.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *AuthService) issueToken(u *user.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: u.ID,
		Role:   string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}
