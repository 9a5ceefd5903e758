package user

import "errors"

// User ドメインのエラー定義
var (
	ErrUserNotFound       = errors.New("ユーザーが見つかりません")
	ErrUsernameRequired   = errors.New("ユーザー名は必須です")
	ErrEmailRequired      = errors.New("メールアドレスは必須です")
	ErrPasswordRequired   = errors.New("パスワードは必須です")
	ErrFullNameRequired   = errors.New("氏名は必須です")
	ErrUsernameDuplicate  = errors.New("同じユーザー名が既に存在します")
	ErrEmailDuplicate     = errors.New("同じメールアドレスが既に存在します")
	ErrInvalidCredentials = errors.New("ユーザー名またはパスワードが正しくありません")
	ErrUserInactive       = errors.New("ユーザーは無効化されています")
)
