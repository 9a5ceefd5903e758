package alert

import "time"

// Type はアラートの種別を表す
type Type string

const (
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
	TypeDanger  Type = "danger"
	TypeSuccess Type = "success"
)

// SystemAlert は管理画面に表示するシステムアラートを表す
type SystemAlert struct {
	ID          string
	Type        Type
	Title       string
	Message     string
	Icon        string
	Dismissible bool
	IsActive    bool
	CreatedAt   time.Time
}

// New は新しいシステムアラートを作成する
func New(alertType Type, title, message, icon string) *SystemAlert {
	if icon == "" {
		icon = "info-circle"
	}
	return &SystemAlert{
		Type:        alertType,
		Title:       title,
		Message:     message,
		Icon:        icon,
		Dismissible: true,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
}
