package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/20r01a04l8/railway-management-system/internal/domain/alert"
)

// AlertPublisherInterface はシステムアラートの配信インターフェース
type AlertPublisherInterface interface {
	Publish(ctx context.Context, a *alert.SystemAlert) error
	Close() error
}

// alertMessage はブローカーへ送信するメッセージ本体
type alertMessage struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
}

// AlertPublisher はシステムアラートをRabbitMQのfanoutエクスチェンジへ配信する
type AlertPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAlertPublisher はブローカーに接続しエクスチェンジを宣言する
func NewAlertPublisher(url, exchange string) (*AlertPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ接続に失敗: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("チャネル作成に失敗: %w", err)
	}
	// durable / autoDelete=false
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("エクスチェンジ宣言に失敗: %w", err)
	}
	return &AlertPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish はアラートをエクスチェンジへ送信する
// 配信失敗は呼び出し側でログに残すだけにとどめ、主処理は中断しない
func (p *AlertPublisher) Publish(ctx context.Context, a *alert.SystemAlert) error {
	body, err := json.Marshal(alertMessage{
		Type:      string(a.Type),
		Title:     a.Title,
		Message:   a.Message,
		Icon:      a.Icon,
		CreatedAt: a.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("アラートのシリアライズに失敗: %w", err)
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("アラート配信に失敗: %w", err)
	}
	return nil
}

// Close は接続を閉じる
func (p *AlertPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

var _ AlertPublisherInterface = (*AlertPublisher)(nil)
