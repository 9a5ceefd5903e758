package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/20r01a04l8/railway-management-system/internal/pkg/logger"
)

// JourneyCompleterService は旅程が終了した予約を完了状態にするインターフェース
type JourneyCompleterService interface {
	CompleteEndedJourneys(ctx context.Context) (int, error)
}

// JourneyCompleter は旅程終了後の確定予約を定期的に完了状態へ移すワーカー
type JourneyCompleter struct {
	bookingService JourneyCompleterService
	interval       time.Duration
	stopCh         chan struct{}
	doneCh         chan struct{}
}

// NewJourneyCompleter は新しいワーカーを作成
func NewJourneyCompleter(bs JourneyCompleterService, interval time.Duration) *JourneyCompleter {
	return &JourneyCompleter{
		bookingService: bs,
		interval:       interval,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start はワーカーを開始
func (w *JourneyCompleter) Start(ctx context.Context) {
	logger.Info("旅程完了ワーカー開始", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("旅程完了ワーカー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("旅程完了ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

// Stop はワーカーを停止
func (w *JourneyCompleter) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

func (w *JourneyCompleter) run(ctx context.Context) {
	log := logger.Get()
	log.Debug("旅程終了予約の完了処理開始")

	count, err := w.bookingService.CompleteEndedJourneys(ctx)
	if err != nil {
		log.Error("旅程終了予約の完了処理に失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("旅程終了予約を完了状態に更新", zap.Int("count", count))
	} else {
		log.Debug("完了対象の予約なし")
	}
}
