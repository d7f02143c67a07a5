// Package worker chứa các background worker chạy theo chu kỳ.
package worker

import (
	"context"
	"time"

	"content_pipeline/internal/api/video/models"
	videosvc "content_pipeline/internal/api/video/service"
	"content_pipeline/internal/logger"
	"content_pipeline/internal/notification"
)

// StaleVideoWorker quét định kỳ các video kẹt trạng thái quá lâu và báo
// người phụ trách. Worker này KHÔNG dọn claim hết hạn — claim xử lý lazy
// lúc đọc, không cần sweeper.
type StaleVideoWorker struct {
	store      videosvc.VideoStore
	dispatcher notification.Dispatcher

	staleAfter time.Duration
	interval   time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewStaleVideoWorker tạo worker với ngưỡng kẹt (giờ) và chu kỳ quét (phút)
func NewStaleVideoWorker(store videosvc.VideoStore, dispatcher notification.Dispatcher, staleHours int, intervalMinutes int) *StaleVideoWorker {
	return &StaleVideoWorker{
		store:      store,
		dispatcher: dispatcher,
		staleAfter: time.Duration(staleHours) * time.Hour,
		interval:   time.Duration(intervalMinutes) * time.Minute,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start chạy vòng quét trong goroutine riêng cho tới khi Stop được gọi
func (w *StaleVideoWorker) Start() {
	go func() {
		defer close(w.done)

		log := logger.GetAppLogger()
		log.WithFields(map[string]interface{}{
			"stale_after": w.staleAfter.String(),
			"interval":    w.interval.String(),
		}).Info("Stale video worker bắt đầu chạy")

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.stop:
				log.Info("Stale video worker dừng")
				return
			case <-ticker.C:
				w.sweep()
			}
		}
	}()
}

// Stop dừng worker và chờ vòng quét hiện tại kết thúc
func (w *StaleVideoWorker) Stop() {
	close(w.stop)
	<-w.done
}

// sweep tìm các video không terminal đứng yên quá ngưỡng và báo người phụ trách
func (w *StaleVideoWorker) sweep() {
	log := logger.GetAppLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-w.staleAfter).UnixMilli()
	stale, err := w.store.Find(ctx, map[string]interface{}{
		"status": map[string]interface{}{
			"$nin": []string{models.VideoStatusPosted, models.VideoStatusCancelled},
		},
		"lastStatusChangedAt": map[string]interface{}{
			"$lt": cutoff,
			"$gt": int64(0), // bỏ qua document chưa từng set lastStatusChangedAt
		},
	}, 0)
	if err != nil {
		log.WithError(err).Error("Quét video kẹt thất bại")
		return
	}
	if len(stale) == 0 {
		return
	}

	log.WithFields(map[string]interface{}{
		"count":  len(stale),
		"cutoff": cutoff,
	}).Warn("Phát hiện video kẹt trạng thái quá ngưỡng")

	for _, v := range stale {
		if v.AssignedTo == "" || w.dispatcher == nil {
			continue
		}
		if err := w.dispatcher.Notify(ctx, v.AssignedTo, "video_stale", v.ID.Hex(), map[string]interface{}{
			"title":                  v.Title,
			"status":                 v.Status,
			"last_status_changed_at": v.LastStatusChangedAt,
		}); err != nil {
			log.WithError(err).WithFields(map[string]interface{}{
				"video_id": v.ID.Hex(),
			}).Warn("Gửi cảnh báo video kẹt thất bại")
		}
	}
}
