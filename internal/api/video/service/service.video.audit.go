package videosvc

import (
	"context"
	"time"

	"content_pipeline/internal/api/video/models"
	"content_pipeline/internal/logger"
	"content_pipeline/internal/metrics"
)

// writeEvent ghi audit event best-effort: transition đã commit thì không
// rollback vì ghi event lỗi. Event ghi fail được log + đếm metric để
// theo dõi lỗ hổng audit trail.
func (s *VideoService) writeEvent(ctx context.Context, ev models.VideoEvent) {
	if ev.At == 0 {
		ev.At = s.now()
	}

	if err := s.store.AppendEvent(ctx, ev); err != nil {
		metrics.AuditDropTotal.Inc()
		logger.GetErrorLogger().WithFields(map[string]interface{}{
			"video_id":       ev.VideoID.Hex(),
			"event_type":     ev.Type,
			"correlation_id": ev.CorrelationID,
		}).WithError(err).Error("Ghi audit event thất bại, transition vẫn giữ nguyên")
		// Rơi xuống audit log file để không mất dấu vết hoàn toàn
	}

	logger.LogAction(logger.AuditEntry{
		Action:        ev.Type,
		ActorID:       ev.ActorID,
		ActorRole:     ev.ActorRole,
		VideoID:       ev.VideoID.Hex(),
		CorrelationID: ev.CorrelationID,
		Details:       ev.Details,
		Timestamp:     time.UnixMilli(ev.At),
	})
}
