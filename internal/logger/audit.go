package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditEntry mô tả một dòng audit ghi vào audit.log.
// Audit log là bản sao best-effort của collection events — mất log không
// làm fail thao tác nghiệp vụ.
type AuditEntry struct {
	Action        string                 `json:"action"`         // Loại sự kiện (status_changed, claim_acquired, ...)
	ActorID       string                 `json:"actor_id"`       // ID người thực hiện
	ActorRole     string                 `json:"actor_role"`     // Vai trò người thực hiện
	VideoID       string                 `json:"video_id"`       // ID video bị ảnh hưởng
	CorrelationID string                 `json:"correlation_id"` // ID truy vết xuyên suốt request
	Details       map[string]interface{} `json:"details"`        // Chi tiết bổ sung (from, to, force, ...)
	Timestamp     time.Time              `json:"timestamp"`      // Thời gian
}

// LogAction ghi một entry vào audit logger
func LogAction(entry AuditEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	GetAuditLogger().WithFields(logrus.Fields{
		"action":         entry.Action,
		"actor_id":       entry.ActorID,
		"actor_role":     entry.ActorRole,
		"video_id":       entry.VideoID,
		"correlation_id": entry.CorrelationID,
		"details":        entry.Details,
		"timestamp":      entry.Timestamp,
	}).Info("Audit log")
}
