package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventType định nghĩa các loại sự kiện audit của pipeline
const (
	EventStatusChanged = "status_changed"  // Chuyển trạng thái thành công
	EventStatusForced  = "status_forced"   // Chuyển trạng thái bằng force (admin)
	EventMarkedPosted  = "marked_posted"   // Đánh dấu đã đăng
	EventClaimAcquired = "claim_acquired"  // Giành được claim
	EventClaimReleased = "claim_released"  // Trả claim
	EventAssigned      = "assigned"        // Giao việc
	EventFinalAssetSet = "final_asset_set" // Gắn bản dựng cuối
)

// VideoEvent là một dòng audit append-only cho mỗi thay đổi trên video.
// Ghi event là best-effort: thất bại không làm fail thao tác chính.
type VideoEvent struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"` // ID của event

	VideoID       primitive.ObjectID     `json:"videoId" bson:"videoId"`                                   // ID video bị ảnh hưởng
	Type          string                 `json:"type" bson:"type"`                                         // Loại sự kiện
	ActorID       string                 `json:"actorId" bson:"actorId"`                                   // ID người thực hiện
	ActorRole     string                 `json:"actorRole,omitempty" bson:"actorRole,omitempty"`           // Vai trò người thực hiện
	FromStatus    string                 `json:"fromStatus,omitempty" bson:"fromStatus,omitempty"`         // Trạng thái trước (với status_changed)
	ToStatus      string                 `json:"toStatus,omitempty" bson:"toStatus,omitempty"`             // Trạng thái sau (với status_changed)
	CorrelationID string                 `json:"correlationId,omitempty" bson:"correlationId,omitempty"`   // ID truy vết request
	Details       map[string]interface{} `json:"details,omitempty" bson:"details,omitempty"`               // Chi tiết bổ sung (force, url, ...)
	At            int64                  `json:"at" bson:"at"`                                             // Thời điểm sự kiện (millis)

	// ===== TIMESTAMPS =====
	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian tạo
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật
}
