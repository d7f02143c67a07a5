package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VideoStatus định nghĩa trạng thái của video trong pipeline sản xuất
const (
	VideoStatusNotRecorded = "not_recorded"  // Chưa quay
	VideoStatusScriptReady = "script_ready"  // Kịch bản đã sẵn sàng
	VideoStatusRecording   = "recording"     // Đang quay
	VideoStatusEditing     = "editing"       // Đang dựng
	VideoStatusReview      = "review"        // Đang duyệt
	VideoStatusRevision    = "revision"      // Cần sửa lại
	VideoStatusScheduled   = "scheduled"     // Đã lên lịch đăng
	VideoStatusReadyToPost = "ready_to_post" // Sẵn sàng đăng
	VideoStatusPosted      = "posted"        // Đã đăng (terminal)
	VideoStatusCancelled   = "cancelled"     // Đã hủy (terminal)
)

// RecordingStatus định nghĩa trạng thái quay thô (theo dõi song song với status chính)
const (
	RecordingStatusNotStarted = "not_started" // Chưa bắt đầu quay
	RecordingStatusInProgress = "in_progress" // Đang quay
	RecordingStatusDone       = "done"        // Đã quay xong
)

// PlatformDefault là platform mặc định khi mark-posted không chỉ định
const PlatformDefault = "tiktok"

// validStatuses là tập đóng các trạng thái hợp lệ
var validStatuses = map[string]bool{
	VideoStatusNotRecorded: true,
	VideoStatusScriptReady: true,
	VideoStatusRecording:   true,
	VideoStatusEditing:     true,
	VideoStatusReview:      true,
	VideoStatusRevision:    true,
	VideoStatusScheduled:   true,
	VideoStatusReadyToPost: true,
	VideoStatusPosted:      true,
	VideoStatusCancelled:   true,
}

// IsValidStatus kiểm tra status có nằm trong tập trạng thái hợp lệ không
func IsValidStatus(status string) bool {
	return validStatuses[status]
}

// IsTerminalStatus kiểm tra status có phải trạng thái kết thúc không.
// Video ở trạng thái terminal không nhận thêm transition thường nào.
func IsTerminalStatus(status string) bool {
	return status == VideoStatusPosted || status == VideoStatusCancelled
}

// IsInProgressStatus kiểm tra status có phải trạng thái đang xử lý không.
// Vào các trạng thái này yêu cầu actor đang giữ claim trên video.
func IsInProgressStatus(status string) bool {
	switch status {
	case VideoStatusRecording, VideoStatusEditing, VideoStatusReview, VideoStatusRevision:
		return true
	}
	return false
}

// Video đại diện cho một video trong pipeline sản xuất nội dung.
// Trạng thái chỉ thay đổi qua các endpoint nghiệp vụ với cập nhật có điều kiện,
// không bao giờ ghi đè trực tiếp qua CRUD.
type Video struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"` // ID của video

	// ===== CONTENT =====
	Title    string             `json:"title" bson:"title"`                           // Tiêu đề video
	ScriptID primitive.ObjectID `json:"scriptId,omitempty" bson:"scriptId,omitempty"` // ID kịch bản nguồn (tùy chọn)
	Note     string             `json:"note,omitempty" bson:"note,omitempty"`         // Ghi chú sản xuất

	// ===== SCRIPT LOCK =====
	// Khi video vào sản xuất, nội dung kịch bản được chụp lại để không bị
	// thay đổi dưới chân người quay.
	ScriptLockedText    string `json:"scriptLockedText,omitempty" bson:"scriptLockedText,omitempty"`       // Nội dung kịch bản đã chốt
	ScriptLockedVersion int    `json:"scriptLockedVersion,omitempty" bson:"scriptLockedVersion,omitempty"` // Phiên bản kịch bản đã chốt

	// ===== STATUS =====
	Status              string `json:"status" bson:"status"`                           // Trạng thái pipeline chính
	RecordingStatus     string `json:"recordingStatus" bson:"recordingStatus"`         // Trạng thái quay thô: not_started, in_progress, done
	LastStatusChangedAt int64  `json:"lastStatusChangedAt" bson:"lastStatusChangedAt"` // Thời điểm đổi trạng thái gần nhất (millis)

	// ===== ASSETS =====
	FinalVideoURL string `json:"finalVideoUrl,omitempty" bson:"finalVideoUrl,omitempty"` // URL bản dựng cuối (bắt buộc trước ready_to_post/posted)
	ThumbnailURL  string `json:"thumbnailUrl,omitempty" bson:"thumbnailUrl,omitempty"`   // URL thumbnail (tùy chọn)

	// ===== POSTING META =====
	PostedURL string `json:"postedUrl,omitempty" bson:"postedUrl,omitempty"` // URL bài đăng sau khi posted
	Platform  string `json:"platform,omitempty" bson:"platform,omitempty"`   // Nền tảng đăng (mặc định tiktok)
	PostedAt  int64  `json:"postedAt,omitempty" bson:"postedAt,omitempty"`   // Thời điểm đăng (millis)
	PostedBy  string `json:"postedBy,omitempty" bson:"postedBy,omitempty"`   // ID người đánh dấu đã đăng

	// ===== COMPLIANCE =====
	ComplianceFlagged bool   `json:"complianceFlagged" bson:"complianceFlagged"`               // Video đang bị cờ compliance, chặn mọi transition
	ComplianceNote    string `json:"complianceNote,omitempty" bson:"complianceNote,omitempty"` // Lý do bị cờ

	// ===== CLAIM =====
	ClaimedBy      string `json:"claimedBy,omitempty" bson:"claimedBy,omitempty"`           // ID actor đang giữ claim
	ClaimedRole    string `json:"claimedRole,omitempty" bson:"claimedRole,omitempty"`       // Vai trò lúc claim
	ClaimedAt      int64  `json:"claimedAt,omitempty" bson:"claimedAt,omitempty"`           // Thời điểm claim (millis)
	ClaimExpiresAt int64  `json:"claimExpiresAt,omitempty" bson:"claimExpiresAt,omitempty"` // Hạn claim (millis); quá hạn coi như không giữ

	// ===== ASSIGNMENT =====
	AssignedTo string `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"` // ID người được giao phụ trách
	AssignedAt int64  `json:"assignedAt,omitempty" bson:"assignedAt,omitempty"` // Thời điểm giao (millis)
	AssignedBy string `json:"assignedBy,omitempty" bson:"assignedBy,omitempty"` // ID người giao

	// ===== TIMESTAMPS =====
	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian tạo
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật
}

// ClaimActiveAt kiểm tra claim còn hiệu lực tại thời điểm now (millis).
// Claim hết hạn được xử lý lazy: không có sweeper, chỉ so hạn lúc đọc.
func (v *Video) ClaimActiveAt(now int64) bool {
	return v.ClaimedBy != "" && v.ClaimExpiresAt > now
}

// HeldBy kiểm tra actorID có đang giữ claim hiệu lực tại now không
func (v *Video) HeldBy(actorID string, now int64) bool {
	return v.ClaimActiveAt(now) && v.ClaimedBy == actorID
}
