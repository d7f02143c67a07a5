package videodto

import (
	"content_pipeline/internal/api/video/models"
	"content_pipeline/internal/utility"
)

// VideoCreateInput dữ liệu đầu vào khi tạo video
type VideoCreateInput struct {
	Title        string `json:"title" validate:"required,no_xss"`
	ScriptID     string `json:"scriptId,omitempty"`
	Note         string `json:"note,omitempty" validate:"omitempty,no_xss"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty" validate:"omitempty,http_url"`
	AssignedTo   string `json:"assignedTo,omitempty"`
	// Snapshot kịch bản tại thời điểm duyệt vào pipeline —
	// kịch bản sửa sau đó không ảnh hưởng video đã tạo
	ScriptLockedText    string `json:"scriptLockedText,omitempty"`
	ScriptLockedVersion int    `json:"scriptLockedVersion,omitempty" validate:"omitempty,min=0"`
}

// ToModel chuyển DTO tạo mới thành model với trạng thái khởi tạo
func (in VideoCreateInput) ToModel() (models.Video, error) {
	v := models.Video{
		Title:               in.Title,
		Note:                in.Note,
		ThumbnailURL:        in.ThumbnailURL,
		AssignedTo:          in.AssignedTo,
		ScriptLockedText:    in.ScriptLockedText,
		ScriptLockedVersion: in.ScriptLockedVersion,
		Status:              models.VideoStatusNotRecorded,
		RecordingStatus:     models.RecordingStatusNotStarted,
	}
	if in.ScriptID != "" {
		v.ScriptID = utility.String2ObjectID(in.ScriptID)
	}
	return v, nil
}

// StatusUpdateInput dữ liệu đầu vào khi chuyển trạng thái video
type StatusUpdateInput struct {
	Status      string `json:"status" validate:"required"` // Trạng thái đích
	Force       bool   `json:"force,omitempty"`            // Bỏ qua bảng chuyển và gates (chỉ admin)
	RepeatEvent bool   `json:"repeatEvent,omitempty"`      // No-op vẫn ghi event đánh dấu lặp
	Note        string `json:"note,omitempty" validate:"omitempty,no_xss"`
}

// MarkPostedInput dữ liệu đầu vào khi đánh dấu video đã đăng
type MarkPostedInput struct {
	PostedURL string `json:"postedUrl" validate:"required,http_url"` // URL bài đăng
	Platform  string `json:"platform,omitempty"`                     // Nền tảng, mặc định tiktok
	Force     bool   `json:"force,omitempty"`                        // Bỏ qua bảng chuyển và gates (chỉ admin)
}

// ClaimInput dữ liệu đầu vào khi claim video
type ClaimInput struct {
	TTLMinutes int `json:"ttlMinutes,omitempty" validate:"omitempty,min=1,max=1440"` // Thời gian giữ claim (phút), mặc định 15
}

// AssignInput dữ liệu đầu vào khi giao video cho một người phụ trách
type AssignInput struct {
	AssignedTo string `json:"assignedTo" validate:"required"` // ID người được giao
}

// FinalAssetInput dữ liệu đầu vào khi gắn bản dựng cuối
type FinalAssetInput struct {
	FinalVideoURL string `json:"finalVideoUrl" validate:"required,http_url"` // URL bản dựng cuối
	ThumbnailURL  string `json:"thumbnailUrl,omitempty" validate:"omitempty,http_url"`
}

// RecordingStatusInput dữ liệu đầu vào khi cập nhật trạng thái quay thô
type RecordingStatusInput struct {
	RecordingStatus string `json:"recordingStatus" validate:"required,oneof=not_started in_progress done"`
}

// ComplianceInput dữ liệu đầu vào khi gắn/gỡ cờ compliance (chỉ admin)
type ComplianceInput struct {
	Flagged bool   `json:"flagged"`                                    // true = gắn cờ, false = gỡ cờ
	Note    string `json:"note,omitempty" validate:"omitempty,no_xss"` // Lý do
}
