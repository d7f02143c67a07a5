package videodto

import (
	"content_pipeline/internal/api/video/models"
)

// EventQueryInput tồn tại để thỏa ràng buộc CreateInput của base handler.
// Collection events là read-only từ phía API (append chỉ đi qua service),
// route insert không bao giờ được đăng ký.
type EventQueryInput struct{}

// ToModel không bao giờ được gọi qua API
func (in EventQueryInput) ToModel() (models.VideoEvent, error) {
	return models.VideoEvent{}, nil
}
