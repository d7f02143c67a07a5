package videohdl

import (
	basehdl "content_pipeline/internal/api/base/handler"
	basesvc "content_pipeline/internal/api/base/service"
	videodto "content_pipeline/internal/api/video/dto"
	"content_pipeline/internal/api/video/models"
)

// EventHandler phục vụ truy vấn audit trail (read-only từ phía API).
// Event chỉ được ghi qua service trong cùng thao tác với transition.
type EventHandler = basehdl.BaseHandler[models.VideoEvent, videodto.EventQueryInput]

// NewEventHandler khởi tạo handler đọc events trên base service
func NewEventHandler(service basesvc.BaseServiceMongo[models.VideoEvent]) *EventHandler {
	return basehdl.NewBaseHandler[models.VideoEvent, videodto.EventQueryInput](service)
}
