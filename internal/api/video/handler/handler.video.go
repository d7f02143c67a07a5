package videohdl

import (
	"strconv"

	basehdl "content_pipeline/internal/api/base/handler"
	videodto "content_pipeline/internal/api/video/dto"
	"content_pipeline/internal/api/video/models"
	videosvc "content_pipeline/internal/api/video/service"

	"github.com/gofiber/fiber/v3"
)

// VideoHandler xử lý các request HTTP cho video pipeline.
// CRUD chuẩn đi qua base handler; các thao tác trạng thái đi qua VideoService.
type VideoHandler struct {
	basehdl.BaseHandler[models.Video, videodto.VideoCreateInput]
	VideoService *videosvc.VideoService
}

// NewVideoHandler khởi tạo VideoHandler trên service
func NewVideoHandler(service *videosvc.VideoService) *VideoHandler {
	h := &VideoHandler{
		VideoService: service,
	}
	h.BaseService = service.BaseServiceMongoImpl
	return h
}

// actorFromCtx lấy danh tính actor từ Locals (gán bởi auth middleware)
func actorFromCtx(c fiber.Ctx) videosvc.Actor {
	actor := videosvc.Actor{}
	if id, ok := c.Locals("user_id").(string); ok {
		actor.ID = id
	}
	if role, ok := c.Locals("user_role").(string); ok {
		actor.Role = role
	}
	return actor
}

// correlationFromCtx lấy correlation id từ Locals (gán bởi correlation middleware)
func correlationFromCtx(c fiber.Ctx) string {
	if id, ok := c.Locals("correlation_id").(string); ok {
		return id
	}
	return ""
}

// UpdateStatus xử lý PATCH /videos/:id/status — chuyển trạng thái qua state machine
func (h *VideoHandler) UpdateStatus(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.ParseObjectIDParam(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input videodto.StatusUpdateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, basehdl.InvalidBodyError(err))
			return nil
		}
		if err := basehdl.ValidateStruct(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		result, err := h.VideoService.UpdateStatus(c.Context(), id, videosvc.StatusChange{
			Target:      input.Status,
			Note:        input.Note,
			Force:       input.Force,
			RepeatEvent: input.RepeatEvent,
		}, actorFromCtx(c), correlationFromCtx(c))
		h.HandleResponse(c, result, err)
		return nil
	})
}

// MarkPosted xử lý POST /videos/:id/mark-posted — đánh dấu video đã đăng
func (h *VideoHandler) MarkPosted(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.ParseObjectIDParam(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input videodto.MarkPostedInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, basehdl.InvalidBodyError(err))
			return nil
		}
		if err := basehdl.ValidateStruct(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		result, err := h.VideoService.MarkPosted(c.Context(), id, input.PostedURL, input.Platform, actorFromCtx(c), input.Force, correlationFromCtx(c))
		h.HandleResponse(c, result, err)
		return nil
	})
}

// Claim xử lý POST /videos/:id/claim — giành quyền làm việc trên video
func (h *VideoHandler) Claim(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.ParseObjectIDParam(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		// Body rỗng là hợp lệ (dùng TTL mặc định)
		input := videodto.ClaimInput{}
		if len(c.Body()) > 0 {
			if err := h.ParseRequestBody(c, &input); err != nil {
				h.HandleResponse(c, nil, basehdl.InvalidBodyError(err))
				return nil
			}
			if err := basehdl.ValidateStruct(&input); err != nil {
				h.HandleResponse(c, nil, err)
				return nil
			}
		}

		video, err := h.VideoService.Claim(c.Context(), id, actorFromCtx(c), input.TTLMinutes, correlationFromCtx(c))
		h.HandleResponse(c, video, err)
		return nil
	})
}

// Release xử lý POST /videos/:id/release — trả lại claim
func (h *VideoHandler) Release(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.ParseObjectIDParam(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		video, err := h.VideoService.Release(c.Context(), id, actorFromCtx(c), correlationFromCtx(c))
		h.HandleResponse(c, video, err)
		return nil
	})
}

// Assign xử lý POST /videos/:id/assign — giao video cho người phụ trách (chỉ admin)
func (h *VideoHandler) Assign(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.ParseObjectIDParam(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input videodto.AssignInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, basehdl.InvalidBodyError(err))
			return nil
		}
		if err := basehdl.ValidateStruct(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		previous, current, err := h.VideoService.Assign(c.Context(), id, input.AssignedTo, actorFromCtx(c), correlationFromCtx(c))
		h.HandleResponse(c, fiber.Map{
			"previous_assignee": previous,
			"current_assignee":  current,
		}, err)
		return nil
	})
}

// SetFinalAsset xử lý PUT /videos/:id/final-asset — gắn bản dựng cuối
func (h *VideoHandler) SetFinalAsset(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.ParseObjectIDParam(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input videodto.FinalAssetInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, basehdl.InvalidBodyError(err))
			return nil
		}
		if err := basehdl.ValidateStruct(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		video, err := h.VideoService.SetFinalAsset(c.Context(), id, input.FinalVideoURL, input.ThumbnailURL, actorFromCtx(c), correlationFromCtx(c))
		h.HandleResponse(c, video, err)
		return nil
	})
}

// SetRecordingStatus xử lý PUT /videos/:id/recording-status — cập nhật trạng thái quay thô
func (h *VideoHandler) SetRecordingStatus(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.ParseObjectIDParam(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input videodto.RecordingStatusInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, basehdl.InvalidBodyError(err))
			return nil
		}
		if err := basehdl.ValidateStruct(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		video, err := h.VideoService.SetRecordingStatus(c.Context(), id, input.RecordingStatus)
		h.HandleResponse(c, video, err)
		return nil
	})
}

// SetCompliance xử lý PUT /videos/:id/compliance — gắn/gỡ cờ compliance (chỉ admin)
func (h *VideoHandler) SetCompliance(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.ParseObjectIDParam(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input videodto.ComplianceInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, basehdl.InvalidBodyError(err))
			return nil
		}
		if err := basehdl.ValidateStruct(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		video, err := h.VideoService.SetCompliance(c.Context(), id, input.Flagged, input.Note, actorFromCtx(c))
		h.HandleResponse(c, video, err)
		return nil
	})
}

// ReadyToPost xử lý GET /videos/ready-to-post — danh sách video chờ đăng,
// chờ lâu nhất lên đầu.
func (h *VideoHandler) ReadyToPost(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		limit, err := strconv.ParseInt(c.Query("limit", "50"), 10, 64)
		if err != nil || limit <= 0 {
			limit = 50
		}

		videos, err := h.VideoService.FindReadyToPost(c.Context(), limit)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if videos == nil {
			videos = []models.Video{}
		}
		h.HandleResponse(c, videos, nil)
		return nil
	})
}
