package videosvc

import (
	"context"
	"errors"
	"fmt"

	"content_pipeline/internal/api/video/models"
	"content_pipeline/internal/common"
	"content_pipeline/internal/metrics"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// transitionTable là bảng cạnh đóng của state machine.
// Cặp (from, to) không có trong bảng → INVALID_TRANSITION.
// Terminal (posted, cancelled) không có cạnh đi ra.
var transitionTable = map[string][]string{
	models.VideoStatusNotRecorded: {
		models.VideoStatusScriptReady,
		models.VideoStatusRecording,
		models.VideoStatusEditing, // quay ngoài hệ thống rồi mới nhập liệu
		models.VideoStatusCancelled,
	},
	models.VideoStatusScriptReady: {
		models.VideoStatusRecording,
		models.VideoStatusEditing,
		models.VideoStatusCancelled,
	},
	models.VideoStatusRecording: {
		models.VideoStatusEditing,
		models.VideoStatusCancelled,
	},
	models.VideoStatusEditing: {
		models.VideoStatusReview,
		models.VideoStatusReadyToPost,
		models.VideoStatusScheduled,
		models.VideoStatusPosted, // đăng tay rồi mới đánh dấu
		models.VideoStatusCancelled,
	},
	models.VideoStatusReview: {
		models.VideoStatusRevision,
		models.VideoStatusEditing,
		models.VideoStatusScheduled,
		models.VideoStatusReadyToPost,
		models.VideoStatusCancelled,
	},
	models.VideoStatusRevision: {
		models.VideoStatusEditing,
		models.VideoStatusCancelled,
	},
	models.VideoStatusScheduled: {
		models.VideoStatusReadyToPost,
		models.VideoStatusPosted,
		models.VideoStatusCancelled,
	},
	models.VideoStatusReadyToPost: {
		models.VideoStatusPosted,
		models.VideoStatusScheduled,
		models.VideoStatusCancelled,
	},
	models.VideoStatusPosted:    {},
	models.VideoStatusCancelled: {},
}

// AllowedNext trả về các trạng thái đích hợp lệ từ status hiện tại.
// Trả về slice rỗng (không nil) cho terminal và status lạ để JSON ra [].
func AllowedNext(status string) []string {
	next, ok := transitionTable[status]
	if !ok || next == nil {
		return []string{}
	}
	out := make([]string, len(next))
	copy(out, next)
	return out
}

// isAllowedEdge kiểm tra cạnh (from, to) có trong bảng không
func isAllowedEdge(from string, to string) bool {
	for _, next := range transitionTable[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusUpdate là các field bổ sung được ghi atomic cùng status trong
// một lần cập nhật (mark-posted ghi posting meta cùng transition).
type StatusUpdate struct {
	PostedURL string
	Platform  string
	PostedAt  int64
	PostedBy  string
	Note      string
}

// set gom các field khác zero của StatusUpdate vào map $set
func (u StatusUpdate) set(m map[string]interface{}) {
	if u.PostedURL != "" {
		m["postedUrl"] = u.PostedURL
	}
	if u.Platform != "" {
		m["platform"] = u.Platform
	}
	if u.PostedAt != 0 {
		m["postedAt"] = u.PostedAt
	}
	if u.PostedBy != "" {
		m["postedBy"] = u.PostedBy
	}
	if u.Note != "" {
		m["note"] = u.Note
	}
}

// TransitionRequest mô tả một yêu cầu chuyển trạng thái
type TransitionRequest struct {
	VideoID       primitive.ObjectID
	Target        string // Trạng thái đích
	Actor         Actor
	CorrelationID string
	Force         bool // Bỏ qua bảng cạnh VÀ gates (chỉ admin, luôn audit riêng)
	RepeatEvent   bool // No-op (target == current) vẫn ghi một event đánh dấu lặp
	Updates       StatusUpdate
	EventType     string // Mặc định status_changed; mark-posted truyền marked_posted
}

// TransitionResult là kết quả của một transition thành công
type TransitionResult struct {
	PreviousStatus string       `json:"previousStatus"`
	NewStatus      string       `json:"newStatus"`
	Idempotent     bool         `json:"idempotent"` // true khi target == current, không đổi gì
	Video          models.Video `json:"video"`
}

// AttemptTransition thực hiện một lần chuyển trạng thái:
//
//	đọc → kiểm tra cạnh → gates → CAS trên status hiện tại → audit event.
//
// Thứ tự kiểm tra cố định: cạnh trước, gates sau. Fail ở bất kỳ bước nào
// thì video không bị đổi một field nào và không có event được ghi.
// Thua race CAS trả về CONFLICT, caller retry được vì request không đổi.
func (s *VideoService) AttemptTransition(ctx context.Context, req TransitionRequest) (TransitionResult, error) {
	if !models.IsValidStatus(req.Target) {
		metrics.TransitionTotal.WithLabelValues("", req.Target, "rejected").Inc()
		return TransitionResult{}, common.NewError(
			common.ErrCodeInvalidTransition,
			fmt.Sprintf("Trạng thái %q không tồn tại", req.Target),
			common.StatusBadRequest,
			map[string]interface{}{
				"target_status": req.Target,
			},
		)
	}

	video, err := s.store.FindByID(ctx, req.VideoID)
	if err != nil {
		return TransitionResult{}, err
	}
	current := video.Status
	now := s.now()

	// Idempotent no-op: đích trùng hiện tại thì thành công, không ghi đè.
	// Mặc định không tạo event lặp, trừ khi caller yêu cầu ghi nhận rõ.
	if req.Target == current {
		metrics.TransitionTotal.WithLabelValues(current, req.Target, "noop").Inc()
		if req.RepeatEvent {
			s.writeEvent(ctx, models.VideoEvent{
				VideoID:       req.VideoID,
				Type:          models.EventStatusChanged,
				ActorID:       req.Actor.ID,
				ActorRole:     req.Actor.Role,
				FromStatus:    current,
				ToStatus:      current,
				CorrelationID: req.CorrelationID,
				Details: map[string]interface{}{
					"repeat": true,
				},
				At: now,
			})
		}
		return TransitionResult{
			PreviousStatus: current,
			NewStatus:      current,
			Idempotent:     true,
			Video:          video,
		}, nil
	}

	// Force: chỉ admin, bỏ qua cả bảng cạnh lẫn gates
	if req.Force && !req.Actor.IsAdmin() {
		return TransitionResult{}, common.NewError(
			common.ErrCodeForbidden,
			"Chỉ admin được dùng force",
			common.StatusForbidden,
			nil,
		)
	}

	if !req.Force {
		if !isAllowedEdge(current, req.Target) {
			metrics.TransitionTotal.WithLabelValues(current, req.Target, "rejected").Inc()
			return TransitionResult{}, common.NewError(
				common.ErrCodeInvalidTransition,
				fmt.Sprintf("Không thể chuyển từ %s sang %s", current, req.Target),
				common.StatusBadRequest,
				map[string]interface{}{
					"current_status": current,
					"allowed_next":   AllowedNext(current),
				},
			)
		}

		if gateErr := evaluateGates(gateInput{
			current: current,
			target:  req.Target,
			video:   video,
			actor:   req.Actor,
			updates: req.Updates,
			now:     now,
		}); gateErr != nil {
			metrics.TransitionTotal.WithLabelValues(current, req.Target, "rejected").Inc()
			return TransitionResult{}, gateErr
		}
	}

	// CAS: tiền đề là status ĐÚNG BẰNG status vừa đọc. Một writer khác chen
	// vào giữa đọc và ghi thì filter không match, không có ghi đè mù.
	set := map[string]interface{}{
		"status":              req.Target,
		"lastStatusChangedAt": now,
	}
	req.Updates.set(set)

	updated, err := s.store.UpdateConditional(ctx, req.VideoID, map[string]interface{}{
		"status": current,
	}, set, nil)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Không match: video biến mất hay thua race? Đọc lại để phân giải.
			reread, rereadErr := s.store.FindByID(ctx, req.VideoID)
			if rereadErr != nil {
				return TransitionResult{}, rereadErr
			}
			metrics.ConflictTotal.Inc()
			metrics.TransitionTotal.WithLabelValues(current, req.Target, "conflict").Inc()
			return TransitionResult{}, common.NewError(
				common.ErrCodeConflict,
				"Trạng thái video đã bị thay đổi bởi thao tác khác, thử lại với trạng thái mới",
				common.StatusConflict,
				map[string]interface{}{
					"expected_status": current,
					"current_status":  reread.Status,
				},
			)
		}
		return TransitionResult{}, err
	}

	metrics.TransitionTotal.WithLabelValues(current, req.Target, "applied").Inc()

	eventType := req.EventType
	if eventType == "" {
		eventType = models.EventStatusChanged
	}
	details := map[string]interface{}{}
	if req.Force {
		eventType = models.EventStatusForced
		details["force"] = true
	}
	if req.Updates.Note != "" {
		details["note"] = req.Updates.Note
	}
	if req.Updates.PostedURL != "" {
		details["posted_url"] = req.Updates.PostedURL
	}
	s.writeEvent(ctx, models.VideoEvent{
		VideoID:       req.VideoID,
		Type:          eventType,
		ActorID:       req.Actor.ID,
		ActorRole:     req.Actor.Role,
		FromStatus:    current,
		ToStatus:      req.Target,
		CorrelationID: req.CorrelationID,
		Details:       details,
		At:            now,
	})

	// Báo người phụ trách khi video của họ đổi trạng thái bởi người khác
	if updated.AssignedTo != "" && updated.AssignedTo != req.Actor.ID {
		s.notify(updated.AssignedTo, "video_status_changed", req.VideoID, map[string]interface{}{
			"from_status": current,
			"to_status":   req.Target,
			"actor_id":    req.Actor.ID,
		})
	}

	return TransitionResult{
		PreviousStatus: current,
		NewStatus:      req.Target,
		Video:          updated,
	}, nil
}

// UpdateStatus là entrypoint cho PATCH /videos/:id/status
func (s *VideoService) UpdateStatus(ctx context.Context, videoID primitive.ObjectID, in StatusChange, actor Actor, correlationID string) (TransitionResult, error) {
	return s.AttemptTransition(ctx, TransitionRequest{
		VideoID:       videoID,
		Target:        in.Target,
		Actor:         actor,
		CorrelationID: correlationID,
		Force:         in.Force,
		RepeatEvent:   in.RepeatEvent,
		Updates:       StatusUpdate{Note: in.Note},
	})
}

// StatusChange là tham số cập nhật trạng thái từ API
type StatusChange struct {
	Target      string
	Note        string
	Force       bool
	RepeatEvent bool
}
