// Package videosvc chứa state machine của pipeline video: chuyển trạng thái
// có điều kiện, gates, claim và audit trail.
package videosvc

import (
	"context"
	"time"

	basesvc "content_pipeline/internal/api/base/service"
	"content_pipeline/internal/api/video/models"
	"content_pipeline/internal/common"
	"content_pipeline/internal/notification"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vai trò actor
const (
	RoleAdmin = "admin"
)

// VideoCRUD và EventCRUD là bề mặt CRUD chuẩn trên hai collection pipeline
type (
	VideoCRUD = basesvc.BaseServiceMongo[models.Video]
	EventCRUD = basesvc.BaseServiceMongo[models.VideoEvent]
)

// Actor là danh tính người thực hiện thao tác, lấy từ JWT middleware
type Actor struct {
	ID   string // ID người dùng
	Role string // Vai trò (editor, reviewer, admin, ...)
}

// IsAdmin kiểm tra actor có vai trò admin không
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// VideoService là service nghiệp vụ chính của pipeline.
// Embed base service để handler dùng lại CRUD chuẩn; logic trạng thái
// đi qua store với cập nhật có điều kiện.
type VideoService struct {
	*basesvc.BaseServiceMongoImpl[models.Video]

	store      VideoStore
	dispatcher notification.Dispatcher

	// now cho phép test điều khiển thời gian (millis)
	now func() int64
}

// NewVideoService tạo service trên base service + store + dispatcher
func NewVideoService(base *basesvc.BaseServiceMongoImpl[models.Video], store VideoStore, dispatcher notification.Dispatcher) *VideoService {
	return &VideoService{
		BaseServiceMongoImpl: base,
		store:                store,
		dispatcher:           dispatcher,
		now:                  func() int64 { return time.Now().UnixMilli() },
	}
}

// newVideoServiceForTest tạo service chỉ với store, dùng trong unit test
func newVideoServiceForTest(store VideoStore, now func() int64) *VideoService {
	return &VideoService{
		store:      store,
		dispatcher: nil,
		now:        now,
	}
}

// FindReadyToPost trả về các video đang ở trạng thái ready_to_post,
// sắp theo thời điểm vào trạng thái (video chờ lâu nhất lên đầu).
func (s *VideoService) FindReadyToPost(ctx context.Context, limit int64) ([]models.Video, error) {
	return s.store.Find(ctx, map[string]interface{}{
		"status": models.VideoStatusReadyToPost,
	}, limit)
}

// Assign giao video cho một người phụ trách. Chỉ admin được giao việc.
func (s *VideoService) Assign(ctx context.Context, videoID primitive.ObjectID, assigneeID string, actor Actor, correlationID string) (previous string, current string, err error) {
	if !actor.IsAdmin() {
		return "", "", common.NewError(
			common.ErrCodeForbidden,
			"Chỉ admin được giao video",
			common.StatusForbidden,
			nil,
		)
	}

	video, err := s.store.FindByID(ctx, videoID)
	if err != nil {
		return "", "", err
	}
	previous = video.AssignedTo

	now := s.now()
	updated, err := s.store.UpdateConditional(ctx, videoID, nil, map[string]interface{}{
		"assignedTo": assigneeID,
		"assignedAt": now,
		"assignedBy": actor.ID,
	}, nil)
	if err != nil {
		return "", "", err
	}

	s.writeEvent(ctx, models.VideoEvent{
		VideoID:       videoID,
		Type:          models.EventAssigned,
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		CorrelationID: correlationID,
		Details: map[string]interface{}{
			"previous_assignee": previous,
			"new_assignee":      assigneeID,
		},
		At: now,
	})

	s.notify(assigneeID, "video_assigned", videoID, map[string]interface{}{
		"title":       updated.Title,
		"assigned_by": actor.ID,
	})

	return previous, updated.AssignedTo, nil
}

// SetFinalAsset gắn URL bản dựng cuối cho video.
// Điều kiện để qua gate FINAL_ASSET_REQUIRED khi vào ready_to_post/posted.
func (s *VideoService) SetFinalAsset(ctx context.Context, videoID primitive.ObjectID, finalURL string, thumbnailURL string, actor Actor, correlationID string) (models.Video, error) {
	set := map[string]interface{}{
		"finalVideoUrl": finalURL,
	}
	if thumbnailURL != "" {
		set["thumbnailUrl"] = thumbnailURL
	}

	updated, err := s.store.UpdateConditional(ctx, videoID, nil, set, nil)
	if err != nil {
		return models.Video{}, err
	}

	s.writeEvent(ctx, models.VideoEvent{
		VideoID:       videoID,
		Type:          models.EventFinalAssetSet,
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		CorrelationID: correlationID,
		Details: map[string]interface{}{
			"final_video_url": finalURL,
		},
		At: s.now(),
	})

	return updated, nil
}

// SetRecordingStatus cập nhật trạng thái quay thô (theo dõi song song, không qua bảng chuyển)
func (s *VideoService) SetRecordingStatus(ctx context.Context, videoID primitive.ObjectID, recordingStatus string) (models.Video, error) {
	return s.store.UpdateConditional(ctx, videoID, nil, map[string]interface{}{
		"recordingStatus": recordingStatus,
	}, nil)
}

// SetCompliance gắn hoặc gỡ cờ compliance. Chỉ admin.
// Video đang bị cờ sẽ bị chặn mọi transition cho tới khi gỡ.
func (s *VideoService) SetCompliance(ctx context.Context, videoID primitive.ObjectID, flagged bool, note string, actor Actor) (models.Video, error) {
	if !actor.IsAdmin() {
		return models.Video{}, common.NewError(
			common.ErrCodeForbidden,
			"Chỉ admin được thay đổi cờ compliance",
			common.StatusForbidden,
			nil,
		)
	}

	set := map[string]interface{}{
		"complianceFlagged": flagged,
	}
	var unset map[string]interface{}
	if flagged {
		set["complianceNote"] = note
	} else {
		unset = map[string]interface{}{"complianceNote": ""}
	}

	return s.store.UpdateConditional(ctx, videoID, nil, set, unset)
}

// notify gửi thông báo fire-and-forget, nuốt lỗi (best-effort)
func (s *VideoService) notify(userID string, eventType string, videoID primitive.ObjectID, payload map[string]interface{}) {
	if s.dispatcher == nil || userID == "" {
		return
	}
	go func() {
		defer func() { recover() }()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.dispatcher.Notify(ctx, userID, eventType, videoID.Hex(), payload)
	}()
}
