package videosvc

import (
	"context"

	"content_pipeline/internal/api/video/models"
	"content_pipeline/internal/common"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MarkPosted đánh dấu video đã đăng lên nền tảng, ghi posting meta atomic
// cùng transition sang posted.
//
// Idempotency: video đã posted với cùng postedUrl → thành công, không đổi
// gì, không lặp event mutation. Khác postedUrl → CONFLICT, trừ khi admin
// force thì ghi đè và audit cả URL cũ lẫn mới.
func (s *VideoService) MarkPosted(ctx context.Context, videoID primitive.ObjectID, postedURL string, platform string, actor Actor, force bool, correlationID string) (TransitionResult, error) {
	if platform == "" {
		platform = models.PlatformDefault
	}

	video, err := s.store.FindByID(ctx, videoID)
	if err != nil {
		return TransitionResult{}, err
	}

	if video.Status == models.VideoStatusPosted {
		if video.PostedURL == postedURL {
			// Retry của chính request đã thành công: trả thành công y nguyên,
			// không mutation nhưng vẫn ghi event đánh dấu idempotent để audit
			// trail thấy được từng lần gọi.
			s.writeEvent(ctx, models.VideoEvent{
				VideoID:       videoID,
				Type:          models.EventMarkedPosted,
				ActorID:       actor.ID,
				ActorRole:     actor.Role,
				FromStatus:    models.VideoStatusPosted,
				ToStatus:      models.VideoStatusPosted,
				CorrelationID: correlationID,
				Details: map[string]interface{}{
					"idempotent": true,
					"posted_url": postedURL,
				},
				At: s.now(),
			})
			return TransitionResult{
				PreviousStatus: models.VideoStatusPosted,
				NewStatus:      models.VideoStatusPosted,
				Idempotent:     true,
				Video:          video,
			}, nil
		}

		if !force || !actor.IsAdmin() {
			return TransitionResult{}, common.NewError(
				common.ErrCodeConflict,
				"Video đã được đánh dấu đăng với URL khác",
				common.StatusConflict,
				map[string]interface{}{
					"existing_posted_url":  video.PostedURL,
					"requested_posted_url": postedURL,
				},
			)
		}

		// Admin force ghi đè posting meta trên video đã posted
		now := s.now()
		updated, err := s.store.UpdateConditional(ctx, videoID, map[string]interface{}{
			"status":    models.VideoStatusPosted,
			"postedUrl": video.PostedURL,
		}, map[string]interface{}{
			"postedUrl": postedURL,
			"platform":  platform,
			"postedAt":  now,
			"postedBy":  actor.ID,
		}, nil)
		if err != nil {
			return TransitionResult{}, err
		}

		s.writeEvent(ctx, models.VideoEvent{
			VideoID:       videoID,
			Type:          models.EventStatusForced,
			ActorID:       actor.ID,
			ActorRole:     actor.Role,
			FromStatus:    models.VideoStatusPosted,
			ToStatus:      models.VideoStatusPosted,
			CorrelationID: correlationID,
			Details: map[string]interface{}{
				"force":                true,
				"overwritten_from_url": video.PostedURL,
				"overwritten_to_url":   postedURL,
			},
			At: now,
		})

		return TransitionResult{
			PreviousStatus: models.VideoStatusPosted,
			NewStatus:      models.VideoStatusPosted,
			Video:          updated,
		}, nil
	}

	// Video chưa posted: đi qua state machine chung, posting meta ghi
	// atomic cùng status trong một lần CAS.
	return s.AttemptTransition(ctx, TransitionRequest{
		VideoID:       videoID,
		Target:        models.VideoStatusPosted,
		Actor:         actor,
		CorrelationID: correlationID,
		Force:         force,
		EventType:     models.EventMarkedPosted,
		Updates: StatusUpdate{
			PostedURL: postedURL,
			Platform:  platform,
			PostedAt:  s.now(),
			PostedBy:  actor.ID,
		},
	})
}
