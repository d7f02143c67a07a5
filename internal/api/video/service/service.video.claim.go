package videosvc

import (
	"context"
	"errors"

	"content_pipeline/internal/api/video/models"
	"content_pipeline/internal/common"
	"content_pipeline/internal/metrics"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TTL claim (phút). Hết hạn xử lý lazy lúc đọc, không có sweeper.
const (
	ClaimTTLDefaultMinutes = 15
	ClaimTTLMinMinutes     = 1
	ClaimTTLMaxMinutes     = 1440
)

// Claim giành quyền làm việc trên video trong ttlMinutes phút.
// Điều kiện CAS: video chưa ai giữ HOẶC claim hiện tại đã quá hạn.
// Thua race / video đang bị giữ → CONFLICT kèm người giữ và hạn.
func (s *VideoService) Claim(ctx context.Context, videoID primitive.ObjectID, actor Actor, ttlMinutes int, correlationID string) (models.Video, error) {
	if ttlMinutes == 0 {
		ttlMinutes = ClaimTTLDefaultMinutes
	}
	if ttlMinutes < ClaimTTLMinMinutes || ttlMinutes > ClaimTTLMaxMinutes {
		return models.Video{}, common.NewError(
			common.ErrCodeValidationInput,
			"ttlMinutes phải trong khoảng [1, 1440]",
			common.StatusBadRequest,
			map[string]interface{}{
				"ttl_minutes": ttlMinutes,
			},
		)
	}

	now := s.now()
	expiresAt := now + int64(ttlMinutes)*60_000

	// Tiền đề "chưa ai giữ": claimedBy vắng mặt/rỗng, hoặc hạn đã qua.
	// Actor đang giữ claim của chính mình thì cho gia hạn luôn.
	preconditions := map[string]interface{}{
		"$or": []map[string]interface{}{
			{"claimedBy": map[string]interface{}{"$exists": false}},
			{"claimedBy": ""},
			{"claimedBy": actor.ID},
			{"claimExpiresAt": map[string]interface{}{"$lte": now}},
		},
	}

	updated, err := s.store.UpdateConditional(ctx, videoID, preconditions, map[string]interface{}{
		"claimedBy":      actor.ID,
		"claimedRole":    actor.Role,
		"claimedAt":      now,
		"claimExpiresAt": expiresAt,
	}, nil)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Không match: video không tồn tại hay đang bị người khác giữ?
			holder, rereadErr := s.store.FindByID(ctx, videoID)
			if rereadErr != nil {
				return models.Video{}, rereadErr
			}
			metrics.ClaimTotal.WithLabelValues("conflict").Inc()
			return models.Video{}, common.NewError(
				common.ErrCodeConflict,
				"Video đang được người khác giữ claim",
				common.StatusConflict,
				map[string]interface{}{
					"claimed_by":       holder.ClaimedBy,
					"claim_expires_at": holder.ClaimExpiresAt,
				},
			)
		}
		return models.Video{}, err
	}

	metrics.ClaimTotal.WithLabelValues("acquired").Inc()
	s.writeEvent(ctx, models.VideoEvent{
		VideoID:       videoID,
		Type:          models.EventClaimAcquired,
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		CorrelationID: correlationID,
		Details: map[string]interface{}{
			"ttl_minutes":      ttlMinutes,
			"claim_expires_at": expiresAt,
		},
		At: now,
	})

	return updated, nil
}

// Release trả lại claim trên video.
// Video không ai giữ → thành công no-op (release idempotent).
// Chỉ người đang giữ hoặc admin được release; người khác → FORBIDDEN.
func (s *VideoService) Release(ctx context.Context, videoID primitive.ObjectID, actor Actor, correlationID string) (models.Video, error) {
	video, err := s.store.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, err
	}

	now := s.now()
	if !video.ClaimActiveAt(now) {
		metrics.ClaimTotal.WithLabelValues("release_noop").Inc()
		return video, nil
	}

	if video.ClaimedBy != actor.ID && !actor.IsAdmin() {
		return models.Video{}, common.NewError(
			common.ErrCodeForbidden,
			"Chỉ người đang giữ claim hoặc admin được release",
			common.StatusForbidden,
			map[string]interface{}{
				"claimed_by": video.ClaimedBy,
			},
		)
	}

	// CAS trên đúng người giữ hiện tại để không xóa nhầm claim mới của
	// người khác (giữ cũ hết hạn, người mới vừa claim xong).
	updated, err := s.store.UpdateConditional(ctx, videoID, map[string]interface{}{
		"claimedBy": video.ClaimedBy,
	}, nil, map[string]interface{}{
		"claimedBy":      "",
		"claimedRole":    "",
		"claimedAt":      "",
		"claimExpiresAt": "",
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Claim đã đổi chủ giữa đọc và ghi: coi như claim cũ đã được
			// giải phóng, trả trạng thái mới nhất.
			return s.store.FindByID(ctx, videoID)
		}
		return models.Video{}, err
	}

	metrics.ClaimTotal.WithLabelValues("released").Inc()
	s.writeEvent(ctx, models.VideoEvent{
		VideoID:       videoID,
		Type:          models.EventClaimReleased,
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		CorrelationID: correlationID,
		Details: map[string]interface{}{
			"released_from": video.ClaimedBy,
		},
		At: now,
	})

	return updated, nil
}
