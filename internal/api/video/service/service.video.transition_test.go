package videosvc

import (
	"context"
	"errors"
	"sync"
	"testing"

	"content_pipeline/internal/api/video/models"
	"content_pipeline/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testNow = int64(1_700_000_000_000)

func newTestService(store *fakeVideoStore) *VideoService {
	return newVideoServiceForTest(store, func() int64 { return testNow })
}

func editor() Actor   { return Actor{ID: "editor-1", Role: "editor"} }
func admin() Actor    { return Actor{ID: "admin-1", Role: RoleAdmin} }
func reviewer() Actor { return Actor{ID: "reviewer-1", Role: "reviewer"} }

// videoWith tạo video test với trạng thái cho trước
func videoWith(status string, mutate ...func(*models.Video)) models.Video {
	v := models.Video{
		ID:                  primitive.NewObjectID(),
		Title:               "Video test",
		Status:              status,
		RecordingStatus:     models.RecordingStatusNotStarted,
		LastStatusChangedAt: testNow - 1000,
	}
	for _, m := range mutate {
		m(&v)
	}
	return v
}

func withClaim(actorID string, expiresAt int64) func(*models.Video) {
	return func(v *models.Video) {
		v.ClaimedBy = actorID
		v.ClaimedRole = "editor"
		v.ClaimedAt = testNow - 5000
		v.ClaimExpiresAt = expiresAt
	}
}

func withFinalAsset() func(*models.Video) {
	return func(v *models.Video) {
		v.FinalVideoURL = "https://cdn.example.com/final.mp4"
	}
}

func TestAttemptTransition_ValidEdge(t *testing.T) {
	v := videoWith(models.VideoStatusNotRecorded)
	store := newFakeStore(v)
	svc := newTestService(store)

	result, err := svc.AttemptTransition(context.Background(), TransitionRequest{
		VideoID: v.ID,
		Target:  models.VideoStatusScriptReady,
		Actor:   editor(),
	})
	require.NoError(t, err)
	assert.Equal(t, models.VideoStatusNotRecorded, result.PreviousStatus)
	assert.Equal(t, models.VideoStatusScriptReady, result.NewStatus)
	assert.False(t, result.Idempotent)
	assert.Equal(t, testNow, result.Video.LastStatusChangedAt, "lastStatusChangedAt phải được cập nhật cùng status")

	events := store.eventsOfType(models.EventStatusChanged)
	require.Len(t, events, 1)
	assert.Equal(t, models.VideoStatusNotRecorded, events[0].FromStatus)
	assert.Equal(t, models.VideoStatusScriptReady, events[0].ToStatus)
}

func TestAttemptTransition_InvalidEdge_KhongDoiGi(t *testing.T) {
	v := videoWith(models.VideoStatusNotRecorded)
	store := newFakeStore(v)
	svc := newTestService(store)

	_, err := svc.AttemptTransition(context.Background(), TransitionRequest{
		VideoID: v.ID,
		Target:  models.VideoStatusReview, // not_recorded → review không có trong bảng
		Actor:   editor(),
	})
	require.Error(t, err)

	var customErr *common.Error
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, common.ErrCodeInvalidTransition.Code, customErr.Code.Code)
	assert.Equal(t, common.StatusBadRequest, customErr.StatusCode)

	// Details phải chứa trạng thái hiện tại và các đích hợp lệ để caller tự sửa
	assert.Equal(t, models.VideoStatusNotRecorded, customErr.Details["current_status"])
	assert.ElementsMatch(t, []string{
		models.VideoStatusScriptReady,
		models.VideoStatusRecording,
		models.VideoStatusEditing,
		models.VideoStatusCancelled,
	}, customErr.Details["allowed_next"])

	// Transition fail thì video giữ nguyên và không có event nào
	after, _ := store.FindByID(context.Background(), v.ID)
	assert.Equal(t, models.VideoStatusNotRecorded, after.Status)
	assert.Equal(t, v.LastStatusChangedAt, after.LastStatusChangedAt)
	assert.Equal(t, 0, store.eventCount())
}

func TestAttemptTransition_UnknownStatus(t *testing.T) {
	v := videoWith(models.VideoStatusEditing)
	store := newFakeStore(v)
	svc := newTestService(store)

	_, err := svc.AttemptTransition(context.Background(), TransitionRequest{
		VideoID: v.ID,
		Target:  "dang_bay",
		Actor:   editor(),
	})
	var customErr *common.Error
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, common.ErrCodeInvalidTransition.Code, customErr.Code.Code)
}

func TestAttemptTransition_IdempotentNoOp(t *testing.T) {
	v := videoWith(models.VideoStatusEditing)
	store := newFakeStore(v)
	svc := newTestService(store)

	result, err := svc.AttemptTransition(context.Background(), TransitionRequest{
		VideoID: v.ID,
		Target:  models.VideoStatusEditing,
		Actor:   editor(),
	})
	require.NoError(t, err)
	assert.True(t, result.Idempotent)
	assert.Equal(t, models.VideoStatusEditing, result.NewStatus)

	// No-op không ghi đè timestamp và mặc định không tạo event lặp
	after, _ := store.FindByID(context.Background(), v.ID)
	assert.Equal(t, v.LastStatusChangedAt, after.LastStatusChangedAt)
	assert.Equal(t, 0, store.eventCount())

	// Caller yêu cầu ghi nhận rõ thì no-op vẫn ghi một event đánh dấu lặp
	_, err = svc.AttemptTransition(context.Background(), TransitionRequest{
		VideoID:     v.ID,
		Target:      models.VideoStatusEditing,
		Actor:       editor(),
		RepeatEvent: true,
	})
	require.NoError(t, err)
	events := store.eventsOfType(models.EventStatusChanged)
	require.Len(t, events, 1)
	assert.Equal(t, true, events[0].Details["repeat"])
}

func TestAttemptTransition_TerminalKhongCoCanh(t *testing.T) {
	for _, terminal := range []string{models.VideoStatusPosted, models.VideoStatusCancelled} {
		v := videoWith(terminal)
		store := newFakeStore(v)
		svc := newTestService(store)

		_, err := svc.AttemptTransition(context.Background(), TransitionRequest{
			VideoID: v.ID,
			Target:  models.VideoStatusEditing,
			Actor:   editor(),
		})
		var customErr *common.Error
		require.True(t, errors.As(err, &customErr), "terminal %s phải từ chối transition", terminal)
		assert.Equal(t, common.ErrCodeInvalidTransition.Code, customErr.Code.Code)
		assert.Empty(t, customErr.Details["allowed_next"])
	}
}

func TestAttemptTransition_Force_ChiAdmin(t *testing.T) {
	v := videoWith(models.VideoStatusNotRecorded)
	store := newFakeStore(v)
	svc := newTestService(store)

	// Editor force → FORBIDDEN
	_, err := svc.AttemptTransition(context.Background(), TransitionRequest{
		VideoID: v.ID,
		Target:  models.VideoStatusReview,
		Actor:   editor(),
		Force:   true,
	})
	var customErr *common.Error
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, common.ErrCodeForbidden.Code, customErr.Code.Code)
	assert.Equal(t, 0, store.eventCount())

	// Admin force đi qua cạnh không có trong bảng, bỏ qua cả gates
	// (review là trạng thái đang xử lý nhưng admin không cần claim)
	result, err := svc.AttemptTransition(context.Background(), TransitionRequest{
		VideoID: v.ID,
		Target:  models.VideoStatusReview,
		Actor:   admin(),
		Force:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.VideoStatusReview, result.NewStatus)

	// Force luôn được audit bằng event riêng
	forced := store.eventsOfType(models.EventStatusForced)
	require.Len(t, forced, 1)
	assert.Equal(t, true, forced[0].Details["force"])
}

// staleReadStore mô phỏng writer thua race: lần đọc đầu trả về snapshot cũ
// (trạng thái đã bị writer khác đổi dưới chân), các lần sau đọc dữ liệu thật.
type staleReadStore struct {
	*fakeVideoStore
	stale models.Video
	reads int
	mu    sync.Mutex
}

func (s *staleReadStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.Video, error) {
	s.mu.Lock()
	first := s.reads == 0
	s.reads++
	s.mu.Unlock()
	if first && id == s.stale.ID {
		return s.stale, nil
	}
	return s.fakeVideoStore.FindByID(ctx, id)
}

func TestAttemptTransition_ThuaRace_Conflict(t *testing.T) {
	// Document thật đã sang review, nhưng writer này còn cầm snapshot editing
	current := videoWith(models.VideoStatusReview, withFinalAsset())
	stale := current
	stale.Status = models.VideoStatusEditing

	inner := newFakeStore(current)
	store := &staleReadStore{fakeVideoStore: inner, stale: stale}
	svc := newVideoServiceForTest(store, func() int64 { return testNow })

	_, err := svc.AttemptTransition(context.Background(), TransitionRequest{
		VideoID: current.ID,
		Target:  models.VideoStatusReadyToPost,
		Actor:   admin(),
	})
	require.Error(t, err)

	var customErr *common.Error
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, common.ErrCodeConflict.Code, customErr.Code.Code)
	assert.Equal(t, common.StatusConflict, customErr.StatusCode)
	assert.Equal(t, models.VideoStatusEditing, customErr.Details["expected_status"])
	assert.Equal(t, models.VideoStatusReview, customErr.Details["current_status"])

	// Thua race thì không được ghi đè mù và không có event
	after, _ := inner.FindByID(context.Background(), current.ID)
	assert.Equal(t, models.VideoStatusReview, after.Status)
	assert.Equal(t, 0, inner.eventCount())
}

func TestAttemptTransition_AuditFail_KhongChanTransition(t *testing.T) {
	v := videoWith(models.VideoStatusNotRecorded)
	store := newFakeStore(v)
	store.appendErr = errAppendFailed
	svc := newTestService(store)

	result, err := svc.AttemptTransition(context.Background(), TransitionRequest{
		VideoID: v.ID,
		Target:  models.VideoStatusScriptReady,
		Actor:   editor(),
	})
	require.NoError(t, err, "ghi audit lỗi không được làm fail transition đã commit")
	assert.Equal(t, models.VideoStatusScriptReady, result.NewStatus)

	after, _ := store.FindByID(context.Background(), v.ID)
	assert.Equal(t, models.VideoStatusScriptReady, after.Status)
}

func TestAttemptTransition_VideoKhongTonTai(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.AttemptTransition(context.Background(), TransitionRequest{
		VideoID: primitive.NewObjectID(),
		Target:  models.VideoStatusScriptReady,
		Actor:   editor(),
	})
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestAllowedNext_TraVeBanSao(t *testing.T) {
	next := AllowedNext(models.VideoStatusEditing)
	require.NotEmpty(t, next)
	next[0] = "pha_hoai"
	assert.NotEqual(t, "pha_hoai", AllowedNext(models.VideoStatusEditing)[0], "AllowedNext phải trả về bản sao, không để caller sửa bảng")

	assert.Empty(t, AllowedNext(models.VideoStatusPosted))
	assert.Empty(t, AllowedNext("khong_ton_tai"))
}

// Kịch bản quay ngoài hệ thống: video nhập liệu sau khi đã quay xong,
// đi thẳng not_recorded → editing rồi editing → posted khi đã đăng tay.
func TestPipeline_NhapLieuSauKhiQuay(t *testing.T) {
	v := videoWith(models.VideoStatusNotRecorded, withFinalAsset())
	store := newFakeStore(v)
	svc := newTestService(store)
	actor := admin()

	_, err := svc.AttemptTransition(context.Background(), TransitionRequest{
		VideoID: v.ID,
		Target:  models.VideoStatusEditing,
		Actor:   actor,
	})
	require.NoError(t, err, "not_recorded → editing phải là cạnh hợp lệ")

	result, err := svc.MarkPosted(context.Background(), v.ID, "https://tiktok.com/@kenh/video/123", "", actor, false, "corr-1")
	require.NoError(t, err, "editing → posted phải là cạnh hợp lệ")
	assert.Equal(t, models.VideoStatusPosted, result.NewStatus)
	assert.Equal(t, models.PlatformDefault, result.Video.Platform)
}
