package videosvc

import (
	"context"
	"errors"
	"testing"

	"content_pipeline/internal/api/video/models"
	"content_pipeline/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postedURL = "https://tiktok.com/@kenh/video/111"

func TestMarkPosted_TuReadyToPost(t *testing.T) {
	v := videoWith(models.VideoStatusReadyToPost, withFinalAsset())
	store := newFakeStore(v)
	svc := newTestService(store)
	actor := editor()

	result, err := svc.MarkPosted(context.Background(), v.ID, postedURL, "", actor, false, "corr-1")
	require.NoError(t, err)
	assert.Equal(t, models.VideoStatusPosted, result.NewStatus)

	// Posting meta ghi atomic cùng status trong một lần cập nhật
	after, _ := store.FindByID(context.Background(), v.ID)
	assert.Equal(t, models.VideoStatusPosted, after.Status)
	assert.Equal(t, postedURL, after.PostedURL)
	assert.Equal(t, models.PlatformDefault, after.Platform, "platform trống phải default về tiktok")
	assert.Equal(t, testNow, after.PostedAt)
	assert.Equal(t, actor.ID, after.PostedBy)

	events := store.eventsOfType(models.EventMarkedPosted)
	require.Len(t, events, 1)
	assert.Equal(t, postedURL, events[0].Details["posted_url"])
}

func TestMarkPosted_ThieuFinalAsset(t *testing.T) {
	v := videoWith(models.VideoStatusReadyToPost) // không có finalVideoUrl
	store := newFakeStore(v)
	svc := newTestService(store)

	_, err := svc.MarkPosted(context.Background(), v.ID, postedURL, "", editor(), false, "")
	var customErr *common.Error
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, common.ErrCodeFinalAssetRequired.Code, customErr.Code.Code)
}

func TestMarkPosted_RetryCungURL_Idempotent(t *testing.T) {
	v := videoWith(models.VideoStatusReadyToPost, withFinalAsset())
	store := newFakeStore(v)
	svc := newTestService(store)
	actor := editor()

	first, err := svc.MarkPosted(context.Background(), v.ID, postedURL, "", actor, false, "corr-1")
	require.NoError(t, err)
	snapshot := first.Video

	// Client timeout rồi retry cùng URL: thành công, không mutation,
	// nhưng mỗi lần gọi ghi đúng một event đánh dấu idempotent
	result, err := svc.MarkPosted(context.Background(), v.ID, postedURL, "", actor, false, "corr-1")
	require.NoError(t, err)
	assert.True(t, result.Idempotent)
	assert.Equal(t, models.VideoStatusPosted, result.NewStatus)

	after, _ := store.FindByID(context.Background(), v.ID)
	assert.Equal(t, snapshot.PostedAt, after.PostedAt, "retry không được mutation lại posting meta")
	assert.Equal(t, snapshot.PostedURL, after.PostedURL)

	events := store.eventsOfType(models.EventMarkedPosted)
	require.Len(t, events, 2, "mỗi lần gọi idempotent ghi thêm đúng một event")
	assert.Equal(t, true, events[1].Details["idempotent"])
}

func TestMarkPosted_KhacURL_Conflict(t *testing.T) {
	v := videoWith(models.VideoStatusPosted, withFinalAsset(), func(v *models.Video) {
		v.PostedURL = postedURL
		v.Platform = "tiktok"
	})
	store := newFakeStore(v)
	svc := newTestService(store)

	otherURL := "https://tiktok.com/@kenh/video/222"
	_, err := svc.MarkPosted(context.Background(), v.ID, otherURL, "", editor(), false, "")
	var customErr *common.Error
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, common.ErrCodeConflict.Code, customErr.Code.Code)
	// CONFLICT phải mang cả URL đã lưu lẫn URL yêu cầu để caller đối chiếu
	assert.Equal(t, postedURL, customErr.Details["existing_posted_url"])
	assert.Equal(t, otherURL, customErr.Details["requested_posted_url"])

	// Không ghi đè
	after, _ := store.FindByID(context.Background(), v.ID)
	assert.Equal(t, postedURL, after.PostedURL)
}

func TestMarkPosted_AdminForceGhiDe(t *testing.T) {
	v := videoWith(models.VideoStatusPosted, withFinalAsset(), func(v *models.Video) {
		v.PostedURL = postedURL
		v.Platform = "tiktok"
		v.PostedBy = "editor-1"
	})
	store := newFakeStore(v)
	svc := newTestService(store)

	newURL := "https://tiktok.com/@kenh/video/333"
	result, err := svc.MarkPosted(context.Background(), v.ID, newURL, "youtube", admin(), true, "corr-9")
	require.NoError(t, err)
	assert.Equal(t, models.VideoStatusPosted, result.NewStatus)
	assert.Equal(t, newURL, result.Video.PostedURL)
	assert.Equal(t, "youtube", result.Video.Platform)

	// Ghi đè forced phải audit cả URL cũ lẫn URL mới
	forced := store.eventsOfType(models.EventStatusForced)
	require.Len(t, forced, 1)
	assert.Equal(t, postedURL, forced[0].Details["overwritten_from_url"])
	assert.Equal(t, newURL, forced[0].Details["overwritten_to_url"])
}

func TestMarkPosted_EditorForceKhongDuocGhiDe(t *testing.T) {
	v := videoWith(models.VideoStatusPosted, withFinalAsset(), func(v *models.Video) {
		v.PostedURL = postedURL
	})
	store := newFakeStore(v)
	svc := newTestService(store)

	_, err := svc.MarkPosted(context.Background(), v.ID, "https://tiktok.com/@kenh/video/444", "", editor(), true, "")
	var customErr *common.Error
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, common.ErrCodeConflict.Code, customErr.Code.Code)
}

func TestMarkPosted_TuEditing_CanhHopLe(t *testing.T) {
	// editing → posted nằm trong bảng (đăng tay rồi mới đánh dấu)
	v := videoWith(models.VideoStatusEditing, withFinalAsset())
	store := newFakeStore(v)
	svc := newTestService(store)

	result, err := svc.MarkPosted(context.Background(), v.ID, postedURL, "", admin(), false, "")
	require.NoError(t, err)
	assert.Equal(t, models.VideoStatusEditing, result.PreviousStatus)
	assert.Equal(t, models.VideoStatusPosted, result.NewStatus)
}

func TestMarkPosted_TuScriptReady_KhongHopLe(t *testing.T) {
	v := videoWith(models.VideoStatusScriptReady, withFinalAsset())
	store := newFakeStore(v)
	svc := newTestService(store)

	_, err := svc.MarkPosted(context.Background(), v.ID, postedURL, "", editor(), false, "")
	var customErr *common.Error
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, common.ErrCodeInvalidTransition.Code, customErr.Code.Code)
}

func TestFindReadyToPost_SapTheoThoiGianVaoTrangThai(t *testing.T) {
	older := videoWith(models.VideoStatusReadyToPost, withFinalAsset(), func(v *models.Video) {
		v.Title = "video chờ lâu"
		v.LastStatusChangedAt = testNow - 100_000
	})
	newer := videoWith(models.VideoStatusReadyToPost, withFinalAsset(), func(v *models.Video) {
		v.Title = "video mới vào"
		v.LastStatusChangedAt = testNow - 10_000
	})
	other := videoWith(models.VideoStatusEditing)

	store := newFakeStore(newer, older, other)
	svc := newTestService(store)

	videos, err := svc.FindReadyToPost(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "video chờ lâu", videos[0].Title, "video chờ lâu nhất phải lên đầu")
	assert.Equal(t, "video mới vào", videos[1].Title)
}
