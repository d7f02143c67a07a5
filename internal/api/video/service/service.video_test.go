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

func TestAssign_ChiAdmin(t *testing.T) {
	v := videoWith(models.VideoStatusNotRecorded)
	store := newFakeStore(v)
	svc := newTestService(store)

	_, _, err := svc.Assign(context.Background(), v.ID, "editor-2", editor(), "")
	var customErr *common.Error
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, common.ErrCodeForbidden.Code, customErr.Code.Code)
	assert.Equal(t, 0, store.eventCount())
}

func TestAssign_GiaoVaGiaoLai(t *testing.T) {
	v := videoWith(models.VideoStatusNotRecorded)
	store := newFakeStore(v)
	svc := newTestService(store)

	previous, current, err := svc.Assign(context.Background(), v.ID, "editor-2", admin(), "corr-1")
	require.NoError(t, err)
	assert.Empty(t, previous)
	assert.Equal(t, "editor-2", current)

	after, _ := store.FindByID(context.Background(), v.ID)
	assert.Equal(t, "editor-2", after.AssignedTo)
	assert.Equal(t, "admin-1", after.AssignedBy)
	assert.Equal(t, testNow, after.AssignedAt)

	// Giao lại cho người khác: event phải ghi cả người cũ lẫn người mới
	previous, current, err = svc.Assign(context.Background(), v.ID, "editor-3", admin(), "corr-2")
	require.NoError(t, err)
	assert.Equal(t, "editor-2", previous)
	assert.Equal(t, "editor-3", current)

	events := store.eventsOfType(models.EventAssigned)
	require.Len(t, events, 2)
	assert.Equal(t, "editor-2", events[1].Details["previous_assignee"])
	assert.Equal(t, "editor-3", events[1].Details["new_assignee"])
}

func TestSetFinalAsset_MoKhoaGateReadyToPost(t *testing.T) {
	actor := editor()
	v := videoWith(models.VideoStatusEditing, withClaim(actor.ID, testNow+60_000))
	store := newFakeStore(v)
	svc := newTestService(store)

	finalURL := "https://cdn.example.com/final-v2.mp4"
	updated, err := svc.SetFinalAsset(context.Background(), v.ID, finalURL, "https://cdn.example.com/thumb.jpg", actor, "")
	require.NoError(t, err)
	assert.Equal(t, finalURL, updated.FinalVideoURL)
	assert.Equal(t, "https://cdn.example.com/thumb.jpg", updated.ThumbnailURL)

	events := store.eventsOfType(models.EventFinalAssetSet)
	require.Len(t, events, 1)

	// Sau khi gắn final asset thì editing → ready_to_post đi qua được
	result, err := svc.AttemptTransition(context.Background(), TransitionRequest{
		VideoID: v.ID,
		Target:  models.VideoStatusReadyToPost,
		Actor:   actor,
	})
	require.NoError(t, err)
	assert.Equal(t, models.VideoStatusReadyToPost, result.NewStatus)
}

func TestSetRecordingStatus_DocLapVoiStatusChinh(t *testing.T) {
	v := videoWith(models.VideoStatusScriptReady)
	store := newFakeStore(v)
	svc := newTestService(store)

	updated, err := svc.SetRecordingStatus(context.Background(), v.ID, models.RecordingStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.RecordingStatusInProgress, updated.RecordingStatus)
	// Status chính không đổi
	assert.Equal(t, models.VideoStatusScriptReady, updated.Status)
}

func TestSetCompliance_GanVaGoCo(t *testing.T) {
	v := videoWith(models.VideoStatusEditing)
	store := newFakeStore(v)
	svc := newTestService(store)

	// Không phải admin → FORBIDDEN
	_, err := svc.SetCompliance(context.Background(), v.ID, true, "vi phạm", editor())
	var customErr *common.Error
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, common.ErrCodeForbidden.Code, customErr.Code.Code)

	// Admin gắn cờ
	flagged, err := svc.SetCompliance(context.Background(), v.ID, true, "nhạc chưa có bản quyền", admin())
	require.NoError(t, err)
	assert.True(t, flagged.ComplianceFlagged)
	assert.Equal(t, "nhạc chưa có bản quyền", flagged.ComplianceNote)

	// Đang bị cờ thì mọi transition bị chặn
	_, err = svc.AttemptTransition(context.Background(), TransitionRequest{
		VideoID: v.ID,
		Target:  models.VideoStatusReview,
		Actor:   admin(),
	})
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, common.ErrCodeComplianceBlocked.Code, customErr.Code.Code)

	// Admin gỡ cờ: note bị xóa và transition thông lại
	unflagged, err := svc.SetCompliance(context.Background(), v.ID, false, "", admin())
	require.NoError(t, err)
	assert.False(t, unflagged.ComplianceFlagged)
	assert.Empty(t, unflagged.ComplianceNote)

	_, err = svc.AttemptTransition(context.Background(), TransitionRequest{
		VideoID: v.ID,
		Target:  models.VideoStatusReview,
		Actor:   admin(),
	})
	assert.NoError(t, err)
}
