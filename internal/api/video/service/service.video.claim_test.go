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

func TestClaim_VideoTuDo(t *testing.T) {
	v := videoWith(models.VideoStatusScriptReady)
	store := newFakeStore(v)
	svc := newTestService(store)
	actor := editor()

	claimed, err := svc.Claim(context.Background(), v.ID, actor, 0, "corr-1")
	require.NoError(t, err)
	assert.Equal(t, actor.ID, claimed.ClaimedBy)
	assert.Equal(t, actor.Role, claimed.ClaimedRole)
	assert.Equal(t, testNow, claimed.ClaimedAt)
	// TTL mặc định 15 phút
	assert.Equal(t, testNow+int64(ClaimTTLDefaultMinutes)*60_000, claimed.ClaimExpiresAt)

	events := store.eventsOfType(models.EventClaimAcquired)
	require.Len(t, events, 1)
	assert.Equal(t, "corr-1", events[0].CorrelationID)
}

func TestClaim_DangBiNguoiKhacGiu(t *testing.T) {
	v := videoWith(models.VideoStatusScriptReady, withClaim("nguoi-khac", testNow+60_000))
	store := newFakeStore(v)
	svc := newTestService(store)

	_, err := svc.Claim(context.Background(), v.ID, editor(), 0, "")
	var customErr *common.Error
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, common.ErrCodeConflict.Code, customErr.Code.Code)
	// CONFLICT phải nói rõ ai đang giữ và giữ đến bao giờ
	assert.Equal(t, "nguoi-khac", customErr.Details["claimed_by"])
	assert.Equal(t, testNow+60_000, customErr.Details["claim_expires_at"])
}

func TestClaim_ClaimHetHanChiemDuoc(t *testing.T) {
	// Claim cũ đã quá hạn → video coi như tự do, không cần sweeper dọn
	v := videoWith(models.VideoStatusScriptReady, withClaim("nguoi-cu", testNow-1))
	store := newFakeStore(v)
	svc := newTestService(store)
	actor := editor()

	claimed, err := svc.Claim(context.Background(), v.ID, actor, 30, "")
	require.NoError(t, err)
	assert.Equal(t, actor.ID, claimed.ClaimedBy)
	assert.Equal(t, testNow+30*60_000, claimed.ClaimExpiresAt)
}

func TestClaim_GiaHanClaimCuaChinhMinh(t *testing.T) {
	actor := editor()
	v := videoWith(models.VideoStatusScriptReady, withClaim(actor.ID, testNow+10_000))
	store := newFakeStore(v)
	svc := newTestService(store)

	claimed, err := svc.Claim(context.Background(), v.ID, actor, 60, "")
	require.NoError(t, err)
	assert.Equal(t, testNow+60*60_000, claimed.ClaimExpiresAt)
}

func TestClaim_TTLNgoaiKhoang(t *testing.T) {
	v := videoWith(models.VideoStatusScriptReady)
	store := newFakeStore(v)
	svc := newTestService(store)

	for _, ttl := range []int{-1, 1441} {
		_, err := svc.Claim(context.Background(), v.ID, editor(), ttl, "")
		var customErr *common.Error
		require.True(t, errors.As(err, &customErr), "ttl %d phải bị từ chối", ttl)
		assert.Equal(t, common.ErrCodeValidationInput.Code, customErr.Code.Code)
	}
}

func TestRelease_NguoiGiuThaClaim(t *testing.T) {
	actor := editor()
	v := videoWith(models.VideoStatusScriptReady, withClaim(actor.ID, testNow+60_000))
	store := newFakeStore(v)
	svc := newTestService(store)

	released, err := svc.Release(context.Background(), v.ID, actor, "corr-2")
	require.NoError(t, err)
	assert.Empty(t, released.ClaimedBy)
	assert.Zero(t, released.ClaimExpiresAt)

	events := store.eventsOfType(models.EventClaimReleased)
	require.Len(t, events, 1)
	assert.Equal(t, actor.ID, events[0].Details["released_from"])
}

func TestRelease_KhongAiGiu_NoOpThanhCong(t *testing.T) {
	v := videoWith(models.VideoStatusScriptReady)
	store := newFakeStore(v)
	svc := newTestService(store)

	_, err := svc.Release(context.Background(), v.ID, editor(), "")
	require.NoError(t, err, "release video không ai giữ phải là no-op thành công")
	assert.Equal(t, 0, store.eventCount())
}

func TestRelease_NguoiKhacKhongDuocTha(t *testing.T) {
	v := videoWith(models.VideoStatusScriptReady, withClaim("nguoi-giu", testNow+60_000))
	store := newFakeStore(v)
	svc := newTestService(store)

	_, err := svc.Release(context.Background(), v.ID, reviewer(), "")
	var customErr *common.Error
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, common.ErrCodeForbidden.Code, customErr.Code.Code)

	// Claim vẫn còn nguyên
	after, _ := store.FindByID(context.Background(), v.ID)
	assert.Equal(t, "nguoi-giu", after.ClaimedBy)
}

func TestRelease_AdminThaDuocClaimCuaNguoiKhac(t *testing.T) {
	v := videoWith(models.VideoStatusScriptReady, withClaim("nguoi-giu", testNow+60_000))
	store := newFakeStore(v)
	svc := newTestService(store)

	released, err := svc.Release(context.Background(), v.ID, admin(), "")
	require.NoError(t, err)
	assert.Empty(t, released.ClaimedBy)
}
