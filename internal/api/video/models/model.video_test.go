package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidStatus(t *testing.T) {
	for _, s := range []string{
		VideoStatusNotRecorded, VideoStatusScriptReady, VideoStatusRecording,
		VideoStatusEditing, VideoStatusReview, VideoStatusRevision,
		VideoStatusScheduled, VideoStatusReadyToPost, VideoStatusPosted, VideoStatusCancelled,
	} {
		assert.True(t, IsValidStatus(s), "%s phải hợp lệ", s)
	}
	assert.False(t, IsValidStatus("dang_quay"))
	assert.False(t, IsValidStatus(""))
	assert.False(t, IsValidStatus("POSTED"), "status phân biệt hoa thường")
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(VideoStatusPosted))
	assert.True(t, IsTerminalStatus(VideoStatusCancelled))
	assert.False(t, IsTerminalStatus(VideoStatusReadyToPost))
}

func TestIsInProgressStatus(t *testing.T) {
	for _, s := range []string{VideoStatusRecording, VideoStatusEditing, VideoStatusReview, VideoStatusRevision} {
		assert.True(t, IsInProgressStatus(s), "%s là trạng thái đang xử lý", s)
	}
	for _, s := range []string{VideoStatusNotRecorded, VideoStatusScriptReady, VideoStatusScheduled, VideoStatusReadyToPost, VideoStatusPosted, VideoStatusCancelled} {
		assert.False(t, IsInProgressStatus(s), "%s không phải trạng thái đang xử lý", s)
	}
}

func TestClaimActiveAt(t *testing.T) {
	now := int64(1_000_000)

	v := Video{ClaimedBy: "u1", ClaimExpiresAt: now + 1}
	assert.True(t, v.ClaimActiveAt(now))
	assert.True(t, v.HeldBy("u1", now))
	assert.False(t, v.HeldBy("u2", now))

	// Đúng thời điểm hết hạn coi như không còn giữ
	expired := Video{ClaimedBy: "u1", ClaimExpiresAt: now}
	assert.False(t, expired.ClaimActiveAt(now))
	assert.False(t, expired.HeldBy("u1", now))

	// Không có claim
	free := Video{}
	assert.False(t, free.ClaimActiveAt(now))
}
