package videosvc

import (
	"fmt"

	"content_pipeline/internal/api/video/models"
	"content_pipeline/internal/common"
	"content_pipeline/internal/metrics"
)

// Gate là một tiền đề có tên mà transition phải thỏa trước khi được áp dụng.
// Thứ tự đánh giá CỐ ĐỊNH, gate fail đầu tiên short-circuit:
//  1. CLAIM_REQUIRED
//  2. FINAL_ASSET_REQUIRED
//  3. POSTING_META_INCOMPLETE
//  4. COMPLIANCE_BLOCKED
//
// Không được đổi thứ tự này — test khẳng định "gate nào fail trước" dựa vào nó.
type gate struct {
	name  string
	check func(in gateInput) *common.Error
}

// gateInput là snapshot bất biến mà các gate đánh giá trên đó.
// Gates là hàm thuần: không đọc DB, không side effect.
type gateInput struct {
	current string
	target  string
	video   models.Video
	actor   Actor
	updates StatusUpdate
	now     int64
}

var orderedGates = []gate{
	{name: common.ErrCodeClaimRequired.Code, check: checkClaimRequired},
	{name: common.ErrCodeFinalAssetRequired.Code, check: checkFinalAssetRequired},
	{name: common.ErrCodePostingMetaIncomplete.Code, check: checkPostingMetaIncomplete},
	{name: common.ErrCodeComplianceBlocked.Code, check: checkComplianceBlocked},
}

// evaluateGates chạy các gate theo thứ tự cố định, dừng ở gate fail đầu tiên.
// Trả về nil khi tất cả pass.
func evaluateGates(in gateInput) *common.Error {
	for _, g := range orderedGates {
		if err := g.check(in); err != nil {
			metrics.GateFailureTotal.WithLabelValues(g.name).Inc()
			return err
		}
	}
	return nil
}

// checkClaimRequired: vào trạng thái đang xử lý yêu cầu actor đang giữ claim
// hiệu lực trên video, hoặc actor là admin.
func checkClaimRequired(in gateInput) *common.Error {
	if !models.IsInProgressStatus(in.target) {
		return nil
	}
	if in.actor.IsAdmin() {
		return nil
	}
	if in.video.HeldBy(in.actor.ID, in.now) {
		return nil
	}

	details := map[string]interface{}{
		"target_status": in.target,
	}
	if in.video.ClaimActiveAt(in.now) {
		details["claimed_by"] = in.video.ClaimedBy
	}
	return common.NewError(
		common.ErrCodeClaimRequired,
		fmt.Sprintf("Vào trạng thái %s yêu cầu đang giữ claim trên video", in.target),
		common.StatusUnprocessableEntity,
		details,
	)
}

// checkFinalAssetRequired: vào ready_to_post/posted yêu cầu đã có final_video_url
func checkFinalAssetRequired(in gateInput) *common.Error {
	if in.target != models.VideoStatusReadyToPost && in.target != models.VideoStatusPosted {
		return nil
	}
	if in.video.FinalVideoURL != "" {
		return nil
	}
	return common.NewError(
		common.ErrCodeFinalAssetRequired,
		"Chưa có bản dựng cuối (finalVideoUrl), không thể vào "+in.target,
		common.StatusUnprocessableEntity,
		map[string]interface{}{
			"target_status": in.target,
		},
	)
}

// checkPostingMetaIncomplete: vào posted yêu cầu posted_url và platform
// (từ updates của request hoặc đã có sẵn trên video).
func checkPostingMetaIncomplete(in gateInput) *common.Error {
	if in.target != models.VideoStatusPosted {
		return nil
	}

	postedURL := in.updates.PostedURL
	if postedURL == "" {
		postedURL = in.video.PostedURL
	}
	platform := in.updates.Platform
	if platform == "" {
		platform = in.video.Platform
	}

	missing := []string{}
	if postedURL == "" {
		missing = append(missing, "posted_url")
	}
	if platform == "" {
		missing = append(missing, "platform")
	}
	if len(missing) == 0 {
		return nil
	}
	return common.NewError(
		common.ErrCodePostingMetaIncomplete,
		"Thiếu thông tin đăng bài, không thể vào posted",
		common.StatusUnprocessableEntity,
		map[string]interface{}{
			"missing": missing,
		},
	)
}

// checkComplianceBlocked: video đang bị cờ compliance thì từ chối mọi transition
func checkComplianceBlocked(in gateInput) *common.Error {
	if !in.video.ComplianceFlagged {
		return nil
	}
	return common.NewError(
		common.ErrCodeComplianceBlocked,
		"Video đang bị cờ compliance, mọi transition bị chặn cho tới khi gỡ cờ",
		common.StatusUnprocessableEntity,
		map[string]interface{}{
			"compliance_note": in.video.ComplianceNote,
		},
	)
}
