// Package database - Index cho các collection pipeline (compound, sparse) không thể định nghĩa qua model tags.
package database

import (
	"context"
	"strings"

	"content_pipeline/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreatePipelineIndexes tạo các index cho collection videos và events.
// Gọi một lần lúc khởi động, sau khi đã đăng ký collections.
func CreatePipelineIndexes(ctx context.Context, db *mongo.Database) error {
	// content_videos: status — listing theo trạng thái (ready-to-post, stale worker)
	videos := db.Collection(global.MongoDB_ColNames.Videos)
	if _, err := videos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "status", Value: 1},
		},
		Options: options.Index().SetName("video_status"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// content_videos: (status, lastStatusChangedAt) — quét video kẹt theo trạng thái
	if _, err := videos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "lastStatusChangedAt", Value: 1},
		},
		Options: options.Index().SetName("video_status_changed_at"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// content_videos: claimedBy sparse — tra cứu video một actor đang giữ
	if _, err := videos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "claimedBy", Value: 1},
		},
		Options: options.Index().SetName("video_claimed_by").SetSparse(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// content_videos: assignedTo sparse — listing công việc theo người được giao
	if _, err := videos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "assignedTo", Value: 1},
			{Key: "status", Value: 1},
		},
		Options: options.Index().SetName("video_assigned_status").SetSparse(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// content_video_events: (videoId, at) — đọc lịch sử một video theo thời gian
	events := db.Collection(global.MongoDB_ColNames.VideoEvents)
	if _, err := events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "videoId", Value: 1},
			{Key: "at", Value: 1},
		},
		Options: options.Index().SetName("video_event_video_at"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// content_video_events: correlationId sparse — truy vết theo request
	if _, err := events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "correlationId", Value: 1},
		},
		Options: options.Index().SetName("video_event_correlation").SetSparse(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	return nil
}

func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "already exists") || strings.Contains(s, "duplicate")
}
