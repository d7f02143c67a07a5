package videosvc

import (
	"context"

	"content_pipeline/internal/api/video/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VideoStore trừu tượng hóa row store cho state machine.
// Mọi lỗi trả về đều thuộc taxonomy *common.Error — state machine không
// bao giờ chạm vào lỗi thô của driver.
type VideoStore interface {
	// FindByID trả về video theo ID; không có → common.ErrNotFound
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Video, error)

	// UpdateConditional áp dụng $set/$unset khi video khớp toàn bộ preconditions
	// trong một thao tác atomic, trả về bản sau cập nhật.
	// Không match (video không tồn tại HOẶC tiền đề sai) → common.ErrNotFound;
	// caller phân giải thành NOT_FOUND hay CONFLICT bằng cách đọc lại.
	UpdateConditional(ctx context.Context, id primitive.ObjectID, preconditions map[string]interface{}, set map[string]interface{}, unset map[string]interface{}) (models.Video, error)

	// Find trả về danh sách video theo filter, sắp theo lastStatusChangedAt tăng dần
	Find(ctx context.Context, filter map[string]interface{}, limit int64) ([]models.Video, error)

	// AppendEvent ghi một audit event (append-only)
	AppendEvent(ctx context.Context, ev models.VideoEvent) error
}

// ====================================
// MONGO IMPLEMENTATION
// ====================================

// mongoVideoStore triển khai VideoStore trên hai collection Mongo
// (videos + events) thông qua base service.
type mongoVideoStore struct {
	videos VideoCRUD
	events EventCRUD
}

// NewMongoVideoStore tạo store trên các base service đã gắn collection
func NewMongoVideoStore(videos VideoCRUD, events EventCRUD) VideoStore {
	return &mongoVideoStore{
		videos: videos,
		events: events,
	}
}

// FindByID trả về video theo ID
func (s *mongoVideoStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.Video, error) {
	return s.videos.FindOneById(ctx, id)
}

// UpdateConditional thực hiện CAS qua FindOneAndUpdate:
// filter = {_id} + preconditions, update = {$set, $unset}, trả về bản After.
func (s *mongoVideoStore) UpdateConditional(ctx context.Context, id primitive.ObjectID, preconditions map[string]interface{}, set map[string]interface{}, unset map[string]interface{}) (models.Video, error) {
	filter := map[string]interface{}{"_id": id}
	for k, v := range preconditions {
		filter[k] = v
	}

	update := map[string]interface{}{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return s.videos.FindOneAndUpdate(ctx, filter, update, opts)
}

// Find trả về danh sách video theo filter
func (s *mongoVideoStore) Find(ctx context.Context, filter map[string]interface{}, limit int64) ([]models.Video, error) {
	opts := options.Find().SetSort(map[string]interface{}{"lastStatusChangedAt": 1})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return s.videos.Find(ctx, filter, opts)
}

// AppendEvent ghi một audit event vào collection events
func (s *mongoVideoStore) AppendEvent(ctx context.Context, ev models.VideoEvent) error {
	_, err := s.events.InsertOne(ctx, ev)
	return err
}
