package videosvc

import (
	"context"
	"errors"
	"sort"
	"sync"

	"content_pipeline/internal/api/video/models"
	"content_pipeline/internal/common"
	"content_pipeline/internal/utility"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeVideoStore là VideoStore in-memory cho unit test.
// Matcher hỗ trợ đúng tập operator mà service dùng trong preconditions
// ($or, $exists, $lte) — đủ để mô phỏng semantics CAS của Mongo.
type fakeVideoStore struct {
	mu     sync.Mutex
	videos map[primitive.ObjectID]models.Video
	events []models.VideoEvent

	appendErr error // ép AppendEvent lỗi để test audit best-effort
}

func newFakeStore(videos ...models.Video) *fakeVideoStore {
	f := &fakeVideoStore{
		videos: make(map[primitive.ObjectID]models.Video),
	}
	for _, v := range videos {
		if v.ID.IsZero() {
			v.ID = primitive.NewObjectID()
		}
		f.videos[v.ID] = v
	}
	return f
}

func (f *fakeVideoStore) FindByID(_ context.Context, id primitive.ObjectID) (models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok {
		return models.Video{}, common.ErrNotFound
	}
	return v, nil
}

func (f *fakeVideoStore) UpdateConditional(_ context.Context, id primitive.ObjectID, preconditions map[string]interface{}, set map[string]interface{}, unset map[string]interface{}) (models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.videos[id]
	if !ok {
		return models.Video{}, common.ErrNotFound
	}

	doc, err := utility.ToMap(v)
	if err != nil {
		return models.Video{}, err
	}
	if !matchDoc(doc, preconditions) {
		return models.Video{}, common.ErrNotFound
	}

	for k, val := range set {
		doc[k] = val
	}
	for k := range unset {
		delete(doc, k)
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		return models.Video{}, err
	}
	var updated models.Video
	if err := bson.Unmarshal(raw, &updated); err != nil {
		return models.Video{}, err
	}
	updated.ID = id
	f.videos[id] = updated
	return updated, nil
}

func (f *fakeVideoStore) Find(_ context.Context, filter map[string]interface{}, limit int64) ([]models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Video
	for _, v := range f.videos {
		doc, err := utility.ToMap(v)
		if err != nil {
			return nil, err
		}
		if matchDoc(doc, filter) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastStatusChangedAt < out[j].LastStatusChangedAt
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeVideoStore) AppendEvent(_ context.Context, ev models.VideoEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.events = append(f.events, ev)
	return nil
}

// eventsOfType trả về các event đã ghi theo type
func (f *fakeVideoStore) eventsOfType(eventType string) []models.VideoEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.VideoEvent
	for _, ev := range f.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeVideoStore) eventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// matchDoc đánh giá filter trên document (map theo bson key)
func matchDoc(doc map[string]interface{}, filter map[string]interface{}) bool {
	for key, cond := range filter {
		if key == "$or" {
			if !matchOr(doc, cond) {
				return false
			}
			continue
		}
		if ops, ok := cond.(map[string]interface{}); ok && hasOperator(ops) {
			if !matchOps(doc, key, ops) {
				return false
			}
			continue
		}
		if !valueEqual(doc[key], cond) {
			return false
		}
	}
	return true
}

func matchOr(doc map[string]interface{}, cond interface{}) bool {
	clauses, ok := cond.([]map[string]interface{})
	if !ok {
		return false
	}
	for _, clause := range clauses {
		if matchDoc(doc, clause) {
			return true
		}
	}
	return false
}

func hasOperator(m map[string]interface{}) bool {
	for k := range m {
		if len(k) > 0 && k[0] == '$' {
			return true
		}
	}
	return false
}

func matchOps(doc map[string]interface{}, key string, ops map[string]interface{}) bool {
	val, exists := doc[key]
	for op, arg := range ops {
		switch op {
		case "$exists":
			want, _ := arg.(bool)
			if exists != want {
				return false
			}
		case "$lte":
			if !exists || toInt64(val) > toInt64(arg) {
				return false
			}
		case "$lt":
			if !exists || toInt64(val) >= toInt64(arg) {
				return false
			}
		case "$gt":
			if !exists || toInt64(val) <= toInt64(arg) {
				return false
			}
		case "$nin":
			list, _ := arg.([]string)
			for _, item := range list {
				if valueEqual(val, item) {
					return false
				}
			}
		default:
			return false
		}
	}
	return true
}

func valueEqual(a interface{}, b interface{}) bool {
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		return ok && sa == sb
	}
	if isNumeric(a) && isNumeric(b) {
		return toInt64(a) == toInt64(b)
	}
	return a == b
}

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int, int32, int64, float64:
		return true
	}
	return false
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

// errAppendFailed dùng trong test audit best-effort
var errAppendFailed = errors.New("ghi event thất bại")
