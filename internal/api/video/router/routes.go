package videorouter

import (
	"fmt"

	basesvc "content_pipeline/internal/api/base/service"
	"content_pipeline/internal/api/middleware"
	"content_pipeline/internal/api/router"
	videohdl "content_pipeline/internal/api/video/handler"
	"content_pipeline/internal/api/video/models"
	videosvc "content_pipeline/internal/api/video/service"
	"content_pipeline/internal/global"
	"content_pipeline/internal/notification"

	"github.com/gofiber/fiber/v3"
)

// NewRegister trả về RegisterFunc của domain video. Dispatcher được bơm từ
// cmd/server để router không tự mở kết nối AMQP.
func NewRegister(dispatcher notification.Dispatcher) router.RegisterFunc {
	return func(v1 fiber.Router, r *router.Router) error {
		videosCol, ok := global.RegistryCollections.Get(global.MongoDB_ColNames.Videos)
		if !ok {
			return fmt.Errorf("collection %s chưa được đăng ký vào registry", global.MongoDB_ColNames.Videos)
		}
		eventsCol, ok := global.RegistryCollections.Get(global.MongoDB_ColNames.VideoEvents)
		if !ok {
			return fmt.Errorf("collection %s chưa được đăng ký vào registry", global.MongoDB_ColNames.VideoEvents)
		}

		videoBase := basesvc.NewBaseServiceMongo[models.Video](videosCol)
		eventBase := basesvc.NewBaseServiceMongo[models.VideoEvent](eventsCol)
		store := videosvc.NewMongoVideoStore(videoBase, eventBase)
		service := videosvc.NewVideoService(videoBase, store, dispatcher)

		h := videohdl.NewVideoHandler(service)
		eventHandler := videohdl.NewEventHandler(eventBase)

		// CRUD chuẩn: videos đọc + tạo, events chỉ đọc.
		// Update/delete trực tiếp không mở — trạng thái chỉ đổi qua endpoint nghiệp vụ.
		r.RegisterCRUDRoutes(v1, "/videos", h, router.ReadCreateConfig)
		r.RegisterCRUDRoutes(v1, "/video-events", eventHandler, router.ReadOnlyConfig)

		// Endpoint nghiệp vụ — đăng ký qua RegisterRouteWithMiddleware
		// (xem banner trong internal/api/router/routes.go về bug Fiber v3)
		authMiddleware := middleware.AuthMiddleware("")
		adminMiddleware := middleware.AuthMiddleware(videosvc.RoleAdmin)
		auth := []fiber.Handler{authMiddleware}
		admin := []fiber.Handler{adminMiddleware}

		router.RegisterRouteWithMiddleware(v1, "/videos", "GET", "/ready-to-post", auth, h.ReadyToPost)
		router.RegisterRouteWithMiddleware(v1, "/videos", "PATCH", "/:id/status", auth, h.UpdateStatus)
		router.RegisterRouteWithMiddleware(v1, "/videos", "POST", "/:id/mark-posted", auth, h.MarkPosted)
		router.RegisterRouteWithMiddleware(v1, "/videos", "POST", "/:id/claim", auth, h.Claim)
		router.RegisterRouteWithMiddleware(v1, "/videos", "POST", "/:id/release", auth, h.Release)
		router.RegisterRouteWithMiddleware(v1, "/videos", "PUT", "/:id/final-asset", auth, h.SetFinalAsset)
		router.RegisterRouteWithMiddleware(v1, "/videos", "PUT", "/:id/recording-status", auth, h.SetRecordingStatus)

		// Chỉ admin
		router.RegisterRouteWithMiddleware(v1, "/videos", "POST", "/:id/assign", admin, h.Assign)
		router.RegisterRouteWithMiddleware(v1, "/videos", "PUT", "/:id/compliance", admin, h.SetCompliance)

		return nil
	}
}
