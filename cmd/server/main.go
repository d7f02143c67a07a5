package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	basesvc "content_pipeline/internal/api/base/service"
	"content_pipeline/internal/api/video/models"
	videosvc "content_pipeline/internal/api/video/service"
	"content_pipeline/internal/database"
	"content_pipeline/internal/global"
	"content_pipeline/internal/logger"
	"content_pipeline/internal/notification"
	"content_pipeline/internal/worker"

	"github.com/gofiber/fiber/v3"
)

// initLogger khởi tạo và cấu hình logger cho toàn bộ ứng dụng
func initLogger() {
	// Logger tự đọc environment variables khi không truyền config
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	log := logger.GetAppLogger()
	log.Info("Logger system initialized successfully")
}

// main_thread khởi tạo và chạy Fiber server
func main_thread(app *fiber.App) {
	cfg := global.MongoDB_ServerConfig
	log := logger.GetAppLogger()

	log.WithFields(map[string]interface{}{
		"address":  cfg.Address,
		"protocol": "HTTP",
	}).Info("Starting Fiber server...")

	if err := app.Listen(cfg.Address, fiber.ListenConfig{}); err != nil {
		log.Fatalf("Error in Fiber Listen: %v", err)
	}
}

// Hàm main
func main() {
	// Khởi tạo logger
	initLogger()

	// Khởi tạo các biến toàn cục
	InitGlobal()

	// Khởi tạo registry
	InitRegistry()

	cfg := global.MongoDB_ServerConfig
	log := logger.GetAppLogger()

	// Khởi tạo notification dispatcher (không có AMQP_URL thì fallback về log)
	dispatcher := notification.NewDispatcher(cfg.AMQP_URL, cfg.NotificationExchange)
	defer dispatcher.Close()

	// Khởi tạo và chạy worker cảnh báo video kẹt trạng thái
	if cfg.StaleAlert_Enabled {
		videosCol, ok := global.RegistryCollections.Get(global.MongoDB_ColNames.Videos)
		eventsCol, ok2 := global.RegistryCollections.Get(global.MongoDB_ColNames.VideoEvents)
		if !ok || !ok2 {
			log.Fatal("Pipeline collections chưa được đăng ký vào registry")
		}
		store := videosvc.NewMongoVideoStore(
			basesvc.NewBaseServiceMongo[models.Video](videosCol),
			basesvc.NewBaseServiceMongo[models.VideoEvent](eventsCol),
		)
		staleWorker := worker.NewStaleVideoWorker(store, dispatcher, cfg.StaleAlert_Hours, cfg.StaleAlert_IntervalM)
		staleWorker.Start()
		defer staleWorker.Stop()
	}

	// Khởi tạo app với cấu hình
	app := InitFiberApp(dispatcher)

	// Graceful shutdown khi nhận SIGINT/SIGTERM
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Info("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Errorf("Error during shutdown: %v", err)
		}
		if err := database.CloseInstance(global.MongoDB_Session); err != nil {
			log.Errorf("Error closing MongoDB connection: %v", err)
		}
	}()

	// Chạy Fiber server trên main thread
	main_thread(app)

	// Đóng logger để flush các log còn trong buffer
	logger.Close()
}
