package global

import (
	"content_pipeline/config"
	"content_pipeline/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// CollectionNames chứa tên các collection trong MongoDB
type CollectionNames struct {
	Videos      string // Tên collection cho video pipeline (prefix "content_" để nhất quán)
	VideoEvents string // Tên collection cho audit events của video
}

// Các biến toàn cục
var Validate *validator.Validate                                  // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client                                 // Phiên kết nối tới MongoDB
var MongoDB_ServerConfig *config.Configuration                    // Cấu hình của server
var MongoDB_ColNames CollectionNames = *new(CollectionNames)      // Tên các collection

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
