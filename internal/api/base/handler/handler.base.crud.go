package basehdl

// Package basehdl - base CRUD handlers.
// Package này cung cấp các chức năng CRUD cơ bản và các tiện ích để xử lý request/response.

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	basesvc "content_pipeline/internal/api/base/service"
	"content_pipeline/internal/common"
	"content_pipeline/internal/global"
	"content_pipeline/internal/utility"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
)

// CreateInputToModel ràng buộc DTO tạo mới phải biết tự chuyển thành Model
type CreateInputToModel[T any] interface {
	ToModel() (T, error)
}

// BaseHandler cung cấp các HTTP handler CRUD cơ bản trên một service.
// Type Parameters:
//   - T: Kiểu dữ liệu của model
//   - CreateInput: DTO cho thao tác tạo mới
type BaseHandler[T any, CreateInput CreateInputToModel[T]] struct {
	BaseService basesvc.BaseServiceMongo[T] // Service xử lý logic cơ bản
}

// NewBaseHandler tạo mới một BaseHandler
func NewBaseHandler[T any, CreateInput CreateInputToModel[T]](service basesvc.BaseServiceMongo[T]) *BaseHandler[T, CreateInput] {
	return &BaseHandler[T, CreateInput]{
		BaseService: service,
	}
}

// ====================================
// CÁC HÀM TIỆN ÍCH XỬ LÝ REQUEST
// ====================================

// ParseRequestBody parse request body thành struct đích
func (h *BaseHandler[T, CreateInput]) ParseRequestBody(c fiber.Ctx, dest interface{}) error {
	return json.Unmarshal(c.Body(), dest)
}

// ValidateInput validate input với struct tag (validate, oneof, http_url, ...)
func (h *BaseHandler[T, CreateInput]) ValidateInput(input interface{}) error {
	return ValidateStruct(input)
}

// ValidateStruct validate một struct bất kỳ qua global validator,
// chuyển lỗi validator thành lỗi taxonomy với details theo từng field.
func ValidateStruct(input interface{}) error {
	if global.Validate == nil {
		return nil
	}
	err := global.Validate.Struct(input)
	if err == nil {
		return nil
	}

	details := make(map[string]interface{})
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldErr := range validationErrors {
			details[fieldErr.Field()] = fmt.Sprintf("không thỏa điều kiện '%s'", fieldErr.Tag())
		}
	}

	return common.NewError(
		common.ErrCodeValidationInput,
		"Dữ liệu đầu vào không hợp lệ",
		common.StatusBadRequest,
		details,
	)
}

// ProcessFilter parse filter từ query string (JSON) và chuẩn hóa _id hex thành ObjectID
func (h *BaseHandler[T, CreateInput]) ProcessFilter(c fiber.Ctx) (map[string]interface{}, error) {
	filterStr := c.Query("filter", "{}")

	var filter map[string]interface{}
	if err := json.Unmarshal([]byte(filterStr), &filter); err != nil {
		return nil, common.NewError(
			common.ErrCodeValidationInput,
			fmt.Sprintf("Filter phải là một JSON object hợp lệ. Giá trị nhận được: %s", filterStr),
			common.StatusBadRequest,
			nil,
		)
	}

	// Chuẩn hóa _id: chuỗi hex 24 ký tự thành ObjectID
	if idStr, ok := filter["_id"].(string); ok && primitive.IsValidObjectID(idStr) {
		filter["_id"] = utility.String2ObjectID(idStr)
	}

	return filter, nil
}

// processFindOptions parse options từ query string (JSON) cho thao tác Find.
// Hỗ trợ sort và projection, ví dụ: {"sort": {"createdAt": -1}, "projection": {"title": 1}}
func (h *BaseHandler[T, CreateInput]) processFindOptions(c fiber.Ctx) (*mongoopts.FindOptions, error) {
	optsStr := c.Query("options", "{}")

	var raw struct {
		Sort       map[string]interface{} `json:"sort"`
		Projection map[string]interface{} `json:"projection"`
		Limit      *int64                 `json:"limit"`
		Skip       *int64                 `json:"skip"`
	}
	if err := json.Unmarshal([]byte(optsStr), &raw); err != nil {
		return nil, common.NewError(
			common.ErrCodeValidationInput,
			fmt.Sprintf("Options phải là một JSON object hợp lệ. Giá trị nhận được: %s", optsStr),
			common.StatusBadRequest,
			nil,
		)
	}

	opts := mongoopts.Find()
	if raw.Sort != nil {
		opts.SetSort(raw.Sort)
	}
	if raw.Projection != nil {
		opts.SetProjection(raw.Projection)
	}
	if raw.Limit != nil {
		opts.SetLimit(*raw.Limit)
	}
	if raw.Skip != nil {
		opts.SetSkip(*raw.Skip)
	}
	return opts, nil
}

// InvalidBodyError chuẩn hóa lỗi parse body JSON thành lỗi taxonomy
func InvalidBodyError(err error) error {
	return common.NewError(
		common.ErrCodeValidationInput,
		fmt.Sprintf("Dữ liệu gửi lên không đúng định dạng JSON hoặc không khớp với cấu trúc yêu cầu. Chi tiết: %v", err),
		common.StatusBadRequest,
		nil,
	)
}

// ParseObjectIDParam lấy và validate param id từ URL
func (h *BaseHandler[T, CreateInput]) ParseObjectIDParam(c fiber.Ctx) (primitive.ObjectID, error) {
	id := c.Params("id")
	if id == "" {
		return primitive.NilObjectID, common.NewError(
			common.ErrCodeValidationInput,
			"ID không được để trống trong URL params",
			common.StatusBadRequest,
			nil,
		)
	}

	if !primitive.IsValidObjectID(id) {
		return primitive.NilObjectID, common.NewError(
			common.ErrCodeValidationInput,
			fmt.Sprintf("ID '%s' không đúng định dạng MongoDB ObjectID (phải là chuỗi hex 24 ký tự)", id),
			common.StatusBadRequest,
			nil,
		)
	}

	return utility.String2ObjectID(id), nil
}

// ====================================
// CÁC HANDLER CRUD
// ====================================

// InsertOne thêm mới một document vào database.
// Dữ liệu được parse từ request body (DTO CreateInput) và chuyển sang Model qua ToModel trước khi thêm vào DB.
func (h *BaseHandler[T, CreateInput]) InsertOne(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		// Parse request body thành DTO (CreateInput)
		var input CreateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput,
				fmt.Sprintf("Dữ liệu gửi lên không đúng định dạng JSON hoặc không khớp với cấu trúc yêu cầu. Chi tiết: %v", err),
				common.StatusBadRequest,
				nil,
			))
			return nil
		}

		// Validate input với struct tag (validate, oneof, ...)
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		// Chuyển DTO sang Model
		model, err := input.ToModel()
		if err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput,
				fmt.Sprintf("Lỗi chuyển đổi dữ liệu: %v", err),
				common.StatusBadRequest,
				nil,
			))
			return nil
		}

		data, err := h.BaseService.InsertOne(c.Context(), model)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// FindOne tìm một document theo điều kiện filter.
// Filter và options được truyền qua query string dưới dạng JSON.
func (h *BaseHandler[T, CreateInput]) FindOne(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.ProcessFilter(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		data, err := h.BaseService.FindOne(c.Context(), filter, nil)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// FindOneById tìm một document theo ID.
// ID được truyền qua URI params.
func (h *BaseHandler[T, CreateInput]) FindOneById(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.ParseObjectIDParam(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		data, err := h.BaseService.FindOneById(c.Context(), id)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// Find tìm nhiều document theo điều kiện filter.
// Filter và options được truyền qua query string dưới dạng JSON.
func (h *BaseHandler[T, CreateInput]) Find(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.ProcessFilter(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		opts, err := h.processFindOptions(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		data, err := h.BaseService.Find(c.Context(), filter, opts)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		// Đảm bảo data không bao giờ là nil, luôn trả về mảng rỗng nếu không có kết quả
		if data == nil {
			data = []T{}
		}

		h.HandleResponse(c, data, nil)
		return nil
	})
}

// FindWithPagination tìm nhiều document với phân trang.
// Query params:
//   - filter: Điều kiện tìm kiếm (JSON)
//   - options: Tùy chọn tìm kiếm (JSON). Ví dụ: {"sort": {"createdAt": -1}}
//   - page: Số trang (mặc định: 1)
//   - limit: Số lượng item trên một trang (mặc định: 10)
func (h *BaseHandler[T, CreateInput]) FindWithPagination(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.ProcessFilter(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		opts, err := h.processFindOptions(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		// Parse page và limit từ query string
		page, err := strconv.ParseInt(c.Query("page", "1"), 10, 64)
		if err != nil || page < 1 {
			page = 1
		}

		limit, err := strconv.ParseInt(c.Query("limit", "10"), 10, 64)
		if err != nil || limit <= 0 {
			limit = 10
		}

		data, err := h.BaseService.FindWithPagination(c.Context(), filter, page, limit, opts)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// CountDocuments đếm số lượng document theo điều kiện filter
func (h *BaseHandler[T, CreateInput]) CountDocuments(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.ProcessFilter(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		count, err := h.BaseService.CountDocuments(c.Context(), filter)
		h.HandleResponse(c, fiber.Map{"count": count}, err)
		return nil
	})
}

// DocumentExists kiểm tra document có tồn tại theo điều kiện filter không
func (h *BaseHandler[T, CreateInput]) DocumentExists(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.ProcessFilter(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		exists, err := h.BaseService.DocumentExists(c.Context(), filter)
		h.HandleResponse(c, fiber.Map{"exists": exists}, err)
		return nil
	})
}
