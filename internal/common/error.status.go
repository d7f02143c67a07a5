package common

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// HTTP Status Code Constants
const (
	// Success Codes (2xx)
	StatusOK      = 200 // Thành công
	StatusCreated = 201 // Tạo mới thành công

	// Client Error Codes (4xx)
	StatusBadRequest          = 400 // Yêu cầu không hợp lệ
	StatusUnauthorized        = 401 // Chưa xác thực
	StatusForbidden           = 403 // Không có quyền truy cập
	StatusNotFound            = 404 // Không tìm thấy tài nguyên
	StatusConflict            = 409 // Xung đột dữ liệu
	StatusUnprocessableEntity = 422 // Không thỏa điều kiện nghiệp vụ (gate)
	StatusTooManyRequests     = 429 // Quá nhiều yêu cầu

	// Server Error Codes (5xx)
	StatusInternalServerError = 500 // Lỗi server
	StatusServiceUnavailable  = 503 // Dịch vụ không khả dụng
)

// ErrorCode định nghĩa mã lỗi chi tiết của pipeline.
// Code là mã đóng (closed set) trả về cho client trong field "code";
// caller dựa vào mã này để tự xử lý mà không cần query lại.
type ErrorCode struct {
	Code        string // Mã lỗi (ví dụ: INVALID_TRANSITION)
	Category    string // Phân loại lỗi (ví dụ: Transition)
	SubCategory string // Phân loại con (ví dụ: Edge)
	Description string // Mô tả chi tiết
}

// Bộ mã lỗi đóng của pipeline (§ taxonomy). Không thêm mã mới ngoài bộ này.
var (
	// Resource Errors
	ErrCodeNotFound = ErrorCode{
		Code:        "NOT_FOUND",
		Category:    "Resource",
		SubCategory: "Lookup",
		Description: "Không tìm thấy video/script/người dùng",
	}

	// Transition Errors
	ErrCodeInvalidTransition = ErrorCode{
		Code:        "INVALID_TRANSITION",
		Category:    "Transition",
		SubCategory: "Edge",
		Description: "Cặp (trạng thái hiện tại, trạng thái đích) không nằm trong bảng chuyển",
	}

	// Gate Errors — thứ tự ưu tiên cố định: claim → final asset → posting meta → compliance
	ErrCodeClaimRequired = ErrorCode{
		Code:        "CLAIM_REQUIRED",
		Category:    "Gate",
		SubCategory: "Claim",
		Description: "Vào trạng thái đang xử lý yêu cầu actor đang giữ claim",
	}
	ErrCodeFinalAssetRequired = ErrorCode{
		Code:        "FINAL_ASSET_REQUIRED",
		Category:    "Gate",
		SubCategory: "Asset",
		Description: "Vào ready_to_post/posted yêu cầu final_video_url",
	}
	ErrCodePostingMetaIncomplete = ErrorCode{
		Code:        "POSTING_META_INCOMPLETE",
		Category:    "Gate",
		SubCategory: "PostingMeta",
		Description: "Vào posted yêu cầu posted_url và platform",
	}
	ErrCodeComplianceBlocked = ErrorCode{
		Code:        "COMPLIANCE_BLOCKED",
		Category:    "Gate",
		SubCategory: "Compliance",
		Description: "Video đang bị cờ compliance, mọi transition bị từ chối",
	}

	// Concurrency Errors
	ErrCodeConflict = ErrorCode{
		Code:        "CONFLICT",
		Category:    "Concurrency",
		SubCategory: "Race",
		Description: "Thua race ghi đồng thời hoặc dữ liệu idempotent lệch với dữ liệu đã lưu",
	}

	// Infrastructure Errors
	ErrCodeDatabase = ErrorCode{
		Code:        "DB_ERROR",
		Category:    "Database",
		SubCategory: "General",
		Description: "Lỗi hạ tầng cơ sở dữ liệu, retry an toàn",
	}

	// Authorization Errors
	ErrCodeForbidden = ErrorCode{
		Code:        "FORBIDDEN",
		Category:    "Authorization",
		SubCategory: "Role",
		Description: "Kiểm tra vai trò thất bại",
	}

	// Validation Errors (biên API, không thuộc taxonomy chuyển trạng thái)
	ErrCodeValidationInput = ErrorCode{
		Code:        "VALIDATION_ERROR",
		Category:    "Validation",
		SubCategory: "Input",
		Description: "Dữ liệu đầu vào không hợp lệ",
	}

	// Authentication Errors
	ErrCodeAuthToken = ErrorCode{
		Code:        "AUTH_TOKEN",
		Category:    "Authentication",
		SubCategory: "Token",
		Description: "Lỗi liên quan đến token",
	}

	// System Errors
	ErrCodeInternalServer = ErrorCode{
		Code:        "SYS_INTERNAL",
		Category:    "System",
		SubCategory: "Internal",
		Description: "Lỗi hệ thống nội bộ",
	}
)

// Error định nghĩa cấu trúc lỗi chi tiết trả về cho caller.
// Details chứa context có cấu trúc (current_status, allowed_next, url xung đột, ...)
// để caller tự sửa mà không cần query lại.
type Error struct {
	Code       ErrorCode              // Mã lỗi chi tiết
	Message    string                 // Thông báo lỗi
	StatusCode int                    // HTTP status code
	Details    map[string]interface{} // Context có cấu trúc bổ sung
}

// Error trả về message của lỗi
func (e *Error) Error() string {
	return e.Message
}

// Is so sánh theo mã lỗi (hỗ trợ errors.Is với các sentinel bên dưới)
func (e *Error) Is(target error) bool {
	if targetErr, ok := target.(*Error); ok {
		return e.Code.Code == targetErr.Code.Code
	}
	return false
}

// NewError tạo một error mới với đầy đủ thông tin
func NewError(code ErrorCode, message string, statusCode int, details map[string]interface{}) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// Sentinel errors — dùng với errors.Is khi caller chỉ cần phân loại
var (
	ErrNotFound      = NewError(ErrCodeNotFound, "Không tìm thấy dữ liệu", StatusNotFound, nil)
	ErrConflict      = NewError(ErrCodeConflict, "Xung đột ghi đồng thời", StatusConflict, nil)
	ErrForbidden     = NewError(ErrCodeForbidden, "Không có quyền thực hiện thao tác", StatusForbidden, nil)
	ErrInvalidInput  = NewError(ErrCodeValidationInput, "Dữ liệu đầu vào không hợp lệ", StatusBadRequest, nil)
	ErrTokenMissing  = NewError(ErrCodeAuthToken, "Thiếu token xác thực", StatusUnauthorized, nil)
	ErrTokenInvalid  = NewError(ErrCodeAuthToken, "Token không hợp lệ", StatusUnauthorized, nil)
	ErrMongoDatabase = NewError(ErrCodeDatabase, "Lỗi tương tác với cơ sở dữ liệu", StatusInternalServerError, nil)
)

// AsError trả về *Error nếu err thuộc taxonomy, ngược lại wrap thành DB_ERROR.
// State machine chỉ làm việc với *Error, không bao giờ chạm vào lỗi thô của driver.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var customErr *Error
	if errors.As(err, &customErr) {
		return customErr
	}
	return NewError(ErrCodeDatabase, err.Error(), StatusInternalServerError, nil)
}

// ConvertMongoError chuyển đổi lỗi MongoDB driver sang lỗi taxonomy.
// ErrNoDocuments → NOT_FOUND; duplicate key → CONFLICT; còn lại → DB_ERROR (retry an toàn).
func ConvertMongoError(err error) error {
	if err == nil {
		return nil
	}

	// Lỗi đã thuộc taxonomy thì giữ nguyên
	var customErr *Error
	if errors.As(err, &customErr) {
		return err
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return NewError(ErrCodeConflict, "Dữ liệu đã tồn tại", StatusConflict, nil)
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return NewError(ErrCodeDatabase, "Lỗi kết nối cơ sở dữ liệu", StatusServiceUnavailable, nil)
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return NewError(ErrCodeDatabase, cmdErr.Message, StatusInternalServerError, nil)
	}

	return NewError(ErrCodeDatabase, err.Error(), StatusInternalServerError, nil)
}
