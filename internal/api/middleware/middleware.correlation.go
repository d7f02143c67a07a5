package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// HeaderCorrelationID là header truyền correlation id giữa các service
const HeaderCorrelationID = "X-Correlation-ID"

// CorrelationMiddleware gán correlation id cho mỗi request.
// Client gửi sẵn X-Correlation-ID thì dùng lại, không thì sinh UUID mới.
// ID được lưu vào Locals "correlation_id" và trả lại trong response header
// để truy vết request xuyên suốt log, audit event và response.
func CorrelationMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		correlationId := c.Get(HeaderCorrelationID)
		if correlationId == "" {
			correlationId = uuid.NewString()
		}

		c.Locals("correlation_id", correlationId)
		c.Set(HeaderCorrelationID, correlationId)

		return c.Next()
	}
}
