package middleware

import (
	"strings"

	"content_pipeline/internal/common"
	"content_pipeline/internal/global"
	"content_pipeline/internal/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// ActorClaims là payload JWT chứa danh tính actor thực hiện request
type ActorClaims struct {
	UserID string `json:"userId"` // ID người dùng
	Role   string `json:"role"`   // Vai trò (editor, reviewer, admin, ...)
	jwt.RegisteredClaims
}

// AuthMiddleware middleware xác thực cho Fiber.
// Token JWT (HS256) được lấy từ header Authorization, claims userId và role
// được lưu vào Locals "user_id" và "user_role" cho các handler phía sau.
// requiredRole khác rỗng thì actor phải có đúng vai trò đó (ví dụ "admin").
func AuthMiddleware(requiredRole string) fiber.Handler {
	return func(c fiber.Ctx) error {
		// Lấy token từ header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path":   c.Path(),
				"method": c.Method(),
			}).Warn("❌ [AUTH] Missing Authorization header")
			HandleErrorResponse(c, common.ErrTokenMissing)
			return nil
		}

		// Kiểm tra định dạng token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			HandleErrorResponse(c, common.ErrTokenInvalid)
			return nil
		}

		tokenStr := parts[1]

		claims := &ActorClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, common.ErrTokenInvalid
			}
			return []byte(global.MongoDB_ServerConfig.JwtSecret), nil
		})
		if err != nil || !token.Valid {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path": c.Path(),
			}).Warn("❌ [AUTH] Invalid token")
			HandleErrorResponse(c, common.ErrTokenInvalid)
			return nil
		}

		if claims.UserID == "" {
			HandleErrorResponse(c, common.ErrTokenInvalid)
			return nil
		}

		// Lưu thông tin actor vào context
		c.Locals("user_id", claims.UserID)
		c.Locals("user_role", claims.Role)

		// Kiểm tra vai trò nếu route yêu cầu
		if requiredRole != "" && claims.Role != requiredRole {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"user_id":       claims.UserID,
				"user_role":     claims.Role,
				"required_role": requiredRole,
				"path":          c.Path(),
			}).Warn("❌ [AUTH] User does not have required role")
			HandleErrorResponse(c, common.NewError(
				common.ErrCodeForbidden,
				"Không có quyền truy cập. Thao tác yêu cầu vai trò "+requiredRole,
				common.StatusForbidden,
				map[string]interface{}{
					"required_role": requiredRole,
					"actor_role":    claims.Role,
				},
			))
			return nil
		}

		return c.Next()
	}
}
