package middleware

import (
	"net/http"
	"strings"

	"studyhub/internal/repository"
	"studyhub/pkg/utils"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// AuthMiddleware 验证Bearer令牌并把userID和user放进请求上下文。
// 令牌有效但用户已不存在（注销、软删除）同样按未认证处理。
func AuthMiddleware(userRepo *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			abortUnauthorized(c, "bearer token required")
			return
		}

		claims, err := utils.ParseToken(strings.TrimPrefix(authHeader, bearerPrefix))
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		user, err := userRepo.FindByID(claims.UserID)
		if err != nil || user == nil {
			abortUnauthorized(c, "user not found")
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("user", user)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": message})
	c.Abort()
}
