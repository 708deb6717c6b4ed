// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"github.com/SniperTei/nan-monitor-backend/internal/response"
	"github.com/SniperTei/nan-monitor-backend/internal/service"
	"github.com/SniperTei/nan-monitor-backend/pkg/token"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 它会从请求头中提取 token，验证其有效性，并将完整的 User 对象存入 Gin 的上下文中。
func AuthMiddleware(jwtManager *token.JWTManager, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从 Authorization 请求头中获取 token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusOK, response.Unauthorized("未提供认证令牌"))
			return
		}

		// Token 通常以 "Bearer <token>" 的形式提供，我们需要提取出 token 本身
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusOK, response.Unauthorized("无效的授权头格式"))
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, response.Unauthorized("无效或已过期的认证令牌"))
			return
		}
		// refresh token 只能用于换取新 token，不能直接访问受保护的接口
		if claims.TokenType != token.TokenTypeAccess {
			c.AbortWithStatusJSON(http.StatusOK, response.Unauthorized("无效的认证令牌类型"))
			return
		}

		// 使用 claims 中的用户 ID 从数据库获取完整的用户信息。
		// 如果根据 token 中的用户信息无法找到用户，说明该用户可能已被删除。
		user, err := userService.GetUserByID(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, response.Unauthorized("用户不存在"))
			return
		}

		// 将完整的 User 对象存储在 context 中，供后续处理函数使用
		c.Set("user", user)
		c.Set("claims", claims)

		c.Next()
	}
}
