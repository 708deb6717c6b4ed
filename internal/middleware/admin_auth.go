package middleware

import (
	"net/http"

	"github.com/SniperTei/nan-monitor-backend/internal/model"
	"github.com/SniperTei/nan-monitor-backend/internal/response"
	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware 检查用户是否具有管理员权限。
// 此中间件必须在 AuthMiddleware 之后使用。
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从 AuthMiddleware 设置的上下文中获取 user 对象
		value, exists := c.Get("user")
		if !exists {
			c.AbortWithStatusJSON(http.StatusOK, response.ServerError())
			return
		}

		currentUser, ok := value.(*model.User)
		if !ok {
			c.AbortWithStatusJSON(http.StatusOK, response.ServerError())
			return
		}

		if !currentUser.IsAdmin {
			c.AbortWithStatusJSON(http.StatusOK, response.Forbidden("权限不足，需要管理员权限"))
			return
		}

		c.Next()
	}
}
