// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"github.com/SniperTei/nan-monitor-backend/internal/model"
	"github.com/gin-gonic/gin"
)

// currentUser 从上下文中取出认证中间件存入的用户对象。
// 未认证的路径返回 nil，调用方必须能够容忍空值。
func currentUser(c *gin.Context) *model.User {
	value, exists := c.Get("user")
	if !exists {
		return nil
	}
	user, ok := value.(*model.User)
	if !ok {
		return nil
	}
	return user
}

// currentUserID 返回当前认证用户的 ID，未认证时返回 nil。
func currentUserID(c *gin.Context) *uint {
	user := currentUser(c)
	if user == nil {
		return nil
	}
	return &user.ID
}
