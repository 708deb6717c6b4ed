package handler

import (
	"net/http"
	"regexp"

	"github.com/SniperTei/nan-monitor-backend/internal/response"
	"github.com/SniperTei/nan-monitor-backend/internal/service"
	"github.com/SniperTei/nan-monitor-backend/pkg/log"
	"github.com/gin-gonic/gin"
)

// emailPattern 校验邮箱格式。
var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// UserHandler 负责处理所有与用户相关的 API 请求。
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRequest 定义了注册 API 的请求体结构。
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// Register 处理用户注册的请求。
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, response.ParamError("无效的请求负载"))
		return
	}

	// 参数验证
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusOK, response.ParamError("用户名和密码不能为空"))
		return
	}
	if len(req.Username) < 3 || len(req.Username) > 20 {
		c.JSON(http.StatusOK, response.ParamError("用户名长度必须在3-20个字符之间"))
		return
	}
	if len(req.Password) < 6 {
		c.JSON(http.StatusOK, response.ParamError("密码长度不能少于6个字符"))
		return
	}
	if req.Email != "" && !emailPattern.MatchString(req.Email) {
		c.JSON(http.StatusOK, response.ParamError("邮箱格式不正确"))
		return
	}

	user, err := h.userService.Register(service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Nickname: req.Nickname,
	})
	if err != nil {
		c.JSON(http.StatusOK, response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{
		"userId":   user.ID,
		"username": user.Username,
	}, "注册成功"))
}

// LoginRequest 定义了登录 API 的请求体结构。
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login 处理用户登录的请求。
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, response.ParamError("无效的请求负载"))
		return
	}
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusOK, response.ParamError("用户名和密码不能为空"))
		return
	}

	result, err := h.userService.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusOK, response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(result, "登录成功"))
}

// RefreshTokenRequest 定义了刷新 token API 的请求体结构。
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshToken 处理用有效的 refresh token 换取新 token 的请求。
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, response.ParamError("无效的请求负载"))
		return
	}

	result, err := h.userService.RefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusOK, response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(result, "刷新成功"))
}

// GetProfile 处理查询当前用户资料的请求。
func (h *UserHandler) GetProfile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusOK, response.Unauthorized(""))
		return
	}

	c.JSON(http.StatusOK, response.Success(user, ""))
}

// UpdateProfileRequest 定义了更新用户资料 API 的请求体结构。
// 指针字段缺省时表示不修改。
type UpdateProfileRequest struct {
	Nickname  *string `json:"nickname"`
	Email     *string `json:"email"`
	AvatarURL *string `json:"avatarUrl"`
	IsAdmin   *bool   `json:"isAdmin"`
}

// UpdateProfile 处理更新当前用户资料的请求。
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusOK, response.Unauthorized(""))
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, response.ParamError("无效的请求负载"))
		return
	}
	if req.Email != nil && *req.Email != "" && !emailPattern.MatchString(*req.Email) {
		c.JSON(http.StatusOK, response.ParamError("邮箱格式不正确"))
		return
	}

	updated, err := h.userService.UpdateProfile(user.ID, service.UpdateProfileInput{
		Nickname:  req.Nickname,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
		IsAdmin:   req.IsAdmin,
	}, user.ID)
	if err != nil {
		log.Error("UpdateProfile: failed to update user", err)
		c.JSON(http.StatusOK, response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(updated, "更新成功"))
}
