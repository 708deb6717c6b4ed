package service

import (
	"errors"
	"net/http"

	"github.com/SniperTei/nan-monitor-backend/internal/model"
	"github.com/SniperTei/nan-monitor-backend/internal/repository"
	"github.com/SniperTei/nan-monitor-backend/internal/response"
	"github.com/SniperTei/nan-monitor-backend/pkg/hash"
	"github.com/SniperTei/nan-monitor-backend/pkg/log"
	"github.com/SniperTei/nan-monitor-backend/pkg/token"
	"gorm.io/gorm"
)

// RegisterInput 是用户注册的输入。
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Nickname string
}

// UpdateProfileInput 是更新用户资料的输入，nil 字段表示不修改。
type UpdateProfileInput struct {
	Nickname  *string
	Email     *string
	AvatarURL *string
	// IsAdmin 只有操作者本身是管理员时才会生效
	IsAdmin *bool
}

// LoginResult 是登录成功后的返回值。
type LoginResult struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         *model.User `json:"user"`
}

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(input RegisterInput) (*model.User, error)
	Login(username, password string) (*LoginResult, error)
	RefreshToken(refreshTokenString string) (*LoginResult, error)
	GetUserByID(userID uint) (*model.User, error)
	UpdateProfile(userID uint, input UpdateProfileInput, operatorID uint) (*model.User, error)
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

// Register 处理用户注册的业务逻辑。
// 第一个成功入库的用户会在仓储层的同一事务内被提升为管理员。
func (s *userService) Register(input RegisterInput) (*model.User, error) {
	// 1. 检查用户名是否已存在
	_, err := s.userRepo.FindByUsername(input.Username)
	if err == nil {
		return nil, response.NewBusinessError(response.CodeUserExists, "用户名已存在", http.StatusBadRequest)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 2. 如果提供了邮箱，检查邮箱是否已存在
	if input.Email != "" {
		_, err := s.userRepo.FindByEmail(input.Email)
		if err == nil {
			return nil, response.NewBusinessError(response.CodeUserExists, "邮箱已存在", http.StatusBadRequest)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	// 3. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	newUser := &model.User{
		Username: input.Username,
		Password: hashedPassword,
		Nickname: input.Nickname,
	}
	if input.Email != "" {
		newUser.Email = &input.Email
	}

	// 4. 入库，首位用户的管理员晋升在仓储层事务内完成
	if err := s.userRepo.CreateFirstAdminAware(newUser); err != nil {
		log.Errorf("[Register] 创建用户失败, username: %s, error: %v", input.Username, err)
		return nil, err
	}
	if newUser.IsAdmin {
		log.Infof("[Register] 首位用户 %s 已被提升为管理员", newUser.Username)
	}

	return newUser, nil
}

// Login 处理用户登录的业务逻辑。
// 用户不存在和密码错误返回同一错误，不泄露账号是否存在。
func (s *userService) Login(username, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewBusinessError(response.CodePassword, "用户名或密码错误", http.StatusUnauthorized)
		}
		return nil, err
	}

	if !hash.CheckPassword(password, user.Password) {
		return nil, response.NewBusinessError(response.CodePassword, "用户名或密码错误", http.StatusUnauthorized)
	}

	return s.issueTokens(user)
}

// RefreshToken 用有效的 refresh token 换取新的一对 token。
// access token 不能用于换取，类型不符一律拒绝。
func (s *userService) RefreshToken(refreshTokenString string) (*LoginResult, error) {
	claims, err := s.jwtManager.VerifyToken(refreshTokenString)
	if err != nil || claims.TokenType != token.TokenTypeRefresh {
		return nil, response.NewBusinessError(response.CodeUnauthorized, "无效或已过期的 refresh token", http.StatusUnauthorized)
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewBusinessError(response.CodeUserNotFound, "用户不存在", http.StatusNotFound)
		}
		return nil, err
	}

	return s.issueTokens(user)
}

// GetUserByID 根据 ID 查询用户。
func (s *userService) GetUserByID(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewBusinessError(response.CodeUserNotFound, "用户不存在", http.StatusNotFound)
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile 更新用户资料。isAdmin 字段只有管理员操作者可以修改。
func (s *userService) UpdateProfile(userID uint, input UpdateProfileInput, operatorID uint) (*model.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if input.Nickname != nil {
		user.Nickname = *input.Nickname
	}
	if input.Email != nil {
		if *input.Email == "" {
			user.Email = nil
		} else {
			user.Email = input.Email
		}
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}
	if input.IsAdmin != nil {
		operator, err := s.userRepo.FindByID(operatorID)
		if err == nil && operator.IsAdmin {
			user.IsAdmin = *input.IsAdmin
		}
	}

	user.UpdatedBy = &operatorID
	if err := s.userRepo.Update(user); err != nil {
		log.Errorf("[UpdateProfile] 更新用户失败, userId: %d, error: %v", userID, err)
		return nil, err
	}
	return user, nil
}

// issueTokens 为用户签发 access 和 refresh token。
func (s *userService) issueTokens(user *model.User) (*LoginResult, error) {
	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}
