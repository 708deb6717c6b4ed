package service

import (
	"errors"
	"testing"

	"github.com/SniperTei/nan-monitor-backend/internal/model"
	"github.com/SniperTei/nan-monitor-backend/internal/response"
	"github.com/SniperTei/nan-monitor-backend/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeUserRepository 是 UserRepository 的内存实现，
// 模拟自增主键分配（失败也烧掉自增值）和基于行数的首位管理员晋升。
type fakeUserRepository struct {
	users  map[uint]*model.User
	nextID uint
	// createErr 非 nil 时 CreateFirstAdminAware 失败，用于模拟入库事务回滚
	createErr error
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: make(map[uint]*model.User), nextID: 1}
}

func (r *fakeUserRepository) CreateFirstAdminAware(user *model.User) error {
	user.ID = r.nextID
	r.nextID++
	if r.createErr != nil {
		return r.createErr
	}
	// 晋升判定基于入库前的行数，与拿到的自增主键值无关
	if len(r.users) == 0 {
		user.IsAdmin = true
		user.CreatedBy = &user.ID
		user.UpdatedBy = &user.ID
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepository) FindByUsername(username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepository) FindByEmail(email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email != nil && *u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepository) FindByID(userID uint) (*model.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepository) Update(user *model.User) error {
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func newTestUserService(t *testing.T) (UserService, *fakeUserRepository) {
	t.Helper()
	repo := newFakeUserRepository()
	jwtManager := token.NewJWTManager("test-secret", 1, 7)
	return NewUserService(repo, jwtManager), repo
}

func TestRegister(t *testing.T) {
	svc, _ := newTestUserService(t)

	t.Run("首位用户自动成为管理员", func(t *testing.T) {
		first, err := svc.Register(RegisterInput{Username: "alice", Password: "secret123"})
		require.NoError(t, err)
		assert.True(t, first.IsAdmin)
		require.NotNil(t, first.CreatedBy)
		assert.Equal(t, first.ID, *first.CreatedBy)

		second, err := svc.Register(RegisterInput{Username: "bob", Password: "secret123"})
		require.NoError(t, err)
		assert.False(t, second.IsAdmin)
	})

	t.Run("首次入库失败后重试仍能成为管理员", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		repo.createErr = errors.New("connection dropped")

		_, err := svc.Register(RegisterInput{Username: "alice", Password: "secret123"})
		require.Error(t, err)

		// 失败的事务烧掉了一个自增值，重试后的用户依然是首位入库者
		repo.createErr = nil
		user, err := svc.Register(RegisterInput{Username: "alice", Password: "secret123"})
		require.NoError(t, err)
		assert.NotEqual(t, uint(1), user.ID)
		assert.True(t, user.IsAdmin)
	})

	t.Run("用户名已存在", func(t *testing.T) {
		_, err := svc.Register(RegisterInput{Username: "alice", Password: "another"})
		var be *response.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, response.CodeUserExists, be.Code)
		assert.Equal(t, "用户名已存在", be.Msg)
	})

	t.Run("邮箱已存在", func(t *testing.T) {
		_, err := svc.Register(RegisterInput{Username: "carol", Password: "secret123", Email: "carol@example.com"})
		require.NoError(t, err)

		_, err = svc.Register(RegisterInput{Username: "dave", Password: "secret123", Email: "carol@example.com"})
		var be *response.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, response.CodeUserExists, be.Code)
	})

	t.Run("密码不以明文存储", func(t *testing.T) {
		user, err := svc.Register(RegisterInput{Username: "eve", Password: "plaintext"})
		require.NoError(t, err)
		assert.NotEqual(t, "plaintext", user.Password)
	})
}

func TestLogin(t *testing.T) {
	svc, _ := newTestUserService(t)
	_, err := svc.Register(RegisterInput{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	t.Run("登录成功签发token", func(t *testing.T) {
		result, err := svc.Login("alice", "secret123")
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, "alice", result.User.Username)
	})

	// 用户不存在和密码错误返回同一错误码
	t.Run("密码错误", func(t *testing.T) {
		_, err := svc.Login("alice", "wrong")
		var be *response.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, response.CodePassword, be.Code)
		assert.Equal(t, "用户名或密码错误", be.Msg)
	})

	t.Run("用户不存在", func(t *testing.T) {
		_, err := svc.Login("nobody", "secret123")
		var be *response.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, response.CodePassword, be.Code)
		assert.Equal(t, "用户名或密码错误", be.Msg)
	})
}

func TestRefreshToken(t *testing.T) {
	svc, _ := newTestUserService(t)
	_, err := svc.Register(RegisterInput{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	login, err := svc.Login("alice", "secret123")
	require.NoError(t, err)

	t.Run("用refresh token换取新token", func(t *testing.T) {
		result, err := svc.RefreshToken(login.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.Equal(t, "alice", result.User.Username)
	})

	t.Run("无效token被拒绝", func(t *testing.T) {
		_, err := svc.RefreshToken("not-a-token")
		var be *response.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, response.CodeUnauthorized, be.Code)
	})

	t.Run("access token不能当作refresh token", func(t *testing.T) {
		_, err := svc.RefreshToken(login.AccessToken)
		var be *response.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, response.CodeUnauthorized, be.Code)
	})
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestUserService(t)
	admin, err := svc.Register(RegisterInput{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	user, err := svc.Register(RegisterInput{Username: "bob", Password: "secret123"})
	require.NoError(t, err)

	t.Run("更新昵称和头像", func(t *testing.T) {
		nickname := "Bobby"
		avatar := "http://example.com/avatar.png"
		updated, err := svc.UpdateProfile(user.ID, UpdateProfileInput{Nickname: &nickname, AvatarURL: &avatar}, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bobby", updated.Nickname)
		assert.Equal(t, avatar, updated.AvatarURL)
	})

	t.Run("非管理员不能修改isAdmin", func(t *testing.T) {
		wantAdmin := true
		updated, err := svc.UpdateProfile(user.ID, UpdateProfileInput{IsAdmin: &wantAdmin}, user.ID)
		require.NoError(t, err)
		assert.False(t, updated.IsAdmin)
	})

	t.Run("管理员可以修改isAdmin", func(t *testing.T) {
		wantAdmin := true
		updated, err := svc.UpdateProfile(user.ID, UpdateProfileInput{IsAdmin: &wantAdmin}, admin.ID)
		require.NoError(t, err)
		assert.True(t, updated.IsAdmin)
	})

	t.Run("清空邮箱", func(t *testing.T) {
		email := "bob@example.com"
		updated, err := svc.UpdateProfile(user.ID, UpdateProfileInput{Email: &email}, user.ID)
		require.NoError(t, err)
		require.NotNil(t, updated.Email)

		empty := ""
		updated, err = svc.UpdateProfile(user.ID, UpdateProfileInput{Email: &empty}, user.ID)
		require.NoError(t, err)
		assert.Nil(t, updated.Email)
	})

	t.Run("用户不存在", func(t *testing.T) {
		nickname := "x"
		_, err := svc.UpdateProfile(999, UpdateProfileInput{Nickname: &nickname}, admin.ID)
		var be *response.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, response.CodeUserNotFound, be.Code)
	})
}
