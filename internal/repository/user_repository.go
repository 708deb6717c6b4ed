// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"github.com/SniperTei/nan-monitor-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 接口定义了用户数据的持久化操作。
type UserRepository interface {
	// CreateFirstAdminAware 在一个事务内创建用户；
	// 如果创建时表中还没有任何用户，则在同一事务内将其提升为管理员。
	// 判定基于加锁的行数统计而不是自增主键值：事务回滚会烧掉自增值，
	// 基于行数的判定在重试后依然成立，并发注册由锁串行化，
	// 不可能有两个用户同时观察到空表。
	CreateFirstAdminAware(user *model.User) error
	FindByUsername(username string) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindByID(userID uint) (*model.User, error)
	Update(user *model.User) error
}

// userRepository 是 UserRepository 接口的 GORM 实现。
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// CreateFirstAdminAware 在数据库中创建一个新的用户记录，并原子地处理首位管理员晋升。
func (r *userRepository) CreateFirstAdminAware(user *model.User) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// SELECT ... FOR UPDATE 串行化并发注册对空表的判定
		var count int64
		if err := tx.Model(&model.User{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Count(&count).Error; err != nil {
			return err
		}

		if err := tx.Create(user).Error; err != nil {
			return err
		}

		// 首位用户：创建者和更新者指向自己，并提升为管理员
		if count == 0 {
			user.IsAdmin = true
			user.CreatedBy = &user.ID
			user.UpdatedBy = &user.ID
			if err := tx.Model(user).Updates(map[string]interface{}{
				"is_admin":   true,
				"created_by": user.ID,
				"updated_by": user.ID,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByUsername 根据用户名从数据库中查找一个用户。
func (r *userRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail 根据邮箱从数据库中查找一个用户。
func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID 根据用户 ID 从数据库中查找一个用户。
func (r *userRepository) FindByID(userID uint) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, userID).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update 更新数据库中一个已存在的用户记录。
func (r *userRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}
