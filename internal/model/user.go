// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// User 定义了 user 表的 ORM 模型。
// 系统中第一个成功入库的用户会被自动提升为管理员。
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"type:varchar(100);not null" json:"-"`
	Email     *string   `gorm:"type:varchar(100);uniqueIndex" json:"email"`
	Nickname  string    `gorm:"type:varchar(30)" json:"nickname"`
	AvatarURL string    `gorm:"type:varchar(255)" json:"avatarUrl"`
	IsAdmin   bool      `gorm:"not null;default:false" json:"isAdmin"`
	CreatedBy *uint     `json:"createdBy"`
	UpdatedBy *uint     `json:"updatedBy"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "user"
}
