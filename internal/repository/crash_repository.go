package repository

import (
	"github.com/SniperTei/nan-monitor-backend/internal/model"
	"gorm.io/gorm"
)

// CrashRepository 接口定义了崩溃报告的持久化操作。
type CrashRepository interface {
	Create(report *model.CrashReport) error
	FindAll() ([]model.CrashReport, error)
}

// crashRepository 是 CrashRepository 接口的 GORM 实现。
type crashRepository struct {
	db *gorm.DB
}

// NewCrashRepository 创建一个新的 CrashRepository 实例。
func NewCrashRepository(db *gorm.DB) CrashRepository {
	return &crashRepository{db: db}
}

// Create 在数据库中创建一条崩溃报告。
func (r *crashRepository) Create(report *model.CrashReport) error {
	return r.db.Create(report).Error
}

// FindAll 按上报时间倒序返回所有崩溃报告。
func (r *crashRepository) FindAll() ([]model.CrashReport, error) {
	var reports []model.CrashReport
	err := r.db.Order("created_at DESC, id DESC").Find(&reports).Error
	return reports, err
}
