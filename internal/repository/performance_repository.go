package repository

import (
	"github.com/SniperTei/nan-monitor-backend/internal/model"
	"gorm.io/gorm"
)

// PerformanceRepository 接口定义了性能报告的持久化操作。
type PerformanceRepository interface {
	Create(report *model.PerformanceReport) error
	FindAll() ([]model.PerformanceReport, error)
}

// performanceRepository 是 PerformanceRepository 接口的 GORM 实现。
type performanceRepository struct {
	db *gorm.DB
}

// NewPerformanceRepository 创建一个新的 PerformanceRepository 实例。
func NewPerformanceRepository(db *gorm.DB) PerformanceRepository {
	return &performanceRepository{db: db}
}

// Create 在数据库中创建一条性能报告。
func (r *performanceRepository) Create(report *model.PerformanceReport) error {
	return r.db.Create(report).Error
}

// FindAll 按上报时间倒序返回所有性能报告。
func (r *performanceRepository) FindAll() ([]model.PerformanceReport, error) {
	var reports []model.PerformanceReport
	err := r.db.Order("created_at DESC, id DESC").Find(&reports).Error
	return reports, err
}
