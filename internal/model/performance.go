package model

import "time"

// PerformanceReport 定义了 performance_report 表的 ORM 模型。
// 由设备端周期性上报的运行指标。
type PerformanceReport struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AppVersion  string    `gorm:"type:varchar(50)" json:"appVersion"`
	MemoryUsage float64   `json:"memoryUsage"`
	CPUUsage    float64   `json:"cpuUsage"`
	FPS         float64   `json:"fps"`
	UserID      string    `gorm:"type:varchar(100)" json:"userId"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (PerformanceReport) TableName() string {
	return "performance_report"
}
