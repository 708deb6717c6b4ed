package model

import "time"

// CrashReport 定义了 crash_report 表的 ORM 模型。
// 由设备端直接上报，不要求认证。
type CrashReport struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AppVersion   string    `gorm:"type:varchar(50)" json:"appVersion"`
	DeviceModel  string    `gorm:"type:varchar(100)" json:"deviceModel"`
	OS           string    `gorm:"type:varchar(50)" json:"os"`
	OSVersion    string    `gorm:"type:varchar(50)" json:"osVersion"`
	ErrorMessage string    `gorm:"type:varchar(1000)" json:"errorMessage"`
	StackTrace   string    `gorm:"type:text" json:"stackTrace"`
	UserID       string    `gorm:"type:varchar(100)" json:"userId"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (CrashReport) TableName() string {
	return "crash_report"
}
