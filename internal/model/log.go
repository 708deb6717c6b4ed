package model

import "time"

// LogRecord 定义了 log_record 表的 ORM 模型。
// 文件字段（FileURL/FileName/FileSize）是创建时从文件描述符单向拷贝的快照，
// 三者要么全部存在要么全部为空；之后即使底层文件被删除，记录也不会变更。
// 记录创建后不可变，没有更新入口。
type LogRecord struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	DeviceID string `gorm:"type:varchar(100);not null;index:idx_device_created,priority:1" json:"deviceId"`
	// Date 是记录所属的逻辑日期（YYYY-MM-DD），缺省为创建当天的 UTC 日期
	Date      string    `gorm:"type:varchar(10);not null;index" json:"date"`
	FileURL   *string   `gorm:"type:varchar(500)" json:"fileUrl"`
	FileName  *string   `gorm:"type:varchar(255)" json:"fileName"`
	FileSize  *int64    `json:"fileSize"`
	Metadata  JSONMap   `gorm:"type:json" json:"metadata"`
	CreatedBy *uint     `json:"createdBy"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_device_created,priority:2" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (LogRecord) TableName() string {
	return "log_record"
}

// HasFile 返回该记录是否关联了上传文件。
func (l *LogRecord) HasFile() bool {
	return l.FileURL != nil && *l.FileURL != ""
}
