// Package events 定义了发送到 Kafka 的事件结构。
package events

// LogIngestedEvent 表示一条日志记录已成功入库的事件。
// 供下游系统（告警、统计等）消费，本服务只负责发布。
type LogIngestedEvent struct {
	LogID     uint   `json:"log_id"`
	DeviceID  string `json:"device_id"`
	Date      string `json:"date"`
	FileURL   string `json:"file_url,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	FileSize  int64  `json:"file_size,omitempty"`
	CreatedBy uint   `json:"created_by,omitempty"`
}
