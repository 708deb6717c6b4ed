package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONMap 是日志记录的自由格式元数据，
// 在数据库中以 JSON 文本列存储，键为字符串，值为任意标量或嵌套结构。
type JSONMap map[string]interface{}

// Value 实现 driver.Valuer 接口，将 map 序列化为 JSON 存入数据库。
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	bytes, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

// Scan 实现 sql.Scanner 接口，将数据库中的 JSON 文本反序列化为 map。
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("无法将数据库值解析为 JSONMap")
	}

	if len(bytes) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(bytes, m)
}
