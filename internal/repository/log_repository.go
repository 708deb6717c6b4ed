package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/SniperTei/nan-monitor-backend/internal/model"
	"github.com/SniperTei/nan-monitor-backend/pkg/log"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// deviceCacheKey 是设备列表在 Redis 中的缓存键。
const deviceCacheKey = "log:devices"

// deviceCacheTTL 是设备列表缓存的有效期。
const deviceCacheTTL = 60 * time.Second

// LogFilter 是日志列表查询的筛选条件。
// 指针字段为 nil 表示不应用该筛选；多个条件之间是 AND 关系。
type LogFilter struct {
	// DeviceID 按设备 ID 精确匹配
	DeviceID *string
	// Date 按逻辑日期（YYYY-MM-DD）精确匹配，不是时间戳区间
	Date *string
	// Page 页码，从 1 开始
	Page int
	// Limit 每页条数
	Limit int
}

// LogRepository 接口定义了日志记录的持久化操作。
type LogRepository interface {
	Create(ctx context.Context, record *model.LogRecord) error
	// FindWithPagination 返回符合筛选条件的一页记录和总条数。
	// 排序是确定性的全序：created_at 降序，时间戳相同时按 id 降序。
	FindWithPagination(filter LogFilter) ([]model.LogRecord, int64, error)
	FindByID(logID uint) (*model.LogRecord, error)
	DistinctDeviceIDs(ctx context.Context) ([]string, error)
}

// logRepository 是 LogRepository 接口的 GORM+Redis 实现。
// Redis 仅作为设备列表枚举的只读缓存，不参与任何一致性关键路径。
type logRepository struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewLogRepository 创建一个新的 LogRepository 实例。
func NewLogRepository(db *gorm.DB, redisClient *redis.Client) LogRepository {
	return &logRepository{db: db, redisClient: redisClient}
}

// Create 在数据库中创建一条日志记录，并使设备列表缓存失效。
func (r *logRepository) Create(ctx context.Context, record *model.LogRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return err
	}
	// 缓存失效失败不影响写入结果，缓存会在 TTL 到期后自愈
	if r.redisClient != nil {
		if err := r.redisClient.Del(ctx, deviceCacheKey).Err(); err != nil {
			log.Warnf("[LogRepository] 设备列表缓存失效失败: %v", err)
		}
	}
	return nil
}

// FindWithPagination 分页查询日志记录。
func (r *logRepository) FindWithPagination(filter LogFilter) ([]model.LogRecord, int64, error) {
	var records []model.LogRecord
	var total int64

	db := r.db.Model(&model.LogRecord{})
	if filter.DeviceID != nil {
		db = db.Where("device_id = ?", *filter.DeviceID)
	}
	if filter.Date != nil {
		db = db.Where("date = ?", *filter.Date)
	}

	// 首先计算总记录数
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 然后根据偏移量和限制获取当前页的数据。
	// id 作为次级排序键，保证时间戳相同的记录在重复分页时顺序稳定。
	offset := (filter.Page - 1) * filter.Limit
	err := db.Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// FindByID 根据记录 ID 查找一条日志记录。
func (r *logRepository) FindByID(logID uint) (*model.LogRecord, error) {
	var record model.LogRecord
	err := r.db.First(&record, logID).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DistinctDeviceIDs 返回去重后的设备 ID 列表，优先读 Redis 缓存。
func (r *logRepository) DistinctDeviceIDs(ctx context.Context) ([]string, error) {
	if r.redisClient != nil {
		cached, err := r.redisClient.Get(ctx, deviceCacheKey).Bytes()
		if err == nil {
			var deviceIDs []string
			if jsonErr := json.Unmarshal(cached, &deviceIDs); jsonErr == nil {
				return deviceIDs, nil
			}
		} else if err != redis.Nil {
			log.Warnf("[LogRepository] 读取设备列表缓存失败: %v", err)
		}
	}

	var deviceIDs []string
	err := r.db.Model(&model.LogRecord{}).
		Distinct("device_id").
		Order("device_id asc").
		Pluck("device_id", &deviceIDs).Error
	if err != nil {
		return nil, err
	}

	if r.redisClient != nil {
		if bytes, jsonErr := json.Marshal(deviceIDs); jsonErr == nil {
			if err := r.redisClient.Set(ctx, deviceCacheKey, bytes, deviceCacheTTL).Err(); err != nil {
				log.Warnf("[LogRepository] 写入设备列表缓存失败: %v", err)
			}
		}
	}
	return deviceIDs, nil
}
