// Package storage 提供了文件字节持久化的抽象。
// 默认使用本地文件系统后端，也可以通过配置切换到 MinIO 对象存储。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/SniperTei/nan-monitor-backend/internal/config"
)

// ErrNotExist 表示目标对象在存储后端中不存在。
var ErrNotExist = errors.New("storage: object does not exist")

// Storage 接口定义了文件字节的持久化操作。
// objectPath 是相对于存储根的路径，形如 "<category>/<storedName>"。
type Storage interface {
	// Save 将 r 中的全部字节写入 objectPath。
	// 写入是原子的：要么对象在 objectPath 完整可读，要么写入失败且最终路径上不残留部分内容。
	Save(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error

	// Open 打开 objectPath 处的对象用于读取。对象不存在时返回 ErrNotExist。
	Open(ctx context.Context, objectPath string) (io.ReadCloser, error)

	// Delete 删除 objectPath 处的对象。对象不存在时返回 ErrNotExist。
	Delete(ctx context.Context, objectPath string) error

	// Exists 判断 objectPath 处的对象是否存在。
	Exists(ctx context.Context, objectPath string) (bool, error)
}

// New 根据配置创建对应的存储后端实例。
func New(cfg config.StorageConfig, localRoot string) (Storage, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStorage(localRoot)
	case "minio":
		return NewMinIOStorage(cfg.MinIO)
	default:
		return nil, fmt.Errorf("未知的存储后端类型: %s", cfg.Backend)
	}
}
