package storage

import (
	"context"
	"io"

	"github.com/SniperTei/nan-monitor-backend/internal/config"
	"github.com/SniperTei/nan-monitor-backend/pkg/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioStorage 是基于 MinIO 对象存储的 Storage 实现。
type minioStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIOStorage 初始化 MinIO 客户端并确保指定的存储桶存在。
func NewMinIOStorage(cfg config.MinIOConfig) (Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	// 检查存储桶 (Bucket) 是否存在，如果不存在则创建
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, err
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
		log.Infof("存储桶 '%s' 创建成功", cfg.BucketName)
	}

	return &minioStorage{client: client, bucket: cfg.BucketName}, nil
}

// Save 将字节上传到存储桶中的 objectPath。
// MinIO 的对象写入本身是原子的，上传失败不会留下可见的部分对象。
func (s *minioStorage) Save(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectPath, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Open 打开存储桶中 objectPath 处的对象。
func (s *minioStorage) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	// StatObject 先确认对象存在，GetObject 的错误是惰性返回的
	if _, err := s.client.StatObject(ctx, s.bucket, objectPath, minio.StatObjectOptions{}); err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, ErrNotExist
		}
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Delete 删除存储桶中 objectPath 处的对象。
func (s *minioStorage) Delete(ctx context.Context, objectPath string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, objectPath, minio.StatObjectOptions{}); err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return ErrNotExist
		}
		return err
	}
	return s.client.RemoveObject(ctx, s.bucket, objectPath, minio.RemoveObjectOptions{})
}

// Exists 判断存储桶中 objectPath 处的对象是否存在。
func (s *minioStorage) Exists(ctx context.Context, objectPath string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, objectPath, minio.StatObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
