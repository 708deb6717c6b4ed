// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/SniperTei/nan-monitor-backend/internal/config"
	"github.com/SniperTei/nan-monitor-backend/internal/response"
	"github.com/SniperTei/nan-monitor-backend/pkg/log"
	"github.com/SniperTei/nan-monitor-backend/pkg/storage"
	"github.com/google/uuid"
)

// CategoryOther 是所有未匹配到配置分类的文件的兜底分类。
// 只有统一批量上传接口接受该分类，单分类接口要求扩展名在白名单内。
const CategoryOther = "other"

// categoryOrder 是扩展名分类的固定优先级顺序。
// 分类必须按此顺序逐一匹配，保证同一扩展名的归类是确定性的，
// 与配置文件中 map 的遍历顺序无关。
var categoryOrder = []string{"image", "audio", "video", "document", "archive"}

// FileInfo 描述了一个已成功存储的文件。
// 它是接口返回值，不单独持久化；日志记录在创建时拷贝其中的字段。
type FileInfo struct {
	URL          string `json:"url"`
	FileName     string `json:"fileName"`     // 存储文件名（全局唯一）
	OriginalName string `json:"originalName"` // 调用方提供的原始文件名，不可信
	Size         int64  `json:"size"`
	MimeType     string `json:"mimeType"` // 调用方声明的 MIME 类型，仅供参考
	Type         string `json:"type"`     // 文件分类
}

// UploadService 接口定义了文件校验、存储和删除的业务操作。
type UploadService interface {
	// ClassifyFile 根据扩展名按固定优先级将文件归类，未匹配返回 CategoryOther。
	ClassifyFile(originalName string) string

	// ValidateFile 校验候选文件并返回其分类。
	// declaredCategory 非空时扩展名必须在该分类的白名单内；
	// 为空时按优先级自动归类，允许归入 CategoryOther。
	// 校验不做内容嗅探，信任声明的扩展名和大小，这是刻意的边界。
	ValidateFile(originalName string, size int64, declaredCategory string) (string, error)

	// SaveFile 将文件字节持久化到 storageRoot/<category>/<storedName> 并返回描述符。
	// 写入是全有或全无的：失败时最终路径上不会残留部分文件。
	SaveFile(ctx context.Context, r io.Reader, originalName string, size int64, mimeType, category string) (*FileInfo, error)

	// DeleteFile 按存储文件名在所有已知分类目录中查找并删除文件，
	// 也接受形如 "<category>/<storedName>" 的限定相对路径。
	// 删除文件不会触碰任何已拷贝其元数据的日志记录。
	DeleteFile(ctx context.Context, storedName string) error

	// SupportedFileTypes 返回各分类允许的扩展名表，供客户端展示。
	SupportedFileTypes() map[string][]string
}

type uploadService struct {
	store     storage.Storage
	uploadCfg config.UploadConfig
}

// NewUploadService 创建一个新的 UploadService 实例。
func NewUploadService(store storage.Storage, uploadCfg config.UploadConfig) UploadService {
	return &uploadService{
		store:     store,
		uploadCfg: uploadCfg,
	}
}

// ClassifyFile 根据扩展名按固定优先级将文件归类。
func (s *uploadService) ClassifyFile(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	for _, category := range categoryOrder {
		for _, allowed := range s.uploadCfg.AllowedTypes[category] {
			if ext == allowed {
				return category
			}
		}
	}
	return CategoryOther
}

// ValidateFile 校验候选文件的类型和大小并返回其分类。
func (s *uploadService) ValidateFile(originalName string, size int64, declaredCategory string) (string, error) {
	category := declaredCategory
	if declaredCategory != "" {
		ext := strings.ToLower(filepath.Ext(originalName))
		allowed := false
		for _, e := range s.uploadCfg.AllowedTypes[declaredCategory] {
			if ext == e {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", response.NewBusinessError(response.CodeBadRequest, "不支持的文件类型", http.StatusBadRequest)
		}
	} else {
		category = s.ClassifyFile(originalName)
	}

	if size > s.uploadCfg.MaxFileSize {
		msg := fmt.Sprintf("文件大小不能超过%dMB", s.uploadCfg.MaxFileSize/1024/1024)
		return "", response.NewBusinessError(response.CodeBadRequest, msg, http.StatusBadRequest)
	}

	return category, nil
}

// SaveFile 将文件字节持久化并返回公开描述符。
func (s *uploadService) SaveFile(ctx context.Context, r io.Reader, originalName string, size int64, mimeType, category string) (*FileInfo, error) {
	// 存储文件名 = UUID + 原始扩展名。
	// UUID 不依赖任何共享计数器，并发写入同名文件也不可能产生相同的存储名。
	ext := strings.ToLower(filepath.Ext(originalName))
	storedName := uuid.New().String() + ext
	objectPath := path.Join(category, storedName)

	if err := s.store.Save(ctx, objectPath, r, size, mimeType); err != nil {
		log.Errorf("[SaveFile] 保存文件失败, originalName: %s, objectPath: %s, error: %v", originalName, objectPath, err)
		return nil, response.NewBusinessError(response.CodeServerError, "文件保存失败", http.StatusInternalServerError)
	}

	info := &FileInfo{
		URL:          s.buildFileURL(category, storedName),
		FileName:     storedName,
		OriginalName: originalName,
		Size:         size,
		MimeType:     mimeType,
		Type:         category,
	}
	log.Infof("[SaveFile] 文件保存成功, originalName: %s, storedName: %s, category: %s, size: %d", originalName, storedName, category, size)
	return info, nil
}

// DeleteFile 删除一个已存储的文件。
func (s *uploadService) DeleteFile(ctx context.Context, storedName string) error {
	// 拒绝路径穿越
	if strings.Contains(storedName, "..") || strings.HasPrefix(storedName, "/") {
		return response.NewBusinessError(response.CodeBadRequest, "非法的文件名", http.StatusBadRequest)
	}

	// 限定相对路径：直接删除
	if strings.Contains(storedName, "/") {
		err := s.store.Delete(ctx, storedName)
		if errors.Is(err, storage.ErrNotExist) {
			return response.NewBusinessError(response.CodeNotFound, "文件不存在", http.StatusNotFound)
		}
		return err
	}

	// 仅有存储文件名：在所有已知分类目录中查找
	for _, category := range append(append([]string{}, categoryOrder...), CategoryOther) {
		err := s.store.Delete(ctx, path.Join(category, storedName))
		if err == nil {
			log.Infof("[DeleteFile] 文件删除成功, storedName: %s, category: %s", storedName, category)
			return nil
		}
		if !errors.Is(err, storage.ErrNotExist) {
			log.Errorf("[DeleteFile] 删除文件失败, storedName: %s, category: %s, error: %v", storedName, category, err)
			return err
		}
	}
	return response.NewBusinessError(response.CodeNotFound, "文件不存在", http.StatusNotFound)
}

// SupportedFileTypes 返回各分类允许的扩展名表。
func (s *uploadService) SupportedFileTypes() map[string][]string {
	types := make(map[string][]string, len(s.uploadCfg.AllowedTypes))
	for category, exts := range s.uploadCfg.AllowedTypes {
		types[category] = append([]string{}, exts...)
	}
	return types
}

// buildFileURL 拼接文件的公开访问地址。
func (s *uploadService) buildFileURL(category, storedName string) string {
	base := strings.TrimSuffix(s.uploadCfg.BaseURL, "/")
	return fmt.Sprintf("%s/%s/%s/%s", base, s.uploadCfg.UploadDir, category, storedName)
}
