package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// localStorage 是基于本地文件系统的 Storage 实现。
type localStorage struct {
	root string
}

// NewLocalStorage 创建一个本地文件系统存储实例，根目录不存在时自动创建。
func NewLocalStorage(root string) (Storage, error) {
	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		return nil, fmt.Errorf("创建存储根目录失败: %w", err)
	}
	return &localStorage{root: root}, nil
}

// Save 将字节写入 root/objectPath。
// 先写入同目录下的临时文件，成功后再原子地重命名到最终路径，
// 保证失败的写入不会在最终路径上留下截断的文件。
func (s *localStorage) Save(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error {
	finalPath := filepath.Join(s.root, filepath.FromSlash(objectPath))
	dir := filepath.Dir(finalPath)

	// 目录创建是幂等的，并发调用同一分类目录是安全的
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("创建分类目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("写入文件内容失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("移动文件到最终路径失败: %w", err)
	}
	return nil
}

// Open 打开 root/objectPath 处的文件。
func (s *localStorage) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(objectPath)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return f, nil
}

// Delete 删除 root/objectPath 处的文件。
func (s *localStorage) Delete(ctx context.Context, objectPath string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(objectPath)))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotExist
		}
		return err
	}
	return nil
}

// Exists 判断 root/objectPath 处的文件是否存在。
func (s *localStorage) Exists(ctx context.Context, objectPath string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(objectPath)))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
