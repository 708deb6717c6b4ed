package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/SniperTei/nan-monitor-backend/internal/model"
	"github.com/SniperTei/nan-monitor-backend/internal/repository"
	"github.com/SniperTei/nan-monitor-backend/internal/response"
	"github.com/SniperTei/nan-monitor-backend/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeLogRepository 是 LogRepository 的内存实现，
// 遵守与真实实现相同的排序契约：created_at 降序，相同时按 id 降序。
type fakeLogRepository struct {
	records []model.LogRecord
	nextID  uint
	// createErr 非 nil 时 Create 直接失败，用于模拟存储不可用
	createErr error
}

func newFakeLogRepository() *fakeLogRepository {
	return &fakeLogRepository{nextID: 1}
}

func (r *fakeLogRepository) Create(ctx context.Context, record *model.LogRecord) error {
	if r.createErr != nil {
		return r.createErr
	}
	record.ID = r.nextID
	r.nextID++
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeLogRepository) FindWithPagination(filter repository.LogFilter) ([]model.LogRecord, int64, error) {
	var matched []model.LogRecord
	for _, rec := range r.records {
		if filter.DeviceID != nil && rec.DeviceID != *filter.DeviceID {
			continue
		}
		if filter.Date != nil && rec.Date != *filter.Date {
			continue
		}
		matched = append(matched, rec)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	offset := (filter.Page - 1) * filter.Limit
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *fakeLogRepository) FindByID(logID uint) (*model.LogRecord, error) {
	for i := range r.records {
		if r.records[i].ID == logID {
			rec := r.records[i]
			return &rec, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeLogRepository) DistinctDeviceIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var ids []string
	for _, rec := range r.records {
		if _, ok := seen[rec.DeviceID]; !ok {
			seen[rec.DeviceID] = struct{}{}
			ids = append(ids, rec.DeviceID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func newTestLogService(t *testing.T) (LogService, *fakeLogRepository, string) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewLocalStorage(root)
	require.NoError(t, err)
	repo := newFakeLogRepository()
	uploadSvc := NewUploadService(store, testUploadConfig())
	return NewLogService(repo, uploadSvc, false), repo, root
}

func batchFile(name, content string) BatchFile {
	return BatchFile{
		OriginalName: name,
		Size:         int64(len(content)),
		MimeType:     "application/octet-stream",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

// countStoredFiles 统计存储根目录下的常规文件数量。
func countStoredFiles(t *testing.T, root string) int {
	t.Helper()
	count := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			count++
		}
		return nil
	})
	require.NoError(t, err)
	return count
}

func TestCreateLog(t *testing.T) {
	svc, repo, _ := newTestLogService(t)

	t.Run("设备ID为空", func(t *testing.T) {
		_, err := svc.CreateLog(context.Background(), CreateLogInput{}, nil, nil)
		var be *response.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, response.CodeBadRequest, be.Code)
		assert.Equal(t, "设备ID不能为空", be.Msg)
	})

	t.Run("日期缺省为当天UTC日期", func(t *testing.T) {
		record, err := svc.CreateLog(context.Background(), CreateLogInput{DeviceID: "device-001"}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, time.Now().UTC().Format(model.DateFormat), record.Date)
		assert.NotNil(t, record.Metadata)
		assert.False(t, record.HasFile())
	})

	t.Run("日期格式非法", func(t *testing.T) {
		_, err := svc.CreateLog(context.Background(), CreateLogInput{DeviceID: "device-001", Date: "2026/01/02"}, nil, nil)
		var be *response.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, response.CodeBadRequest, be.Code)
	})

	t.Run("关联文件时拷贝描述符字段", func(t *testing.T) {
		creatorID := uint(7)
		file := &FileInfo{
			URL:          "http://localhost:3000/uploads/other/abc.log",
			FileName:     "abc.log",
			OriginalName: "today.log",
			Size:         128,
		}
		record, err := svc.CreateLog(context.Background(), CreateLogInput{DeviceID: "device-002", Date: "2026-08-31"}, file, &creatorID)
		require.NoError(t, err)

		require.True(t, record.HasFile())
		assert.Equal(t, file.URL, *record.FileURL)
		// 记录保存的是原始文件名，不是存储文件名
		assert.Equal(t, "today.log", *record.FileName)
		assert.Equal(t, int64(128), *record.FileSize)
		assert.Equal(t, creatorID, *record.CreatedBy)

		// 记录是创建时刻的快照
		stored, err := repo.FindByID(record.ID)
		require.NoError(t, err)
		assert.Equal(t, *record.FileURL, *stored.FileURL)
	})
}

func TestUploadLogFiles(t *testing.T) {
	t.Run("空文件列表", func(t *testing.T) {
		svc, _, _ := newTestLogService(t)
		_, err := svc.UploadLogFiles(context.Background(), nil, BatchOptions{}, nil)
		var be *response.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, "请选择要上传的文件", be.Msg)
	})

	t.Run("超过数量上限整批拒绝且不落盘", func(t *testing.T) {
		svc, repo, root := newTestLogService(t)
		files := make([]BatchFile, MaxBatchFiles+1)
		for i := range files {
			files[i] = batchFile(fmt.Sprintf("f%d.log", i), "x")
		}
		_, err := svc.UploadLogFiles(context.Background(), files, BatchOptions{DeviceID: "d1"}, nil)
		var be *response.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, "单次最多上传9个文件", be.Msg)
		assert.Zero(t, countStoredFiles(t, root))
		assert.Empty(t, repo.records)
	})

	t.Run("任一文件校验失败整批拒绝且不落盘", func(t *testing.T) {
		svc, repo, root := newTestLogService(t)
		files := []BatchFile{
			batchFile("a.png", "x"),
			batchFile("b.txt", "x"), // 声明 image 分类，.txt 不在白名单内
		}
		_, err := svc.UploadLogFiles(context.Background(), files, BatchOptions{FileType: "image"}, nil)
		require.Error(t, err)
		assert.Zero(t, countStoredFiles(t, root))
		assert.Empty(t, repo.records)
	})

	t.Run("满批上传并为每个文件创建日志记录", func(t *testing.T) {
		svc, repo, root := newTestLogService(t)
		files := make([]BatchFile, MaxBatchFiles)
		for i := range files {
			files[i] = batchFile(fmt.Sprintf("f%d.log", i), "content")
		}
		opts := BatchOptions{
			DeviceID:    "device-batch",
			ProjectName: "nan-app",
			Date:        "2026-08-30",
			Metadata:    model.JSONMap{"buildNo": "42"},
		}
		infos, err := svc.UploadLogFiles(context.Background(), files, opts, nil)
		require.NoError(t, err)
		require.Len(t, infos, MaxBatchFiles)
		assert.Equal(t, MaxBatchFiles, countStoredFiles(t, root))

		// 返回顺序与输入顺序一致
		for i, info := range infos {
			assert.Equal(t, fmt.Sprintf("f%d.log", i), info.OriginalName)
		}

		require.Len(t, repo.records, MaxBatchFiles)
		for _, rec := range repo.records {
			assert.Equal(t, "device-batch", rec.DeviceID)
			assert.Equal(t, "2026-08-30", rec.Date)
			assert.Equal(t, "nan-app", rec.Metadata["projectName"])
			assert.Equal(t, "42", rec.Metadata["buildNo"])
			assert.True(t, rec.HasFile())
		}
	})

	t.Run("记录创建失败上报为部分成功", func(t *testing.T) {
		svc, repo, root := newTestLogService(t)
		repo.createErr = errors.New("persistence unavailable")

		infos, err := svc.UploadLogFiles(context.Background(), []BatchFile{
			batchFile("a.log", "x"),
			batchFile("b.log", "y"),
		}, BatchOptions{DeviceID: "d1"}, nil)

		// 文件已落盘，描述符必须随错误一并返回
		require.Error(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, 2, countStoredFiles(t, root))
		assert.Empty(t, repo.records)

		var be *response.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, response.CodeServerError, be.Code)
		assert.Contains(t, be.Msg, "a.log")
		assert.Contains(t, be.Msg, "b.log")
	})

	t.Run("未提供设备ID时只落盘不建记录", func(t *testing.T) {
		svc, repo, root := newTestLogService(t)
		infos, err := svc.UploadLogFiles(context.Background(), []BatchFile{batchFile("a.zip", "zzz")}, BatchOptions{}, nil)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, "archive", infos[0].Type)
		assert.Equal(t, 1, countStoredFiles(t, root))
		assert.Empty(t, repo.records)
	})
}

func TestGetLogs(t *testing.T) {
	svc, repo, _ := newTestLogService(t)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		rec := model.LogRecord{
			DeviceID:  "device-A",
			Date:      "2026-08-01",
			Metadata:  model.JSONMap{},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(context.Background(), &rec))
	}
	require.NoError(t, repo.Create(context.Background(), &model.LogRecord{
		DeviceID: "device-B", Date: "2026-08-02", Metadata: model.JSONMap{}, CreatedAt: base,
	}))

	t.Run("默认分页", func(t *testing.T) {
		result, err := svc.GetLogs(LogListQuery{})
		require.NoError(t, err)
		assert.Equal(t, int64(26), result.Pagination.Total)
		assert.Equal(t, 1, result.Pagination.Page)
		assert.Equal(t, DefaultPageSize, result.Pagination.Limit)
		assert.Equal(t, 3, result.Pagination.Pages)
		assert.Len(t, result.Logs, DefaultPageSize)
	})

	t.Run("最新记录在前", func(t *testing.T) {
		result, err := svc.GetLogs(LogListQuery{DeviceID: "device-A", Limit: 5})
		require.NoError(t, err)
		require.Len(t, result.Logs, 5)
		for i := 1; i < len(result.Logs); i++ {
			assert.False(t, result.Logs[i].CreatedAt.After(result.Logs[i-1].CreatedAt))
		}
	})

	t.Run("末页记录数", func(t *testing.T) {
		result, err := svc.GetLogs(LogListQuery{DeviceID: "device-A", Page: 3, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(25), result.Pagination.Total)
		assert.Equal(t, 3, result.Pagination.Pages)
		assert.Len(t, result.Logs, 5)
	})

	t.Run("组合筛选是AND关系", func(t *testing.T) {
		result, err := svc.GetLogs(LogListQuery{DeviceID: "device-B", Date: "2026-08-01"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.Pagination.Total)
		assert.NotNil(t, result.Logs)
		assert.Empty(t, result.Logs)
	})

	t.Run("越界参数被修正", func(t *testing.T) {
		result, err := svc.GetLogs(LogListQuery{Page: -3, Limit: 1000})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Pagination.Page)
		assert.Equal(t, MaxPageSize, result.Pagination.Limit)
	})

	t.Run("超出末页返回空页", func(t *testing.T) {
		result, err := svc.GetLogs(LogListQuery{Page: 99})
		require.NoError(t, err)
		assert.NotNil(t, result.Logs)
		assert.Empty(t, result.Logs)
		assert.Equal(t, int64(26), result.Pagination.Total)
	})
}

func TestGetDeviceIDs(t *testing.T) {
	svc, repo, _ := newTestLogService(t)

	ids, err := svc.GetDeviceIDs(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)

	for _, d := range []string{"b", "a", "b", "c"} {
		require.NoError(t, repo.Create(context.Background(), &model.LogRecord{DeviceID: d, Date: "2026-08-01", Metadata: model.JSONMap{}}))
	}
	ids, err = svc.GetDeviceIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestDownloadLog(t *testing.T) {
	svc, repo, _ := newTestLogService(t)

	t.Run("记录不存在", func(t *testing.T) {
		_, err := svc.DownloadLog(999)
		var be *response.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, response.CodeNotFound, be.Code)
		assert.Equal(t, "日志文件不存在", be.Msg)
	})

	t.Run("记录没有关联文件", func(t *testing.T) {
		rec := model.LogRecord{DeviceID: "d1", Date: "2026-08-01", Metadata: model.JSONMap{}}
		require.NoError(t, repo.Create(context.Background(), &rec))

		_, err := svc.DownloadLog(rec.ID)
		var be *response.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, response.CodeNotFound, be.Code)
	})

	t.Run("返回文件地址", func(t *testing.T) {
		url := "http://localhost:3000/uploads/other/abc.log"
		name := "today.log"
		size := int64(64)
		rec := model.LogRecord{
			DeviceID: "d1", Date: "2026-08-01", Metadata: model.JSONMap{},
			FileURL: &url, FileName: &name, FileSize: &size,
		}
		require.NoError(t, repo.Create(context.Background(), &rec))

		info, err := svc.DownloadLog(rec.ID)
		require.NoError(t, err)
		assert.Equal(t, url, info.URL)
		assert.Equal(t, name, info.FileName)
	})
}
