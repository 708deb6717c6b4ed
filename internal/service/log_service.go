package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/SniperTei/nan-monitor-backend/internal/model"
	"github.com/SniperTei/nan-monitor-backend/internal/repository"
	"github.com/SniperTei/nan-monitor-backend/internal/response"
	"github.com/SniperTei/nan-monitor-backend/pkg/events"
	"github.com/SniperTei/nan-monitor-backend/pkg/kafka"
	"github.com/SniperTei/nan-monitor-backend/pkg/log"
	"gorm.io/gorm"
)

const (
	// MaxBatchFiles 是统一批量上传接口单次允许的最大文件数。
	MaxBatchFiles = 9

	// DefaultPageSize 是日志列表的默认每页条数。
	DefaultPageSize = 10

	// MaxPageSize 是日志列表允许的最大每页条数。
	MaxPageSize = 100
)

// CreateLogInput 是创建单条日志记录的输入。
type CreateLogInput struct {
	DeviceID string
	// Date 是记录的逻辑日期（YYYY-MM-DD），为空时取创建当天的 UTC 日期
	Date     string
	Metadata model.JSONMap
}

// BatchFile 是批量上传中的一个候选文件。
// Open 延迟打开文件内容，校验阶段不产生任何副作用。
type BatchFile struct {
	OriginalName string
	Size         int64
	MimeType     string
	Open         func() (io.ReadCloser, error)
}

// BatchOptions 是统一批量上传接口的可选表单字段。
type BatchOptions struct {
	DeviceID    string
	ProjectName string
	Date        string
	Metadata    model.JSONMap
	// FileType 为所有文件声明统一的分类；为空时按扩展名自动归类
	FileType string
}

// LogListQuery 是日志列表接口的查询参数。
type LogListQuery struct {
	DeviceID string
	Date     string
	Page     int
	Limit    int
}

// Pagination 是列表接口返回的分页信息。
// 约定 Pages == ceil(Total / Limit)，且单页记录数不超过 Limit。
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// LogListResult 是日志列表接口的返回值。
type LogListResult struct {
	Logs       []model.LogRecord `json:"logs"`
	Pagination Pagination        `json:"pagination"`
}

// LogDownloadInfo 是日志文件下载接口的返回值。
// 返回的是文件地址而不是字节流，由调用方自行获取。
type LogDownloadInfo struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

// LogService 接口定义了日志记录相关的业务操作。
type LogService interface {
	// CreateLog 创建一条日志记录。file 非空时将其描述符字段拷贝到记录上，
	// 记录持有的是创建时刻的快照，之后文件被删除也不会影响记录。
	CreateLog(ctx context.Context, input CreateLogInput, file *FileInfo, creatorID *uint) (*model.LogRecord, error)

	// UploadLogFiles 处理统一批量上传：全部校验通过后才开始落盘，
	// 提供了 deviceId 时为每个落盘成功的文件创建一条日志记录。
	// 返回的描述符与输入文件顺序一致。文件已落盘但记录创建失败时，
	// 同时返回全部描述符和一个列出失败文件的错误（部分成功）。
	UploadLogFiles(ctx context.Context, files []BatchFile, opts BatchOptions, creatorID *uint) ([]*FileInfo, error)

	// GetLogs 按条件分页查询日志记录，多个条件之间是 AND 关系。
	GetLogs(query LogListQuery) (*LogListResult, error)

	// GetDeviceIDs 返回去重后的设备 ID 列表。
	GetDeviceIDs(ctx context.Context) ([]string, error)

	// DownloadLog 解析一条日志记录关联的文件地址。
	DownloadLog(logID uint) (*LogDownloadInfo, error)
}

type logService struct {
	logRepo       repository.LogRepository
	uploadService UploadService
	kafkaEnabled  bool
}

// NewLogService 创建一个新的 LogService 实例。
func NewLogService(logRepo repository.LogRepository, uploadService UploadService, kafkaEnabled bool) LogService {
	return &logService{
		logRepo:       logRepo,
		uploadService: uploadService,
		kafkaEnabled:  kafkaEnabled,
	}
}

// CreateLog 创建一条日志记录。
func (s *logService) CreateLog(ctx context.Context, input CreateLogInput, file *FileInfo, creatorID *uint) (*model.LogRecord, error) {
	if input.DeviceID == "" {
		return nil, response.NewBusinessError(response.CodeBadRequest, "设备ID不能为空", http.StatusBadRequest)
	}

	date := input.Date
	if date == "" {
		date = time.Now().UTC().Format(model.DateFormat)
	} else if _, err := time.Parse(model.DateFormat, date); err != nil {
		return nil, response.NewBusinessError(response.CodeBadRequest, "日期格式必须为YYYY-MM-DD", http.StatusBadRequest)
	}

	metadata := input.Metadata
	if metadata == nil {
		metadata = model.JSONMap{}
	}

	record := &model.LogRecord{
		DeviceID:  input.DeviceID,
		Date:      date,
		Metadata:  metadata,
		CreatedBy: creatorID,
	}
	// 文件字段要么全部设置要么全部为空
	if file != nil {
		record.FileURL = &file.URL
		record.FileName = &file.OriginalName
		record.FileSize = &file.Size
	}

	if err := s.logRepo.Create(ctx, record); err != nil {
		log.Errorf("[CreateLog] 创建日志记录失败, deviceId: %s, error: %v", input.DeviceID, err)
		return nil, err
	}
	log.Infof("[CreateLog] 日志记录创建成功, id: %d, deviceId: %s, date: %s", record.ID, record.DeviceID, record.Date)

	s.publishIngestedEvent(ctx, record)
	return record, nil
}

// UploadLogFiles 处理统一批量上传。
func (s *logService) UploadLogFiles(ctx context.Context, files []BatchFile, opts BatchOptions, creatorID *uint) ([]*FileInfo, error) {
	if len(files) == 0 {
		return nil, response.NewBusinessError(response.CodeBadRequest, "请选择要上传的文件", http.StatusBadRequest)
	}
	if len(files) > MaxBatchFiles {
		return nil, response.NewBusinessError(response.CodeBadRequest, "单次最多上传9个文件", http.StatusBadRequest)
	}

	// 第一阶段：全部校验。任何一个文件不合法则整批拒绝，不产生任何落盘。
	categories := make([]string, len(files))
	for i, f := range files {
		category, err := s.uploadService.ValidateFile(f.OriginalName, f.Size, opts.FileType)
		if err != nil {
			return nil, err
		}
		categories[i] = category
	}

	// 第二阶段：按输入顺序落盘。
	// 中途失败会中止整批并返回错误，此前已落盘的文件不回滚（沿用来源行为）。
	infos := make([]*FileInfo, 0, len(files))
	for i, f := range files {
		info, err := s.saveBatchFile(ctx, f, categories[i])
		if err != nil {
			log.Errorf("[UploadLogFiles] 批量上传在第 %d 个文件处失败, fileName: %s, error: %v", i+1, f.OriginalName, err)
			return nil, err
		}
		infos = append(infos, info)
	}

	// 第三阶段：提供了 deviceId 时为每个文件创建日志记录。
	// 记录创建失败不撤销已完成的落盘，但必须作为部分成功上报：
	// 返回全部描述符和一个列出失败文件的错误，调用方据此区分产物状态。
	if opts.DeviceID != "" {
		metadata := model.JSONMap{}
		for k, v := range opts.Metadata {
			metadata[k] = v
		}
		if opts.ProjectName != "" {
			metadata["projectName"] = opts.ProjectName
		}

		var failed []string
		for _, info := range infos {
			input := CreateLogInput{
				DeviceID: opts.DeviceID,
				Date:     opts.Date,
				Metadata: metadata,
			}
			if _, err := s.CreateLog(ctx, input, info, creatorID); err != nil {
				log.Errorf("[UploadLogFiles] 为文件 %s 创建日志记录失败: %v", info.OriginalName, err)
				failed = append(failed, info.OriginalName)
			}
		}
		if len(failed) > 0 {
			msg := fmt.Sprintf("以下文件已保存但日志记录创建失败: %s", strings.Join(failed, ", "))
			return infos, response.NewBusinessError(response.CodeServerError, msg, http.StatusInternalServerError)
		}
	}

	return infos, nil
}

// saveBatchFile 打开、落盘并关闭一个批量文件。
func (s *logService) saveBatchFile(ctx context.Context, f BatchFile, category string) (*FileInfo, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return s.uploadService.SaveFile(ctx, rc, f.OriginalName, f.Size, f.MimeType, category)
}

// GetLogs 按条件分页查询日志记录。
func (s *logService) GetLogs(query LogListQuery) (*LogListResult, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	filter := repository.LogFilter{Page: page, Limit: limit}
	if query.DeviceID != "" {
		filter.DeviceID = &query.DeviceID
	}
	if query.Date != "" {
		filter.Date = &query.Date
	}

	records, total, err := s.logRepo.FindWithPagination(filter)
	if err != nil {
		log.Errorf("[GetLogs] 查询日志记录失败, error: %v", err)
		return nil, err
	}
	if records == nil {
		records = []model.LogRecord{}
	}

	return &LogListResult{
		Logs: records,
		Pagination: Pagination{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: int(math.Ceil(float64(total) / float64(limit))),
		},
	}, nil
}

// GetDeviceIDs 返回去重后的设备 ID 列表。
func (s *logService) GetDeviceIDs(ctx context.Context) ([]string, error) {
	deviceIDs, err := s.logRepo.DistinctDeviceIDs(ctx)
	if err != nil {
		log.Errorf("[GetDeviceIDs] 查询设备列表失败, error: %v", err)
		return nil, err
	}
	if deviceIDs == nil {
		deviceIDs = []string{}
	}
	return deviceIDs, nil
}

// DownloadLog 解析一条日志记录关联的文件地址。
func (s *logService) DownloadLog(logID uint) (*LogDownloadInfo, error) {
	record, err := s.logRepo.FindByID(logID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewBusinessError(response.CodeNotFound, "日志文件不存在", http.StatusNotFound)
		}
		return nil, err
	}
	if !record.HasFile() {
		return nil, response.NewBusinessError(response.CodeNotFound, "日志文件不存在", http.StatusNotFound)
	}

	fileName := ""
	if record.FileName != nil {
		fileName = *record.FileName
	}
	return &LogDownloadInfo{
		URL:      *record.FileURL,
		FileName: fileName,
	}, nil
}

// publishIngestedEvent 发布日志入库事件，发布失败只记日志不影响主流程。
func (s *logService) publishIngestedEvent(ctx context.Context, record *model.LogRecord) {
	if !s.kafkaEnabled || !kafka.Enabled() {
		return
	}

	event := events.LogIngestedEvent{
		LogID:    record.ID,
		DeviceID: record.DeviceID,
		Date:     record.Date,
	}
	if record.FileURL != nil {
		event.FileURL = *record.FileURL
	}
	if record.FileName != nil {
		event.FileName = *record.FileName
	}
	if record.FileSize != nil {
		event.FileSize = *record.FileSize
	}
	if record.CreatedBy != nil {
		event.CreatedBy = *record.CreatedBy
	}

	if err := kafka.ProduceLogIngestedEvent(ctx, event); err != nil {
		log.Warnf("[publishIngestedEvent] 发布日志入库事件失败, logId: %d, error: %v", record.ID, err)
	}
}
