package handler

import (
	"net/http"
	"strconv"

	"github.com/SniperTei/nan-monitor-backend/internal/response"
	"github.com/SniperTei/nan-monitor-backend/internal/service"
	"github.com/SniperTei/nan-monitor-backend/pkg/log"
	"github.com/gin-gonic/gin"
)

// LogHandler 负责处理所有与日志记录相关的 API 请求。
type LogHandler struct {
	logService    service.LogService
	uploadService service.UploadService
}

// NewLogHandler 创建一个新的 LogHandler 实例。
func NewLogHandler(logService service.LogService, uploadService service.UploadService) *LogHandler {
	return &LogHandler{
		logService:    logService,
		uploadService: uploadService,
	}
}

// CreateLog 处理创建单条日志记录的请求。
// multipart 表单字段：deviceId（必填）、date、metadata（JSON 对象）、file（可选附件）。
func (h *LogHandler) CreateLog(c *gin.Context) {
	deviceID := c.PostForm("deviceId")
	date := c.PostForm("date")

	metadata, err := parseMetadataField(c.PostForm("metadata"))
	if err != nil {
		c.JSON(http.StatusOK, response.Error(response.CodeBadRequest, "metadata 必须是合法的 JSON 对象", http.StatusBadRequest))
		return
	}

	// 可选附件：先校验再落盘，校验失败不产生任何副作用
	var fileInfo *service.FileInfo
	if fileHeader, err := c.FormFile("file"); err == nil {
		category, err := h.uploadService.ValidateFile(fileHeader.Filename, fileHeader.Size, "")
		if err != nil {
			c.JSON(http.StatusOK, response.FromError(err))
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			log.Error("CreateLog: failed to open uploaded file", err)
			c.JSON(http.StatusOK, response.ServerError())
			return
		}
		defer file.Close()

		fileInfo, err = h.uploadService.SaveFile(
			c.Request.Context(),
			file,
			fileHeader.Filename,
			fileHeader.Size,
			fileHeader.Header.Get("Content-Type"),
			category,
		)
		if err != nil {
			c.JSON(http.StatusOK, response.FromError(err))
			return
		}
	}

	input := service.CreateLogInput{
		DeviceID: deviceID,
		Date:     date,
		Metadata: metadata,
	}
	record, err := h.logService.CreateLog(c.Request.Context(), input, fileInfo, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusOK, response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(record, "日志上传成功"))
}

// GetLogs 处理日志列表查询的请求。
// 查询参数：deviceId、date（YYYY-MM-DD 精确匹配）、page（默认 1）、limit（默认 10）。
func (h *LogHandler) GetLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.logService.GetLogs(service.LogListQuery{
		DeviceID: c.Query("deviceId"),
		Date:     c.Query("date"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		c.JSON(http.StatusOK, response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(result, ""))
}

// GetDeviceIDs 处理设备列表枚举的请求。
func (h *LogHandler) GetDeviceIDs(c *gin.Context) {
	deviceIDs, err := h.logService.GetDeviceIDs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(deviceIDs, ""))
}

// DownloadLog 处理解析日志文件下载地址的请求。
// 返回文件的 url 和原始文件名，由调用方自行获取字节。
func (h *LogHandler) DownloadLog(c *gin.Context) {
	logID, err := strconv.ParseUint(c.Param("logId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, response.ParamError("无效的日志ID"))
		return
	}

	info, err := h.logService.DownloadLog(uint(logID))
	if err != nil {
		c.JSON(http.StatusOK, response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(info, ""))
}
