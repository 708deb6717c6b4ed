package handler

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/SniperTei/nan-monitor-backend/internal/model"
	"github.com/SniperTei/nan-monitor-backend/internal/response"
	"github.com/SniperTei/nan-monitor-backend/internal/service"
	"github.com/SniperTei/nan-monitor-backend/pkg/log"
	"github.com/gin-gonic/gin"
)

// UploadHandler 负责处理所有与文件上传相关的 API 请求。
type UploadHandler struct {
	uploadService service.UploadService
	logService    service.LogService
}

// NewUploadHandler 创建一个新的 UploadHandler 实例。
func NewUploadHandler(uploadService service.UploadService, logService service.LogService) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		logService:    logService,
	}
}

// UploadImage 处理单文件图片上传的请求，分类由路由固定为 image。
func (h *UploadHandler) UploadImage(c *gin.Context) {
	h.uploadSingle(c, "image")
}

// UploadArchive 处理单文件压缩包上传的请求，分类由路由固定为 archive。
func (h *UploadHandler) UploadArchive(c *gin.Context) {
	h.uploadSingle(c, "archive")
}

// uploadSingle 是单分类上传接口的公共实现。
// 扩展名必须在该分类的白名单内，校验通过后才会落盘。
func (h *UploadHandler) uploadSingle(c *gin.Context, category string) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusOK, response.Error(response.CodeBadRequest, "请选择要上传的文件", http.StatusBadRequest))
		return
	}

	if _, err := h.uploadService.ValidateFile(fileHeader.Filename, fileHeader.Size, category); err != nil {
		c.JSON(http.StatusOK, response.FromError(err))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error("uploadSingle: failed to open uploaded file", err)
		c.JSON(http.StatusOK, response.ServerError())
		return
	}
	defer file.Close()

	info, err := h.uploadService.SaveFile(
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

	c.JSON(http.StatusOK, response.Success(info, "上传成功"))
}

// UploadFiles 处理统一批量上传的请求。
// 表单字段 files 最多 9 个文件；可选字段 deviceId、projectName、date、
// metadata（JSON 对象）、fileType。提供了 deviceId 时为每个文件创建日志记录。
func (h *UploadHandler) UploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusOK, response.Error(response.CodeBadRequest, "无效的 multipart 表单", http.StatusBadRequest))
		return
	}
	fileHeaders := form.File["files"]

	metadata, err := parseMetadataField(c.PostForm("metadata"))
	if err != nil {
		c.JSON(http.StatusOK, response.Error(response.CodeBadRequest, "metadata 必须是合法的 JSON 对象", http.StatusBadRequest))
		return
	}

	batchFiles := make([]service.BatchFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		fh := fh
		batchFiles = append(batchFiles, service.BatchFile{
			OriginalName: fh.Filename,
			Size:         fh.Size,
			MimeType:     fh.Header.Get("Content-Type"),
			Open: func() (io.ReadCloser, error) {
				return openMultipartFile(fh)
			},
		})
	}

	opts := service.BatchOptions{
		DeviceID:    c.PostForm("deviceId"),
		ProjectName: c.PostForm("projectName"),
		Date:        c.PostForm("date"),
		Metadata:    metadata,
		FileType:    c.PostForm("fileType"),
	}

	infos, err := h.logService.UploadLogFiles(c.Request.Context(), batchFiles, opts, currentUserID(c))
	if err != nil {
		resp := response.FromError(err)
		// 部分成功：文件已落盘但日志记录创建失败，描述符随错误一并返回
		if infos != nil {
			resp.Data = infos
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	c.JSON(http.StatusOK, response.Success(infos, "上传成功"))
}

// DeleteFile 处理删除已存储文件的请求，文件由存储文件名标识。
func (h *UploadHandler) DeleteFile(c *gin.Context) {
	filename := c.Param("filename")
	if filename == "" {
		c.JSON(http.StatusOK, response.ParamError("文件名不能为空"))
		return
	}

	if err := h.uploadService.DeleteFile(c.Request.Context(), filename); err != nil {
		c.JSON(http.StatusOK, response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(nil, "删除成功"))
}

// SupportedFileTypes 返回各分类允许的扩展名表。
func (h *UploadHandler) SupportedFileTypes(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(h.uploadService.SupportedFileTypes(), ""))
}

// parseMetadataField 解析表单中 JSON 编码的 metadata 字段，空值返回 nil。
func parseMetadataField(raw string) (model.JSONMap, error) {
	if raw == "" {
		return nil, nil
	}
	var metadata model.JSONMap
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}

// openMultipartFile 将 multipart 文件头打开为 io.ReadCloser。
func openMultipartFile(fh *multipart.FileHeader) (io.ReadCloser, error) {
	return fh.Open()
}
