package handler

import (
	"net/http"

	"github.com/SniperTei/nan-monitor-backend/internal/model"
	"github.com/SniperTei/nan-monitor-backend/internal/response"
	"github.com/SniperTei/nan-monitor-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// TelemetryHandler 负责处理设备端遥测上报相关的 API 请求。
type TelemetryHandler struct {
	telemetryService service.TelemetryService
}

// NewTelemetryHandler 创建一个新的 TelemetryHandler 实例。
func NewTelemetryHandler(telemetryService service.TelemetryService) *TelemetryHandler {
	return &TelemetryHandler{telemetryService: telemetryService}
}

// ReportCrash 处理崩溃报告上报的请求。设备端直接调用，不要求认证。
func (h *TelemetryHandler) ReportCrash(c *gin.Context) {
	var report model.CrashReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusOK, response.ParamError("无效的请求负载"))
		return
	}

	if err := h.telemetryService.ReportCrash(&report); err != nil {
		c.JSON(http.StatusOK, response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"id": report.ID}, "崩溃报告已保存"))
}

// ListCrashes 处理崩溃报告列表查询的请求，仅管理员可用。
func (h *TelemetryHandler) ListCrashes(c *gin.Context) {
	reports, err := h.telemetryService.ListCrashes()
	if err != nil {
		c.JSON(http.StatusOK, response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(reports, ""))
}

// ReportPerformance 处理性能报告上报的请求。设备端直接调用，不要求认证。
func (h *TelemetryHandler) ReportPerformance(c *gin.Context) {
	var report model.PerformanceReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusOK, response.ParamError("无效的请求负载"))
		return
	}

	if err := h.telemetryService.ReportPerformance(&report); err != nil {
		c.JSON(http.StatusOK, response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"id": report.ID}, "性能报告已保存"))
}

// ListPerformance 处理性能报告列表查询的请求，仅管理员可用。
func (h *TelemetryHandler) ListPerformance(c *gin.Context) {
	reports, err := h.telemetryService.ListPerformance()
	if err != nil {
		c.JSON(http.StatusOK, response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(reports, ""))
}
