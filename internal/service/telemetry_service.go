package service

import (
	"github.com/SniperTei/nan-monitor-backend/internal/model"
	"github.com/SniperTei/nan-monitor-backend/internal/repository"
	"github.com/SniperTei/nan-monitor-backend/pkg/log"
)

// TelemetryService 接口定义了设备端遥测数据（崩溃、性能）的业务操作。
type TelemetryService interface {
	ReportCrash(report *model.CrashReport) error
	ListCrashes() ([]model.CrashReport, error)
	ReportPerformance(report *model.PerformanceReport) error
	ListPerformance() ([]model.PerformanceReport, error)
}

type telemetryService struct {
	crashRepo repository.CrashRepository
	perfRepo  repository.PerformanceRepository
}

// NewTelemetryService 创建一个新的 TelemetryService 实例。
func NewTelemetryService(crashRepo repository.CrashRepository, perfRepo repository.PerformanceRepository) TelemetryService {
	return &telemetryService{
		crashRepo: crashRepo,
		perfRepo:  perfRepo,
	}
}

// ReportCrash 保存一条崩溃报告。
func (s *telemetryService) ReportCrash(report *model.CrashReport) error {
	if err := s.crashRepo.Create(report); err != nil {
		log.Errorf("[ReportCrash] 保存崩溃报告失败, error: %v", err)
		return err
	}
	return nil
}

// ListCrashes 按上报时间倒序返回所有崩溃报告。
func (s *telemetryService) ListCrashes() ([]model.CrashReport, error) {
	return s.crashRepo.FindAll()
}

// ReportPerformance 保存一条性能报告。
func (s *telemetryService) ReportPerformance(report *model.PerformanceReport) error {
	if err := s.perfRepo.Create(report); err != nil {
		log.Errorf("[ReportPerformance] 保存性能报告失败, error: %v", err)
		return err
	}
	return nil
}

// ListPerformance 按上报时间倒序返回所有性能报告。
func (s *telemetryService) ListPerformance() ([]model.PerformanceReport, error) {
	return s.perfRepo.FindAll()
}
