package cron

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qs3c/contract_critic/internal/pkg/logger"
	"github.com/qs3c/contract_critic/internal/pkg/storage"
	"github.com/qs3c/contract_critic/internal/repository"
	"github.com/qs3c/contract_critic/internal/service"
)

const (
	sweepInterval = time.Hour

	// 进程在分析中途退出时合同会停留在 processing
	staleProcessingAfter = 30 * time.Minute
	staleProcessingMsg   = "分析中断，请重新提交"
)

type Service struct {
	quotaService *service.QuotaService
	contractRepo *repository.ContractRepository
	localStore   *storage.LocalStorage
	orphanExpire time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewService localStore 为 nil 时（对象存储）跳过孤儿文件清理
func NewService(
	quotaService *service.QuotaService,
	contractRepo *repository.ContractRepository,
	localStore *storage.LocalStorage,
	orphanExpireHours int,
) *Service {
	if orphanExpireHours <= 0 {
		orphanExpireHours = 1
	}
	return &Service{
		quotaService: quotaService,
		contractRepo: contractRepo,
		localStore:   localStore,
		orphanExpire: time.Duration(orphanExpireHours) * time.Hour,
		stopChan:     make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	s.wg.Add(2)
	go s.runDailyQuotaReset()
	go s.runHourlySweep()
	logger.Infof("cron service started (quota reset + hourly sweep)")
}

// Stop 停止定时任务并等待退出
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	logger.Infof("cron service stopped")
}

// runDailyQuotaReset 每天 UTC 零点重置配额
func (s *Service) runDailyQuotaReset() {
	defer s.wg.Done()

	timer := time.NewTimer(untilNextMidnight(time.Now()))
	defer timer.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-timer.C:
			s.resetDailyQuotas()
			timer.Reset(untilNextMidnight(time.Now()))
		}
	}
}

func untilNextMidnight(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return next.Sub(now)
}

func (s *Service) resetDailyQuotas() {
	if err := s.quotaService.ResetAllQuotas(); err != nil {
		logger.LogError("cron", "resetDailyQuotas", nil, err)
		return
	}
	logger.Infof("daily quota reset completed")
}

func (s *Service) runHourlySweep() {
	defer s.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

// sweep 一次维护：回收中断的分析并清理孤儿文件
func (s *Service) sweep(now time.Time) {
	if s.contractRepo == nil {
		return
	}

	n, err := s.contractRepo.FailStaleProcessing(now.Add(-staleProcessingAfter), staleProcessingMsg)
	if err != nil {
		logger.LogError("cron", "FailStaleProcessing", nil, err)
	} else if n > 0 {
		logger.WithFields(logrus.Fields{"contracts": n}).Warn("marked interrupted analyses as failed")
	}

	if s.localStore == nil {
		return
	}
	report, err := SweepOrphans(context.Background(), s.localStore, s.contractRepo, now.Add(-s.orphanExpire), false)
	if err != nil {
		logger.LogError("cron", "SweepOrphans", nil, err)
		return
	}
	if report.Removed > 0 {
		logger.WithFields(logrus.Fields{
			"removed":     report.Removed,
			"freed_bytes": report.FreedBytes,
		}).Info("orphan contract files removed")
	}
}

// RunNow 立即执行配额重置（手动触发）
func (s *Service) RunNow() error {
	return s.quotaService.ResetAllQuotas()
}
