/*
 * @module service/scheduler/etl_scheduler
 * @description ETL定时调度器，按cron表达式周期性触发完整运行
 * @architecture 分层架构 - 服务层，调度与执行分离
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 注册cron任务 -> 到点触发运行 -> 运行互斥由运行锁保证
 * @rules cron表达式为空时调度器不启动；触发时已有运行在进行则本次跳过
 * @dependencies github.com/robfig/cron/v3
 * @refs service/etl_run_service.go, service/init.go
 */

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// RunFunc 调度器触发的运行入口
type RunFunc func(ctx context.Context) error

// EtlScheduler ETL定时调度器
type EtlScheduler struct {
	cron   *cron.Cron
	runner RunFunc
	spec   string
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewEtlScheduler 创建调度器，spec为空时返回的调度器Start为空操作
func NewEtlScheduler(spec string, runner RunFunc, logger *slog.Logger) *EtlScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &EtlScheduler{
		cron:   cron.New(cron.WithSeconds()),
		runner: runner,
		spec:   spec,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 注册并启动定时任务
func (s *EtlScheduler) Start() error {
	if s.spec == "" {
		s.logger.Info("未配置调度表达式，定时运行未启用")
		return nil
	}

	_, err := s.cron.AddFunc(s.spec, s.triggerRun)
	if err != nil {
		return fmt.Errorf("注册调度任务失败: %w", err)
	}

	s.cron.Start()
	s.logger.Info("ETL定时调度器启动完成", "spec", s.spec)
	return nil
}

// Stop 停止调度器，已触发的运行不会被中断
func (s *EtlScheduler) Stop() {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	s.logger.Info("ETL定时调度器已停止")
}

// triggerRun 到点触发一次运行
func (s *EtlScheduler) triggerRun() {
	s.logger.Info("定时触发ETL运行")

	if err := s.runner(s.ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Error("定时运行失败", "error", err)
	}
}
