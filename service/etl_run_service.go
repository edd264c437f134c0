/*
 * @module service/etl_run_service
 * @description ETL运行协调服务，串联抽取、转换、上载与运行记录
 * @architecture 分层架构 - 服务层，核心转换与各适配器之间的编排者
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 获取运行锁 -> 抽取 -> 流水线转换 -> 仓库上载/本地降级 -> SQL变换 -> 运行记录与事件
 * @rules 仓库上载失败降级为本地JSONL，不让单表失败中止整个运行；同一时刻只允许一个运行
 * @dependencies gorm.io/gorm, service/etl, service/warehouse, service/output
 * @refs api/controllers/etl_controller.go, service/scheduler/etl_scheduler.go
 */

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"whatsapp-etl-service/service/etl"
	"whatsapp-etl-service/service/event"
	"whatsapp-etl-service/service/extractor"
	"whatsapp-etl-service/service/lock"
	"whatsapp-etl-service/service/metrics"
	"whatsapp-etl-service/service/models"
	"whatsapp-etl-service/service/output"
	"whatsapp-etl-service/service/warehouse"
)

// ErrRunInProgress 已有运行尚未结束
var ErrRunInProgress = errors.New("已有ETL运行正在进行")

// 运行锁键和默认锁过期时间
const (
	runLockKey     = "pipeline"
	defaultLockTTL = 30 * time.Minute
)

// RunConfig ETL运行配置
type RunConfig struct {
	// Dataset 仓库数据集名
	Dataset string
	// StrictRecords 严格模式下降级构造的派生记录也丢弃
	StrictRecords bool
	// LocalOutputDir 本地降级输出目录
	LocalOutputDir string
	// LockTTL 运行锁过期时间，零值取默认
	LockTTL time.Duration
}

// EtlRunService ETL运行协调服务
type EtlRunService struct {
	db        *gorm.DB // 可为nil，代表未配置数据仓库
	extractor extractor.Extractor
	loader    *warehouse.Loader
	transform *warehouse.SQLTransformer
	local     *output.JSONLWriter
	runLock   lock.RunLock
	notifier  event.RunNotifier
	config    RunConfig
	logger    *slog.Logger

	mutex      sync.RWMutex
	lastReport *models.DataQualityReport
	memoryRuns []models.EtlRun // 无仓库时的内存运行历史
}

// NewEtlRunService 创建运行协调服务，db为nil时所有产物走本地输出
func NewEtlRunService(db *gorm.DB, ext extractor.Extractor, runLock lock.RunLock,
	notifier event.RunNotifier, config RunConfig, logger *slog.Logger) *EtlRunService {
	if logger == nil {
		logger = slog.Default()
	}
	if runLock == nil {
		runLock = lock.NoopLock{}
	}
	if notifier == nil {
		notifier = event.NoopNotifier{}
	}
	if config.LockTTL == 0 {
		config.LockTTL = defaultLockTTL
	}

	service := &EtlRunService{
		db:        db,
		extractor: ext,
		runLock:   runLock,
		notifier:  notifier,
		config:    config,
		logger:    logger,
		local:     output.NewJSONLWriter(config.LocalOutputDir, logger),
	}
	if db != nil {
		service.loader = warehouse.NewLoader(db, config.Dataset, logger)
		service.transform = warehouse.NewSQLTransformer(db, config.Dataset, logger)
	}
	return service
}

// Run 执行一次完整的ETL运行
func (s *EtlRunService) Run(ctx context.Context) (*models.EtlRun, error) {
	acquired, err := s.runLock.TryLock(ctx, runLockKey, s.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("获取运行锁失败: %w", err)
	}
	if !acquired {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := s.runLock.Unlock(context.Background(), runLockKey); err != nil {
			s.logger.Warn("释放运行锁失败", "error", err)
		}
	}()

	started := time.Now()
	run := models.EtlRun{StartedAt: started, Status: models.EtlRunStatusFailed}

	messages, statuses, err := s.extractor.Extract(ctx)
	if err != nil {
		return s.finishRun(ctx, run, started, fmt.Errorf("数据抽取失败: %w", err))
	}

	pipeline := etl.NewPipeline(etl.PipelineConfig{
		DatasetName:   s.config.Dataset,
		StrictRecords: s.config.StrictRecords,
	}, s.logger)
	result, err := pipeline.Execute(messages, statuses)
	if err != nil {
		return s.finishRun(ctx, run, started, fmt.Errorf("流水线执行失败: %w", err))
	}

	summary := result.QualityReport.GetSummary()
	run.TotalMessages = result.QualityReport.TotalMessages
	run.TotalStatuses = result.QualityReport.TotalStatuses
	run.DuplicatesFound = result.QualityReport.DuplicatesFound
	run.MissingRequiredFields = result.QualityReport.MissingRequiredFields
	run.InvalidStatuses = result.QualityReport.InvalidStatuses
	run.QualityScore = summary.DataQualityScore
	run.QualityChecks = models.JSONB{
		"checks":         result.QualityReport.Checks,
		"errors_found":   summary.ErrorsFound,
		"warnings_found": summary.WarningsFound,
	}

	run.UploadTarget, run.UploadedTables = s.persist(ctx, result)
	run.Status = models.EtlRunStatusSuccess

	s.mutex.Lock()
	s.lastReport = result.QualityReport
	s.mutex.Unlock()

	metrics.RecordQuality(float64(summary.DataQualityScore), len(result.UnifiedMessages))
	return s.finishRun(ctx, run, started, nil)
}

// persist 优先上载数据仓库，不可用或全部失败时降级为本地JSONL
func (s *EtlRunService) persist(ctx context.Context, result *etl.PipelineResult) (target string, uploaded int) {
	if s.loader != nil && s.loader.Available(ctx) {
		uploaded = s.uploadWarehouse(ctx, result)
		if uploaded > 0 {
			return "warehouse", uploaded
		}
		s.logger.Warn("仓库上载全部失败，降级为本地输出")
	}
	return "local", s.writeLocal(result)
}

// uploadWarehouse 逐表上载，统计成功表数，单表失败只记日志
func (s *EtlRunService) uploadWarehouse(ctx context.Context, result *etl.PipelineResult) int {
	if err := s.loader.EnsureDataset(ctx); err != nil {
		s.logger.Error("数据集创建失败", "error", err)
		return 0
	}

	tables := []struct {
		name    string
		columns []string
		data    etl.Table
	}{
		{warehouse.TableUnified, etl.UnifiedColumns(), result.UnifiedMessages},
		{warehouse.TableStatusFlat, etl.StatusFlatColumns(), result.StatusFlat},
		{warehouse.TableMessagesRaw, nil, result.CleanedMessages},
		{warehouse.TableStatusesRaw, nil, result.CleanedStatuses},
		{warehouse.TableDuplicates, nil, duplicatesToTable(result.Duplicates)},
	}

	uploaded := 0
	for _, table := range tables {
		if err := s.loader.LoadTable(ctx, table.name, table.columns, table.data, warehouse.LoadModeReplace); err != nil {
			s.logger.Error("表上载失败", "table", table.name, "error", err)
			continue
		}
		uploaded++
	}

	// 原始表就位后在仓库侧重建SQL变换结果
	if uploaded == len(tables) {
		if err := s.transform.Apply(ctx); err != nil {
			s.logger.Error("SQL变换执行失败", "error", err)
		}
	}
	return uploaded
}

// writeLocal 本地降级输出：统一视图与重复记录JSONL，质量报告单独落盘
func (s *EtlRunService) writeLocal(result *etl.PipelineResult) int {
	written := 0
	tables := map[string]etl.Table{
		warehouse.TableUnified:    result.UnifiedMessages,
		warehouse.TableDuplicates: duplicatesToTable(result.Duplicates),
	}
	for name, table := range tables {
		if err := s.local.WriteTable(name, table); err != nil {
			s.logger.Error("本地输出失败", "table", name, "error", err)
			continue
		}
		written++
	}
	if err := s.local.WriteReport("quality_report", result.QualityReport); err != nil {
		s.logger.Error("质量报告落盘失败", "error", err)
	}
	return written
}

// finishRun 落运行记录、上报指标并发布事件，统一处理成功与失败两条路径
func (s *EtlRunService) finishRun(ctx context.Context, run models.EtlRun, started time.Time, runErr error) (*models.EtlRun, error) {
	run.DurationMs = time.Since(started).Milliseconds()
	if runErr != nil {
		run.Status = models.EtlRunStatusFailed
		run.ErrorMessage = runErr.Error()
		s.logger.Error("ETL运行失败", "error", runErr, "duration_ms", run.DurationMs)
	} else {
		s.logger.Info("ETL运行完成", "duration_ms", run.DurationMs,
			"quality_score", run.QualityScore, "upload_target", run.UploadTarget)
	}

	s.saveRun(ctx, &run)
	metrics.RecordRun(run.Status, time.Duration(run.DurationMs)*time.Millisecond)

	notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	notifyErr := s.notifier.NotifyRunCompleted(notifyCtx, event.RunEvent{
		RunID:        run.ID,
		Status:       run.Status,
		MessageCount: run.TotalMessages,
		StatusCount:  run.TotalStatuses,
		QualityScore: float64(run.QualityScore),
		DurationMs:   run.DurationMs,
		FinishedAt:   time.Now(),
	})
	if notifyErr != nil {
		s.logger.Warn("运行事件发布失败", "error", notifyErr)
	}

	return &run, runErr
}

// saveRun 运行记录落库，无仓库时保留在内存历史中
func (s *EtlRunService) saveRun(ctx context.Context, run *models.EtlRun) {
	if s.db != nil {
		if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
			s.logger.Error("运行记录落库失败", "error", err)
		}
		return
	}

	if run.ID == "" {
		run.ID = fmt.Sprintf("mem-%d", time.Now().UnixNano())
	}
	s.mutex.Lock()
	s.memoryRuns = append(s.memoryRuns, *run)
	s.mutex.Unlock()
}

// LastReport 最近一次运行的质量报告，尚未运行过时返回nil
func (s *EtlRunService) LastReport() *models.DataQualityReport {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastReport
}

// ListRuns 按开始时间倒序返回运行历史
func (s *EtlRunService) ListRuns(ctx context.Context, limit int) ([]models.EtlRun, error) {
	if limit <= 0 {
		limit = 20
	}

	if s.db != nil {
		var runs []models.EtlRun
		err := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error
		if err != nil {
			return nil, fmt.Errorf("查询运行历史失败: %w", err)
		}
		return runs, nil
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	runs := make([]models.EtlRun, 0, limit)
	for i := len(s.memoryRuns) - 1; i >= 0 && len(runs) < limit; i-- {
		runs = append(runs, s.memoryRuns[i])
	}
	return runs, nil
}

// duplicatesToTable 把重复记录转换为动态记录表供统一加载
func duplicatesToTable(duplicates []models.DuplicateRecord) etl.Table {
	table := make(etl.Table, 0, len(duplicates))
	for _, record := range duplicates {
		row := etl.Record{
			"id":          record.ID,
			"uuid":        record.UUID,
			"direction":   record.Direction,
			"inserted_at": record.InsertedAt,
			"content":     nil,
		}
		if record.Content != nil {
			row["content"] = *record.Content
		}
		if record.DuplicateGroup != nil {
			row["duplicate_group"] = *record.DuplicateGroup
		} else {
			row["duplicate_group"] = nil
		}
		table = append(table, row)
	}
	return table
}
