// Package runner 编排一次完整运行：扫描导入 -> 日期解析与按日聚合 -> 写出平面文件 -> 写入 SQLite 快照。
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"dailyhealth/internal/config"
	"dailyhealth/internal/exporter"
	"dailyhealth/internal/importer"
	"dailyhealth/internal/parser"
	"dailyhealth/internal/pipeline"
	"dailyhealth/internal/store"
)

// ErrRunInProgress 已有运行在进行中
var ErrRunInProgress = errors.New("a run is already in progress")

// Runner 运行编排器；同一时刻只允许一次运行
type Runner struct {
	cfg         *config.AppConfig
	logger      *zap.Logger
	store       *store.Store
	coordinator *importer.Coordinator

	mu      sync.Mutex
	running bool
	last    *Summary
}

// Summary 一次运行的摘要
type Summary struct {
	RunID      string               `json:"runId"`
	Root       string               `json:"root"`
	Stats      pipeline.Stats       `json:"stats"`
	TotalFiles int                  `json:"totalFiles"`
	Sources    int                  `json:"sources"`
	Outputs    *exporter.Outputs    `json:"outputs,omitempty"`
	Duration   time.Duration        `json:"duration"`
	Result     *pipeline.Result     `json:"-"`
	Report     *parser.ImportReport `json:"-"`
}

// New 创建编排器
func New(cfg *config.AppConfig, st *store.Store, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:         cfg,
		logger:      logger,
		store:       st,
		coordinator: importer.NewCoordinator(logger.Named("importer")),
	}
}

// Last 最近一次成功运行的摘要（进程内）
func (r *Runner) Last() *Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Running 是否有运行在进行中
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Run 扫描 root（为空时使用配置的 scan.root）并完成整套输出；progress 可为 nil
func (r *Runner) Run(ctx context.Context, root string, progress func(importer.ProgressEvent)) (*Summary, error) {
	if !r.begin() {
		return nil, ErrRunInProgress
	}
	defer r.end()

	start := time.Now()
	if root == "" {
		root = r.cfg.ResolvePath(r.cfg.Scan.Root)
	}

	agg, err := r.cfg.Aggregator()
	if err != nil {
		return nil, err
	}

	runID, err := r.store.CreateImportLog(root)
	if err != nil {
		return nil, err
	}
	logger := r.logger.With(zap.String("run_id", runID), zap.String("root", root))

	report, err := r.coordinator.Collect(ctx, r.importOptions(root), progress)
	if err != nil {
		r.markFailed(runID, root, err)
		return nil, err
	}

	res, err := pipeline.Run(report.Rows, pipeline.Options{
		Recover:    r.cfg.Merge.Recover,
		Aggregator: agg,
	})
	if err != nil {
		r.markFailed(runID, root, err)
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	logger.Info("dates resolved",
		zap.Int("rows", res.Stats.TotalRows),
		zap.Int("resolved", res.Stats.Resolved),
		zap.Int("recovered", res.Stats.Recovered),
		zap.Int("unresolved", res.Stats.Unresolved),
		zap.Int("days", res.Stats.Days),
	)

	outputs, err := exporter.NewExporter(config.OutputDir(r.cfg)).WriteAll(res, report.Sources,
		exporter.ExportOptions{Workbook: r.cfg.Data.Workbook},
		func(e exporter.ProgressEvent) {
			logger.Debug("export progress", zap.Int("percent", e.Percent), zap.String("stage", e.Stage))
		})
	if err != nil {
		r.markFailed(runID, root, err)
		return nil, fmt.Errorf("export: %w", err)
	}

	if err := r.store.ReplaceRun(store.Snapshot{
		Records:    res.Records,
		Unresolved: res.Unresolved,
		Sources:    report.Sources,
		Log: store.ImportLog{
			RunID:          runID,
			Root:           root,
			TotalFiles:     report.TotalFiles,
			ImportedFiles:  report.ImportedFiles,
			SkippedFiles:   report.SkippedFiles,
			ErrorFiles:     report.ErrorFiles,
			TotalRows:      res.Stats.TotalRows,
			ResolvedRows:   res.Stats.Resolved,
			RecoveredRows:  res.Stats.Recovered,
			UnresolvedRows: res.Stats.Unresolved,
		},
	}); err != nil {
		r.markFailed(runID, root, err)
		return nil, err
	}

	summary := &Summary{
		RunID:      runID,
		Root:       root,
		Stats:      res.Stats,
		TotalFiles: report.TotalFiles,
		Sources:    len(report.Sources),
		Outputs:    outputs,
		Duration:   time.Since(start),
		Result:     res,
		Report:     report,
	}
	logger.Info("run completed", zap.Duration("duration", summary.Duration))

	r.mu.Lock()
	r.last = summary
	r.mu.Unlock()
	return summary, nil
}

func (r *Runner) importOptions(root string) importer.ImportOptions {
	// 自身的数据目录与输出目录按路径排除
	own := []string{r.cfg.ResolvePath(r.cfg.Data.DataDir), config.OutputDir(r.cfg)}
	return importer.ImportOptions{
		Root:         root,
		Extensions:   r.cfg.Scan.Extensions,
		Keywords:     r.cfg.Scan.Keywords,
		ExcludeDirs:  r.cfg.Scan.ExcludeDirs,
		ExcludePaths: own,
		Workers:      r.cfg.Scan.Workers,
	}
}

func (r *Runner) markFailed(runID, root string, cause error) {
	r.logger.Error("run failed", zap.String("run_id", runID), zap.String("root", root), zap.Error(cause))
	if err := r.store.UpdateImportLog(store.ImportLog{
		RunID:        runID,
		Root:         root,
		Status:       store.StatusFailed,
		ErrorMessage: cause.Error(),
	}); err != nil {
		r.logger.Warn("update import log failed", zap.Error(err))
	}
}

func (r *Runner) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *Runner) end() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}
