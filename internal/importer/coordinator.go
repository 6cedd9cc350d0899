package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dailyhealth/internal/model"
	"dailyhealth/internal/parser"
)

// 事件类型
const (
	EventStart      = "start"
	EventInfo       = "info"
	EventSourceDone = "source_done"
	EventWarning    = "warning"
	EventError      = "error"
	EventDone       = "done"
)

// DefaultExtensions 默认扫描的扩展名
var DefaultExtensions = []string{".csv", ".xlsx", ".xlsm"}

// ErrNoReport 导入未产生报告（通道关闭前没有 done 事件）
var ErrNoReport = errors.New("import finished without report")

// Coordinator 导入协调器
type Coordinator struct {
	logger *zap.Logger
	mapper *parser.FieldMapper
}

// NewCoordinator 创建导入协调器
func NewCoordinator(logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		logger: logger,
		mapper: parser.NewFieldMapper(),
	}
}

// ImportOptions 导入选项
type ImportOptions struct {
	Root        string
	Extensions  []string // 为空时使用 DefaultExtensions
	Keywords    []string // 文件名 / Sheet 名关键词，为空时使用 parser.DefaultKeywords
	ExcludeDirs  []string // 按目录名跳过（任意层级），由用户显式配置
	ExcludePaths []string // 按路径跳过（如数据目录、输出目录），比较绝对路径
	Workers      int      // 并发读取文件数，<=0 时为 4
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/info/source_done/warning/error/done
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳
}

// ImportContext 导入上下文
type ImportContext struct {
	Root         string
	StartTime    time.Time
	Report       *parser.ImportReport
	ProgressChan chan ProgressEvent
}

// fileResult 单个文件的读取结果
type fileResult struct {
	path    string
	results []parser.ParseResult
	sources []model.Source
	rows    []model.RawRow
	err     error
}

// Import 执行导入，返回进度通道；ctx 取消后通道会被关闭
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.doImport(ctx, opts, progressChan)
	}()

	return progressChan
}

// Collect 同步导入：消费全部进度事件并返回报告；progress 可为 nil
func (c *Coordinator) Collect(ctx context.Context, opts ImportOptions, progress func(ProgressEvent)) (*parser.ImportReport, error) {
	var (
		report *parser.ImportReport
		errMsg string
	)
	for evt := range c.Import(ctx, opts) {
		if progress != nil {
			progress(evt)
		}
		switch evt.Type {
		case EventDone:
			report, _ = evt.Data.(*parser.ImportReport)
		case EventError:
			errMsg = evt.Message
		}
	}
	if errMsg != "" {
		return nil, fmt.Errorf("import %s: %s", opts.Root, errMsg)
	}
	if report == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoReport
	}
	return report, nil
}

// doImport 执行导入逻辑
func (c *Coordinator) doImport(ctx context.Context, opts ImportOptions, progressChan chan ProgressEvent) {
	startTime := time.Now()
	ictx := &ImportContext{
		Root:         opts.Root,
		StartTime:    startTime,
		ProgressChan: progressChan,
		Report: &parser.ImportReport{
			Root:    opts.Root,
			Results: []parser.ParseResult{},
			Sources: []model.Source{},
			Rows:    []model.RawRow{},
		},
	}

	c.logger.Info("import started", zap.String("root", opts.Root))
	c.sendProgress(ctx, progressChan, ProgressEvent{
		Type:    EventStart,
		Message: "开始扫描数据目录",
		Data: map[string]string{
			"root": opts.Root,
		},
		Timestamp: time.Now(),
	})

	files, err := c.scan(opts)
	if err != nil {
		c.fail(ctx, ictx, fmt.Sprintf("扫描目录失败: %v", err))
		return
	}
	ictx.Report.TotalFiles = len(files)

	c.sendProgress(ctx, progressChan, ProgressEvent{
		Type:    EventInfo,
		Message: fmt.Sprintf("发现 %d 个候选文件", len(files)),
		Data: map[string]interface{}{
			"total_files": len(files),
		},
		Timestamp: time.Now(),
	})

	results, err := c.readAll(ctx, files, opts)
	if err != nil {
		c.fail(ctx, ictx, fmt.Sprintf("导入中断: %v", err))
		return
	}

	// 按扫描顺序汇总，结果与并发调度无关
	for _, fr := range results {
		c.recordFileResult(ctx, ictx, fr)
	}

	ictx.Report.Duration = time.Since(startTime)
	c.logger.Info("import finished",
		zap.String("root", opts.Root),
		zap.Int("files", ictx.Report.TotalFiles),
		zap.Int("sources", len(ictx.Report.Sources)),
		zap.Int("rows", ictx.Report.TotalRows),
		zap.Duration("duration", ictx.Report.Duration),
	)

	c.sendProgress(ctx, progressChan, ProgressEvent{
		Type:      EventDone,
		Message:   "导入完成",
		Data:      ictx.Report,
		Timestamp: time.Now(),
	})
}

// scan 遍历目录，按扩展名过滤；WalkDir 保证字典序
func (c *Coordinator) scan(opts ImportOptions) ([]string, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(e)] = true
	}
	excludedNames := make(map[string]bool, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		excludedNames[d] = true
	}
	excludedPaths := make(map[string]bool, len(opts.ExcludePaths))
	for _, p := range opts.ExcludePaths {
		if abs, err := filepath.Abs(p); err == nil {
			excludedPaths[abs] = true
		}
	}
	isExcludedPath := func(path string) bool {
		if len(excludedPaths) == 0 {
			return false
		}
		abs, err := filepath.Abs(path)
		return err == nil && excludedPaths[abs]
	}

	var files []string
	err := filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == opts.Root {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || excludedNames[d.Name()] || isExcludedPath(path) {
				c.logger.Debug("directory excluded", zap.String("path", path))
				return filepath.SkipDir
			}
			return nil
		}
		// 跳过 Office 锁文件
		if strings.HasPrefix(d.Name(), "~$") {
			return nil
		}
		if allowed[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// readAll 并发读取文件，结果按输入下标存放
func (c *Coordinator) readAll(ctx context.Context, files []string, opts ImportOptions) ([]fileResult, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	recognizer := parser.NewSourceRecognizer(opts.Keywords...)

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.readFile(recognizer, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// readFile 识别并读取单个文件；文件级错误记录在结果中，不中断导入
func (c *Coordinator) readFile(recognizer *parser.SourceRecognizer, path string) fileResult {
	switch parser.KindOf(path) {
	case parser.SourceKindCSV:
		return c.readCSV(recognizer, path)
	case parser.SourceKindWorkbook:
		return c.readWorkbook(recognizer, path)
	}
	return fileResult{path: path}
}

func (c *Coordinator) readCSV(recognizer *parser.SourceRecognizer, path string) fileResult {
	start := time.Now()
	fr := fileResult{path: path}

	tbl, err := parser.ReadCSV(path)
	if err != nil {
		fr.err = err
		return fr
	}

	rec := recognizer.RecognizeFile(path, tbl.Headers)
	if !rec.Candidate() {
		fr.results = append(fr.results, parser.ParseResult{
			SourceFile: path,
			Reason:     rec.Reason,
			Status:     "skipped",
			Duration:   time.Since(start),
		})
		return fr
	}

	c.addTable(&fr, tbl, rec, start)
	return fr
}

func (c *Coordinator) readWorkbook(recognizer *parser.SourceRecognizer, path string) fileResult {
	start := time.Now()
	fr := fileResult{path: path}

	wb, err := parser.OpenWorkbook(path)
	if err != nil {
		fr.err = err
		return fr
	}
	defer wb.Close()

	selected := recognizer.SelectSheets(path, wb.Sheets(), wb.Headers)
	if len(selected) == 0 {
		fr.results = append(fr.results, parser.ParseResult{
			SourceFile: path,
			Reason:     parser.ReasonNotMatched,
			Status:     "skipped",
			Duration:   time.Since(start),
		})
		return fr
	}

	for _, rec := range selected {
		sheetStart := time.Now()
		tbl, err := wb.ReadSheet(rec.SheetName)
		if err != nil {
			fr.results = append(fr.results, parser.ParseResult{
				SourceFile:  path,
				SourceSheet: rec.SheetName,
				Reason:      rec.Reason,
				Status:      "error",
				Errors:      []string{err.Error()},
				Duration:    time.Since(sheetStart),
			})
			continue
		}
		c.addTable(&fr, tbl, rec, sheetStart)
	}
	return fr
}

func (c *Coordinator) addTable(fr *fileResult, tbl *parser.Table, rec parser.RecognitionResult, start time.Time) {
	rows := c.mapper.ToRawRows(tbl)
	fr.rows = append(fr.rows, rows...)
	fr.sources = append(fr.sources, model.Source{
		Path:   tbl.SourceFile,
		Sheet:  tbl.SourceSheet,
		Reason: string(rec.Reason),
		Rows:   len(rows),
	})
	fr.results = append(fr.results, parser.ParseResult{
		SourceFile:  tbl.SourceFile,
		SourceSheet: tbl.SourceSheet,
		Reason:      rec.Reason,
		Status:      "imported",
		Rows:        len(rows),
		Duration:    time.Since(start),
	})
}

// recordFileResult 记录文件处理结果并发送事件
func (c *Coordinator) recordFileResult(ctx context.Context, ictx *ImportContext, fr fileResult) {
	report := ictx.Report

	if fr.err != nil {
		report.ErrorFiles++
		report.Results = append(report.Results, parser.ParseResult{
			SourceFile: fr.path,
			Status:     "error",
			Errors:     []string{fr.err.Error()},
		})
		c.logger.Warn("read source failed", zap.String("path", fr.path), zap.Error(fr.err))
		c.sendProgress(ctx, ictx.ProgressChan, ProgressEvent{
			Type:      EventWarning,
			Message:   fmt.Sprintf("读取文件失败: %s: %v", fr.path, fr.err),
			Timestamp: time.Now(),
		})
		return
	}

	report.Results = append(report.Results, fr.results...)
	sheetErrors := 0
	for _, r := range fr.results {
		if r.Status != "error" {
			continue
		}
		sheetErrors++
		c.logger.Warn("read sheet failed",
			zap.String("path", r.SourceFile),
			zap.String("sheet", r.SourceSheet),
			zap.Strings("errors", r.Errors),
		)
		c.sendProgress(ctx, ictx.ProgressChan, ProgressEvent{
			Type:      EventWarning,
			Message:   fmt.Sprintf("读取 Sheet 失败: %s: %s: %s", r.SourceFile, r.SourceSheet, strings.Join(r.Errors, "; ")),
			Timestamp: time.Now(),
		})
	}

	if len(fr.sources) == 0 {
		if sheetErrors > 0 {
			report.ErrorFiles++
			return
		}
		report.SkippedFiles++
		c.logger.Debug("source skipped", zap.String("path", fr.path))
		return
	}

	report.ImportedFiles++
	report.Sources = append(report.Sources, fr.sources...)
	report.Rows = append(report.Rows, fr.rows...)
	report.TotalRows += len(fr.rows)

	for _, src := range fr.sources {
		c.logger.Debug("source imported",
			zap.String("path", src.Path),
			zap.String("sheet", src.Sheet),
			zap.String("reason", src.Reason),
			zap.Int("rows", src.Rows),
		)
		c.sendProgress(ctx, ictx.ProgressChan, ProgressEvent{
			Type:    EventSourceDone,
			Message: fmt.Sprintf("数据源 \"%s\" 导入成功: %d 行", sourceLabel(src), src.Rows),
			Data: map[string]interface{}{
				"path":   src.Path,
				"sheet":  src.Sheet,
				"reason": src.Reason,
				"rows":   src.Rows,
			},
			Timestamp: time.Now(),
		})
	}
}

func (c *Coordinator) fail(ctx context.Context, ictx *ImportContext, msg string) {
	c.logger.Error("import failed", zap.String("root", ictx.Root), zap.String("reason", msg))
	c.sendProgress(ctx, ictx.ProgressChan, ProgressEvent{
		Type:      EventError,
		Message:   msg,
		Timestamp: time.Now(),
	})
}

// sendProgress 发送进度事件；消费方停止读取时以 ctx 取消为准退出
func (c *Coordinator) sendProgress(ctx context.Context, ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	case <-ctx.Done():
	}
}

func sourceLabel(src model.Source) string {
	if src.Sheet == "" {
		return filepath.Base(src.Path)
	}
	return filepath.Base(src.Path) + "#" + src.Sheet
}
