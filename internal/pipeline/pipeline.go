// Package pipeline 串联日期解析与按日聚合：一次运行完全由输入行决定。
package pipeline

import (
	"errors"

	"dailyhealth/internal/aggregate"
	"dailyhealth/internal/dateparse"
	"dailyhealth/internal/model"
)

// ErrNilRows 行集合为 nil（调用方契约错误，空切片不算）
var ErrNilRows = errors.New("pipeline: nil row collection")

// Options 运行选项
type Options struct {
	// DateField 原始日期所在字段，默认 Date
	DateField string
	// Recover 对未解析的值再做一次内嵌数字提取尝试
	Recover bool
	// Aggregator 为 nil 时使用默认策略
	Aggregator *aggregate.Aggregator
}

// Stats 运行统计
type Stats struct {
	TotalRows  int `json:"totalRows"`
	Resolved   int `json:"resolved"`
	Recovered  int `json:"recovered"`
	Unresolved int `json:"unresolved"`
	Days       int `json:"days"`
}

// Result 规范日记录 + 未解析诊断清单
type Result struct {
	Records    []model.CanonicalDayRecord `json:"records"`
	Unresolved []model.UnresolvedEntry    `json:"unresolved"`
	Stats      Stats                      `json:"stats"`
}

// Run 解析每行日期，未解析行进入诊断清单，其余按日聚合
func Run(rows []model.RawRow, opts Options) (*Result, error) {
	if rows == nil {
		return nil, ErrNilRows
	}

	dateField := opts.DateField
	if dateField == "" {
		dateField = string(model.FieldDate)
	}
	agg := opts.Aggregator
	if agg == nil {
		agg = aggregate.New()
	}

	resolved, unresolved, stats := Partition(rows, dateField, opts.Recover)
	records := agg.Aggregate(resolved)
	stats.Days = len(records)

	return &Result{
		Records:    records,
		Unresolved: unresolved,
		Stats:      stats,
	}, nil
}

// Partition 逐行解析日期并分流；每行独立解析，互不影响
func Partition(rows []model.RawRow, dateField string, recover bool) ([]aggregate.ResolvedRow, []model.UnresolvedEntry, Stats) {
	stats := Stats{TotalRows: len(rows)}
	resolved := make([]aggregate.ResolvedRow, 0, len(rows))
	unresolved := make([]model.UnresolvedEntry, 0)

	for _, row := range rows {
		raw := row.Get(dateField)
		res := dateparse.Resolve(raw)
		if !res.Resolved() && recover {
			if res = dateparse.Recover(raw); res.Resolved() {
				stats.Recovered++
			}
		}
		if !res.Resolved() {
			unresolved = append(unresolved, model.UnresolvedEntry{
				SourceFile:  row.SourceFile,
				SourceSheet: row.SourceSheet,
				DateRaw:     raw,
			})
			continue
		}
		resolved = append(resolved, aggregate.ResolvedRow{Date: res.Date, Row: row})
	}

	stats.Resolved = len(resolved)
	stats.Unresolved = len(unresolved)
	return resolved, unresolved, stats
}
