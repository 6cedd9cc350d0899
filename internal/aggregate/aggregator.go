// Package aggregate 把已解析日期的原始行按日合并为规范日记录。
package aggregate

import (
	"sort"

	"cloud.google.com/go/civil"

	"dailyhealth/internal/model"
)

// ResolvedRow 已解析出日期的原始行
type ResolvedRow struct {
	Date civil.Date
	Row  model.RawRow
}

// Aggregator 按日期分组合并
type Aggregator struct {
	fields  []model.Field
	mergers map[model.Field]Merger
}

// Option 聚合器选项
type Option func(*Aggregator)

// WithMerger 为单个字段指定合并策略
func WithMerger(field model.Field, m Merger) Option {
	return func(a *Aggregator) {
		a.mergers[field] = m
	}
}

// WithSeparator 替换所有 JoinDistinct 字段的分隔符
func WithSeparator(sep string) Option {
	return func(a *Aggregator) {
		for f, m := range a.mergers {
			if _, ok := m.(JoinDistinct); ok {
				a.mergers[f] = JoinDistinct{Separator: sep}
			}
		}
	}
}

// New 创建聚合器：Weight 取最后一个非空值，其余字段去重连接
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		fields:  model.TrackedFields,
		mergers: DefaultMergers(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DefaultMergers 默认字段策略
func DefaultMergers() map[model.Field]Merger {
	out := make(map[model.Field]Merger, len(model.TrackedFields))
	for _, f := range model.TrackedFields {
		out[f] = JoinDistinct{Separator: DefaultSeparator}
	}
	out[model.FieldWeight] = LastNonEmpty{}
	return out
}

type dayGroup struct {
	date civil.Date
	rows []model.RawRow
}

// Aggregate 每个日期输出一条记录，按日期倒序；无效日期排在最后。
// 输入中缺失的字段按空值处理。
func (a *Aggregator) Aggregate(rows []ResolvedRow) []model.CanonicalDayRecord {
	index := make(map[civil.Date]int)
	var groups []*dayGroup
	for _, r := range rows {
		i, ok := index[r.Date]
		if !ok {
			i = len(groups)
			index[r.Date] = i
			groups = append(groups, &dayGroup{date: r.Date})
		}
		groups[i].rows = append(groups[i].rows, r.Row)
	}

	records := make([]model.CanonicalDayRecord, 0, len(groups))
	for _, g := range groups {
		records = append(records, a.mergeGroup(g))
	}

	sort.SliceStable(records, func(i, j int) bool {
		di, dj := records[i].Date, records[j].Date
		vi, vj := di.IsValid(), dj.IsValid()
		if vi != vj {
			return vi
		}
		return dj.Before(di)
	})
	return records
}

func (a *Aggregator) mergeGroup(g *dayGroup) model.CanonicalDayRecord {
	rec := model.CanonicalDayRecord{Date: g.date}
	values := make([]string, len(g.rows))
	for _, f := range a.fields {
		m, ok := a.mergers[f]
		if !ok {
			continue
		}
		for i, row := range g.rows {
			values[i] = row.Get(string(f))
		}
		rec.SetValue(f, m.Merge(values))
	}
	return rec
}
