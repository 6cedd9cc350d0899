package parser

import (
	"strings"

	"dailyhealth/internal/model"
)

// FieldMapper 把原始表头映射到规范字段
type FieldMapper struct {
	fields []model.Field
}

// NewFieldMapper 创建字段映射器，默认映射全部规范字段
func NewFieldMapper(fields ...model.Field) *FieldMapper {
	if len(fields) == 0 {
		fields = model.CanonicalFields()
	}
	return &FieldMapper{fields: fields}
}

// Map 返回 列索引 -> 映射。
// 每个规范字段先找忽略大小写完全相同的列，找不到再取第一个尚未占用、且包含字段名的列。
// 未映射的列被忽略。
func (m *FieldMapper) Map(headers []string) map[int]FieldMapping {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeColumnName(h)
	}

	mappings := make(map[int]FieldMapping)
	used := make(map[int]bool, len(headers))

	for _, f := range m.fields {
		if idx := m.findExact(string(f), normalized, used); idx >= 0 {
			used[idx] = true
			mappings[idx] = FieldMapping{ColumnIndex: idx, ColumnName: normalized[idx], Field: f}
		}
	}

	for _, f := range m.fields {
		if mapped(mappings, f) {
			continue
		}
		if idx := m.findContaining(string(f), normalized, used); idx >= 0 {
			used[idx] = true
			mappings[idx] = FieldMapping{ColumnIndex: idx, ColumnName: normalized[idx], Field: f}
		}
	}

	return mappings
}

// HasExpectedColumn 表头中是否有列与某个规范字段完全相同（忽略大小写）
func (m *FieldMapper) HasExpectedColumn(headers []string) bool {
	for _, h := range headers {
		h = NormalizeColumnName(h)
		for _, f := range m.fields {
			if strings.EqualFold(h, string(f)) {
				return true
			}
		}
	}
	return false
}

// ToRawRows 按映射把表格数据转成原始行；缺失的规范字段以空串补齐
func (m *FieldMapper) ToRawRows(t *Table) []model.RawRow {
	mappings := m.Map(t.Headers)
	rows := make([]model.RawRow, 0, len(t.Rows))
	for _, cells := range t.Rows {
		fields := make(map[string]string, len(m.fields))
		for _, f := range m.fields {
			fields[string(f)] = ""
		}
		for idx, mp := range mappings {
			if idx < len(cells) {
				fields[string(mp.Field)] = cells[idx]
			}
		}
		rows = append(rows, model.RawRow{
			Fields:      fields,
			SourceFile:  t.SourceFile,
			SourceSheet: t.SourceSheet,
		})
	}
	return rows
}

func (m *FieldMapper) findExact(name string, headers []string, used map[int]bool) int {
	for i, h := range headers {
		if !used[i] && strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

func (m *FieldMapper) findContaining(name string, headers []string, used map[int]bool) int {
	lower := strings.ToLower(name)
	for i, h := range headers {
		if h == "" || used[i] {
			continue
		}
		if strings.Contains(strings.ToLower(h), lower) {
			return i
		}
	}
	return -1
}

func mapped(mappings map[int]FieldMapping, f model.Field) bool {
	for _, mp := range mappings {
		if mp.Field == f {
			return true
		}
	}
	return false
}
