// Package dateparse 把来源杂乱的原始日期值解析为日历日期。
//
// 解析是一个固定顺序的策略级联，第一个成功的策略胜出；所有策略都失败时
// 返回 Unresolved 并保留原始值。解析是纯函数，无状态、无 I/O。
package dateparse

import (
	"regexp"
	"strings"

	"cloud.google.com/go/civil"
)

// Result 单个原始值的解析结果：Valid(date) 或 Unresolved(raw)
type Result struct {
	Date civil.Date
	Raw  string
	ok   bool
}

// Resolved 是否解析成功
func (r Result) Resolved() bool {
	return r.ok
}

func valid(d civil.Date, raw string) Result {
	return Result{Date: d, Raw: raw, ok: true}
}

func unresolved(raw string) Result {
	return Result{Raw: raw}
}

// Strategy 级联中的单个解析策略
type Strategy struct {
	Name  string
	Parse func(s string) (civil.Date, bool)
}

// cascade 第 4-6 步，顺序即优先级
var cascade = []Strategy{
	{Name: "numeric", Parse: parseNumeric},
	{Name: "layout", Parse: parseLayout},
	{Name: "freeform_month_first", Parse: parseMonthFirst},
	{Name: "freeform_day_first", Parse: parseDayFirst},
}

var sentinels = map[string]struct{}{
	"nan":  {},
	"none": {},
	"na":   {},
}

var (
	ordinalRe  = regexp.MustCompile(`(?i)(\d)(?:st|nd|rd|th)\b`)
	floatIntRe = regexp.MustCompile(`^(\d+)\.0+$`)
)

// Resolve 解析一个原始日期值，对任何输入都有确定结果
func Resolve(raw string) Result {
	res, _ := Explain(raw)
	return res
}

// Explain 同 Resolve，另外返回胜出策略名（未解析时为空）
func Explain(raw string) (Result, string) {
	s := strings.TrimSpace(raw)
	if isSentinel(s) {
		return unresolved(raw), ""
	}

	s = Clean(s)
	for _, st := range cascade {
		if d, ok := st.Parse(s); ok {
			return valid(d, raw), st.Name
		}
	}
	return unresolved(raw), ""
}

// Strategies 返回级联策略的副本（只读展示用）
func Strategies() []Strategy {
	out := make([]Strategy, len(cascade))
	copy(out, cascade)
	return out
}

// Clean 文本清洗：去首尾空白、序数后缀、尾部逗号，并把 "45909.0" 还原为整数串
func Clean(s string) string {
	s = strings.TrimSpace(s)
	s = ordinalRe.ReplaceAllString(s, "${1}")
	s = strings.TrimSpace(strings.TrimRight(s, ","))
	if m := floatIntRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return s
}

func isSentinel(s string) bool {
	if s == "" {
		return true
	}
	_, ok := sentinels[strings.ToLower(s)]
	return ok
}
