package aggregate

import (
	"math"
	"strconv"
	"strings"
)

// DefaultSeparator 多值文本字段的连接符
const DefaultSeparator = " | "

// Merger 同一天多行同一字段的合并策略
type Merger interface {
	Merge(values []string) string
}

// IsEmptyValue 空串、纯空白、nan、none 都视为空
func IsEmptyValue(v string) bool {
	s := strings.TrimSpace(v)
	if s == "" {
		return true
	}
	switch strings.ToLower(s) {
	case "nan", "none":
		return true
	}
	return false
}

// JoinDistinct 去空、按首次出现顺序精确去重后用分隔符连接
type JoinDistinct struct {
	Separator string
}

func (j JoinDistinct) Merge(values []string) string {
	sep := j.Separator
	if sep == "" {
		sep = DefaultSeparator
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if IsEmptyValue(v) {
			continue
		}
		v = strings.TrimSpace(v)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return strings.Join(out, sep)
}

// LastNonEmpty 取原始顺序中最后一个非空值（同日后到的更正覆盖先前值）
type LastNonEmpty struct{}

func (LastNonEmpty) Merge(values []string) string {
	for i := len(values) - 1; i >= 0; i-- {
		if !IsEmptyValue(values[i]) {
			return strings.TrimSpace(values[i])
		}
	}
	return ""
}

// FirstNonEmpty 取第一个非空值
type FirstNonEmpty struct{}

func (FirstNonEmpty) Merge(values []string) string {
	for _, v := range values {
		if !IsEmptyValue(v) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// NumericMean 数值平均，非数值忽略；Decimals 为保留小数位（0 表示 2 位）
type NumericMean struct {
	Decimals int
}

func (n NumericMean) Merge(values []string) string {
	decimals := n.Decimals
	if decimals <= 0 {
		decimals = 2
	}

	var sum float64
	var count int
	for _, v := range values {
		if IsEmptyValue(v) {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		sum += f
		count++
	}
	if count == 0 {
		return ""
	}

	scale := math.Pow(10, float64(decimals))
	mean := math.Round(sum/float64(count)*scale) / scale
	return strconv.FormatFloat(mean, 'f', -1, 64)
}

// MergerByName 按配置名选择标量字段策略：last / first / mean
func MergerByName(name string) (Merger, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "last":
		return LastNonEmpty{}, true
	case "first":
		return FirstNonEmpty{}, true
	case "mean", "average":
		return NumericMean{}, true
	}
	return nil, false
}
