package parser

import (
	"regexp"
	"strings"
)

var spaceRe = regexp.MustCompile(`\s+`)

// NormalizeColumnName 规范化列名：去除首尾空白，压缩内部连续空白为一个空格
func NormalizeColumnName(name string) string {
	name = strings.TrimPrefix(name, "\uFEFF")
	name = strings.TrimSpace(name)
	return spaceRe.ReplaceAllString(name, " ")
}

// ContainsAny 检查字符串是否包含任意一个关键词（忽略大小写）
func ContainsAny(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// IsBlankRow 所有单元格都为空白
func IsBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// PadRow 按表头宽度补齐或截断
func PadRow(cells []string, width int) []string {
	if len(cells) == width {
		return cells
	}
	out := make([]string, width)
	copy(out, cells)
	return out
}
