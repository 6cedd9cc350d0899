package dateparse

import "regexp"

var (
	digitRunRe = regexp.MustCompile(`\d{5,8}`)
	tripleRe   = regexp.MustCompile(`\d{1,4}[-/.\s]\d{1,2}[-/.\s]\d{1,4}`)
)

// Recover 对 Resolve 失败的值做可选的二次尝试。
//
// 先找内嵌的 5-8 位数字串按纯数字规则解析，再找以分隔符连接的数字三元组
// 按固定格式与自由文本规则解析。Recover 不改变 Resolve 的结果，是否调用由上层决定。
func Recover(raw string) Result {
	if tok := digitRunRe.FindString(raw); tok != "" {
		if d, ok := parseNumeric(tok); ok {
			return valid(d, raw)
		}
	}
	if tok := tripleRe.FindString(raw); tok != "" {
		for _, st := range cascade[1:] {
			if d, ok := st.Parse(tok); ok {
				return valid(d, raw)
			}
		}
	}
	return unresolved(raw)
}
