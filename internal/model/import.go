package model

// RawRow 一条原始记录：规范字段名 -> 原始字符串，附带来源
//
// 由导入方创建，核心流程只读使用。
type RawRow struct {
	Fields      map[string]string `json:"fields"`
	SourceFile  string            `json:"sourceFile,omitempty"`
	SourceSheet string            `json:"sourceSheet,omitempty"`
}

// Get 取字段原始值，字段缺失时返回空串
func (r RawRow) Get(field string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[field]
}

// UnresolvedEntry 无法解析日期的诊断记录（仅供人工复核）
type UnresolvedEntry struct {
	SourceFile  string `json:"source_file"`
	SourceSheet string `json:"source_sheet"`
	DateRaw     string `json:"date_raw"`
}

// Source 被纳入导入的文件/工作表
type Source struct {
	Path   string `json:"path"`
	Sheet  string `json:"sheet"`
	Reason string `json:"reason"`
	Rows   int    `json:"rows"`
}
