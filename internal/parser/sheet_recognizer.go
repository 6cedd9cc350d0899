package parser

import (
	"path/filepath"
	"strings"
)

// DefaultKeywords 文件名 / Sheet 名中标识健康日志的关键词
var DefaultKeywords = []string{"health"}

// SourceRecognizer 判断文件或 Sheet 是否是健康日志数据源
type SourceRecognizer struct {
	keywords []string
	mapper   *FieldMapper
}

// NewSourceRecognizer 创建识别器；keywords 为空时使用 DefaultKeywords
func NewSourceRecognizer(keywords ...string) *SourceRecognizer {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	return &SourceRecognizer{
		keywords: keywords,
		mapper:   NewFieldMapper(),
	}
}

// KindOf 按扩展名判断数据源类型
func KindOf(path string) SourceKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return SourceKindCSV
	case ".xlsx", ".xlsm":
		return SourceKindWorkbook
	}
	return SourceKindUnknown
}

// RecognizeFile 识别 CSV：文件名含关键词，或表头含规范列
func (r *SourceRecognizer) RecognizeFile(path string, headers []string) RecognitionResult {
	result := RecognitionResult{Path: path, Kind: KindOf(path), Reason: ReasonNotMatched}

	if ContainsAny(filepath.Base(path), r.keywords) {
		result.Reason = ReasonFileName
		result.Confidence = 0.8
		if r.mapper.HasExpectedColumn(headers) {
			result.Confidence = 1
		}
		return result
	}

	if conf := r.headerConfidence(headers); conf > 0 {
		result.Reason = ReasonHeader
		result.Confidence = conf
	}
	return result
}

// RecognizeSheet 识别单个 Sheet：Sheet 名含关键词，或表头含规范列
func (r *SourceRecognizer) RecognizeSheet(path, sheetName string, headers []string) RecognitionResult {
	result := RecognitionResult{Path: path, SheetName: sheetName, Kind: SourceKindWorkbook, Reason: ReasonNotMatched}

	if ContainsAny(sheetName, r.keywords) {
		result.Reason = ReasonSheetName
		result.Confidence = 0.9
		return result
	}

	if conf := r.headerConfidence(headers); conf > 0 {
		result.Reason = ReasonHeader
		result.Confidence = conf
	}
	return result
}

// SelectSheets 工作簿内选择数据源：所有名称含关键词的 Sheet；
// 都不匹配时退回到第一个表头含规范列的 Sheet
func (r *SourceRecognizer) SelectSheets(path string, sheets []string, headersOf func(sheet string) []string) []RecognitionResult {
	var named []RecognitionResult
	for _, s := range sheets {
		if res := r.RecognizeSheet(path, s, nil); res.Reason == ReasonSheetName {
			named = append(named, res)
		}
	}
	if len(named) > 0 {
		return named
	}

	for _, s := range sheets {
		if res := r.RecognizeSheet(path, s, headersOf(s)); res.Candidate() {
			return []RecognitionResult{res}
		}
	}
	return nil
}

// headerConfidence 有规范列时按命中比例给出置信度，至少 0.5
func (r *SourceRecognizer) headerConfidence(headers []string) float64 {
	if !r.mapper.HasExpectedColumn(headers) {
		return 0
	}
	mappings := r.mapper.Map(headers)
	conf := float64(len(mappings)) / float64(len(r.mapper.fields))
	if conf < 0.5 {
		conf = 0.5
	}
	return conf
}
