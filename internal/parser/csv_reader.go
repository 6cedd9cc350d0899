package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrEmptySource 没有表头行
var ErrEmptySource = errors.New("source has no header row")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV 读取 CSV 文件
func ReadCSV(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return ParseCSV(data, path)
}

// ParseCSV 解析 CSV 内容：优先 UTF-8，非法时按 Windows-1252 解码
func ParseCSV(data []byte, sourceFile string) (*Table, error) {
	text, err := DecodeText(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv %s: %w", sourceFile, err)
		}
		records = append(records, rec)
	}

	return buildTable(sourceFile, "", records)
}

// DecodeText 去掉 BOM 并转为 UTF-8
func DecodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode text: %w", err)
	}
	return decoded, nil
}

// buildTable 首行为表头，跳过空白行，数据行按表头宽度补齐
func buildTable(sourceFile, sheet string, records [][]string) (*Table, error) {
	start := 0
	for start < len(records) && IsBlankRow(records[start]) {
		start++
	}
	if start == len(records) {
		return nil, fmt.Errorf("%s: %w", sourceFile, ErrEmptySource)
	}

	headers := make([]string, len(records[start]))
	for i, h := range records[start] {
		headers[i] = NormalizeColumnName(h)
	}

	t := &Table{
		SourceFile:  sourceFile,
		SourceSheet: sheet,
		Headers:     headers,
		Rows:        make([][]string, 0, len(records)-start-1),
	}
	for _, rec := range records[start+1:] {
		if IsBlankRow(rec) {
			continue
		}
		t.Rows = append(t.Rows, PadRow(rec, len(headers)))
	}
	return t, nil
}
