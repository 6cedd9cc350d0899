package v1

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dailyhealth/internal/exporter"
	"dailyhealth/internal/store"
)

// 导出格式
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const (
	mediaCSV  = "text/csv; charset=utf-8"
	mediaXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	exportDownloadTTL = 10 * time.Minute
)

// PrepareExportResponse 预生成导出文件的响应
type PrepareExportResponse struct {
	Token       string `json:"token"`
	DownloadURL string `json:"downloadUrl"`
	FileName    string `json:"fileName"`
}

// Export 直接下载当前快照的日记录表
// GET /api/export?format=csv|xlsx
func (h *Handler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", FormatCSV)
	if !validFormat(format) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不支持的导出格式"})
		return
	}

	var buf bytes.Buffer
	if err := h.writeExport(&buf, format); err != nil {
		h.logger.Error("export failed", zap.String("format", format), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "导出失败"})
		return
	}

	c.Header("Content-Disposition", contentDisposition(format))
	c.Data(http.StatusOK, mediaTypeOf(format), buf.Bytes())
}

// PrepareExport 生成导出文件并返回一次性下载链接
// POST /api/export/prepare?format=csv|xlsx
func (h *Handler) PrepareExport(c *gin.Context) {
	format := c.DefaultQuery("format", FormatXLSX)
	if !validFormat(format) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不支持的导出格式"})
		return
	}

	tmp, err := os.CreateTemp("", "dailyhealth_export_*."+format)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建临时文件失败"})
		return
	}
	writeErr := h.writeExport(tmp, format)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		h.logger.Error("prepare export failed", zap.NamedError("write", writeErr), zap.NamedError("close", closeErr))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "导出失败"})
		return
	}

	fileName := exportFileName(format)
	token := h.downloads.put(exportDownload{
		filePath:  tmp.Name(),
		fileName:  fileName,
		mediaType: mediaTypeOf(format),
	}, exportDownloadTTL)

	c.JSON(http.StatusOK, PrepareExportResponse{
		Token:       token,
		DownloadURL: "/api/export/download/" + token,
		FileName:    fileName,
	})
}

// DownloadExport 下载预生成的导出文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token"})
		return
	}

	item, ok := h.downloads.take(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}
	defer func() { _ = removeQuietly(item.filePath) }()

	if _, err := os.Stat(item.filePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "导出文件不存在"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", item.fileName))
	c.Header("Content-Type", item.mediaType)
	c.File(item.filePath)
}

func (h *Handler) writeExport(w io.Writer, format string) error {
	records, err := h.store.ListDays(store.DayQueryOptions{})
	if err != nil {
		return err
	}
	if format == FormatCSV {
		return exporter.WriteDailyCSV(w, records)
	}

	unresolved, err := h.store.ListUnresolved()
	if err != nil {
		return err
	}
	f, err := exporter.BuildWorkbook(records, unresolved)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func validFormat(format string) bool {
	return format == FormatCSV || format == FormatXLSX
}

func mediaTypeOf(format string) string {
	if format == FormatXLSX {
		return mediaXLSX
	}
	return mediaCSV
}

func exportFileName(format string) string {
	if format == FormatXLSX {
		return exporter.WorkbookName
	}
	return exporter.DailyCSVName
}

func contentDisposition(format string) string {
	return fmt.Sprintf("attachment; filename=%q", exportFileName(format))
}

func removeQuietly(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
