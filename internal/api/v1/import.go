package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dailyhealth/internal/importer"
	"dailyhealth/internal/service/runner"
)

// EventSummary 运行结束后追加的摘要事件类型
const EventSummary = "summary"

// ImportRequest 导入请求
type ImportRequest struct {
	Root string `json:"root"` // 扫描根目录，为空时使用配置
}

// Import 扫描目录并完成一次运行 (SSE 流式响应)
// POST /api/import
func (h *Handler) Import(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	if h.runner.Running() {
		c.JSON(http.StatusConflict, gin.H{"error": "已有导入在进行中"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	streaming, failed := false, false
	send := func(event importer.ProgressEvent) {
		if event.Type == importer.EventError {
			failed = true
		}
		if !streaming {
			// 设置 SSE 响应头
			c.Header("Content-Type", "text/event-stream")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
			streaming = true
		}

		eventData, err := json.Marshal(event)
		if err != nil {
			h.logger.Warn("marshal progress event failed", zap.Error(err))
			return
		}

		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}

	summary, err := h.runner.Run(c.Request.Context(), req.Root, send)
	if err != nil {
		if !streaming {
			status := http.StatusInternalServerError
			if errors.Is(err, runner.ErrRunInProgress) {
				status = http.StatusConflict
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		// 导入阶段的致命错误已由 error 事件送达
		if !failed {
			send(importer.ProgressEvent{
				Type:      importer.EventError,
				Message:   err.Error(),
				Timestamp: time.Now(),
			})
		}
		return
	}

	send(importer.ProgressEvent{
		Type:      EventSummary,
		Message:   "运行完成",
		Data:      summary,
		Timestamp: time.Now(),
	})
}
