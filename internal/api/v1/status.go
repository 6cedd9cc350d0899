package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dailyhealth/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Counts     store.Counts     `json:"counts"`
	LastImport *store.ImportLog `json:"lastImport"`
	Running    bool             `json:"running"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	counts, err := h.store.Counts()
	if err != nil {
		h.logger.Error("count snapshot failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取状态失败"})
		return
	}

	last, err := h.store.LatestImport()
	if err != nil {
		h.logger.Error("latest import failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取导入记录失败"})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		Counts:     counts,
		LastImport: last,
		Running:    h.runner.Running(),
	})
}
