// Package v1 提供日记录的 HTTP API。
package v1

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dailyhealth/internal/service/runner"
	"dailyhealth/internal/store"
)

// Handler V1 API 处理器
type Handler struct {
	store     *store.Store
	runner    *runner.Runner
	logger    *zap.Logger
	downloads *exportDownloadStore
}

// NewHandler 创建 V1 API 处理器
func NewHandler(st *store.Store, r *runner.Runner, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:     st,
		runner:    r,
		logger:    logger,
		downloads: newExportDownloadStore(),
	}
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 扫描导入
	router.POST("/import", h.Import)

	// 查询
	router.GET("/days", h.ListDays)
	router.GET("/unresolved", h.ListUnresolved)
	router.GET("/sources", h.ListSources)

	// 单值解析
	router.POST("/resolve", h.Resolve)

	// 导出
	router.GET("/export", h.Export)
	router.POST("/export/prepare", h.PrepareExport)
	router.GET("/export/download/:token", h.DownloadExport)
}
