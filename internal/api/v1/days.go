package v1

import (
	"fmt"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dailyhealth/internal/model"
	"dailyhealth/internal/store"
)

// DaysResponse 日记录列表响应
type DaysResponse struct {
	Items []model.CanonicalDayRecord `json:"items"`
	Total int                        `json:"total"`
}

// ListDays 查询日记录（按日期倒序）
// GET /api/days?from=DD-MM-YYYY&to=DD-MM-YYYY
func (h *Handler) ListDays(c *gin.Context) {
	from, err := parseDayParam(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 from 参数"})
		return
	}
	to, err := parseDayParam(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 to 参数"})
		return
	}
	if from != nil && to != nil && to.Before(*from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from 不能晚于 to"})
		return
	}

	items, err := h.store.ListDays(store.DayQueryOptions{From: from, To: to})
	if err != nil {
		h.logger.Error("list days failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询日记录失败"})
		return
	}

	c.JSON(http.StatusOK, DaysResponse{Items: items, Total: len(items)})
}

// ListUnresolved 查询未解析清单
// GET /api/unresolved
func (h *Handler) ListUnresolved(c *gin.Context) {
	items, err := h.store.ListUnresolved()
	if err != nil {
		h.logger.Error("list unresolved failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询未解析清单失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// ListSources 查询参与本次运行的来源
// GET /api/sources
func (h *Handler) ListSources(c *gin.Context) {
	items, err := h.store.ListSources()
	if err != nil {
		h.logger.Error("list sources failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询来源失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// parseDayParam 接受 DD-MM-YYYY 或 ISO YYYY-MM-DD；空串返回 nil
func parseDayParam(s string) (*civil.Date, error) {
	if s == "" {
		return nil, nil
	}
	if d, err := model.ParseDayDate(s); err == nil {
		return &d, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q", s)
	}
	return &d, nil
}
