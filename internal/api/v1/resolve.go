package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dailyhealth/internal/dateparse"
	"dailyhealth/internal/model"
)

// StrategyRecover 恢复解析胜出时的策略名
const StrategyRecover = "recover"

// ResolveRequest 单值/批量解析请求
type ResolveRequest struct {
	Value   *string  `json:"value"`
	Values  []string `json:"values"`
	Recover bool     `json:"recover"` // 级联失败后是否尝试从文本中提取日期
}

// ResolveResult 单个原始值的解析结果
type ResolveResult struct {
	Raw      string `json:"raw"`
	Resolved bool   `json:"resolved"`
	Date     string `json:"date,omitempty"` // DD-MM-YYYY
	ISO      string `json:"iso,omitempty"`
	Strategy string `json:"strategy,omitempty"`
}

// Resolve 解析原始日期值
// POST /api/resolve
func (h *Handler) Resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}
	if req.Value == nil && len(req.Values) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 value 或 values"})
		return
	}

	if req.Value != nil {
		c.JSON(http.StatusOK, resolveOne(*req.Value, req.Recover))
		return
	}

	items := make([]ResolveResult, 0, len(req.Values))
	for _, v := range req.Values {
		items = append(items, resolveOne(v, req.Recover))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func resolveOne(raw string, withRecover bool) ResolveResult {
	res, strategy := dateparse.Explain(raw)
	if !res.Resolved() && withRecover {
		res, strategy = dateparse.Recover(raw), StrategyRecover
	}
	if !res.Resolved() {
		return ResolveResult{Raw: raw}
	}
	return ResolveResult{
		Raw:      raw,
		Resolved: true,
		Date:     model.FormatDayDate(res.Date),
		ISO:      res.Date.String(),
		Strategy: strategy,
	}
}
