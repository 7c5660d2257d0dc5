// Package pricing 提供定价相关的 HTTP Handler
package pricing

import (
	"github.com/gin-gonic/gin"

	"github.com/sporthub/field-booking-backend/internal/common/handler"
	"github.com/sporthub/field-booking-backend/internal/common/response"
	pricingService "github.com/sporthub/field-booking-backend/internal/service/pricing"
)

// Handler 定价处理器
type Handler struct {
	pricingService *pricingService.Service
}

// NewHandler 创建定价处理器
func NewHandler(pricingSvc *pricingService.Service) *Handler {
	return &Handler{
		pricingService: pricingSvc,
	}
}

// ComputePrice 计算时段价格
// @Summary 计算时段价格
// @Tags 定价
// @Produce json
// @Param field_type_id query int true "场地类型ID"
// @Param date query string true "日期 YYYY-MM-DD"
// @Param start_time query string true "开始时刻 HH:MM"
// @Param end_time query string true "结束时刻 HH:MM"
// @Success 200 {object} response.Response{data=PriceInfo}
// @Router /api/v1/price [get]
func (h *Handler) ComputePrice(c *gin.Context) {
	fieldTypeID, ok := handler.ParseRequiredQueryID(c, "field_type_id", "场地类型")
	if !ok {
		return
	}
	date, ok := handler.ParseDateParam(c, "date")
	if !ok {
		return
	}
	startTime := c.Query("start_time")
	endTime := c.Query("end_time")
	if startTime == "" || endTime == "" {
		response.BadRequest(c, "请提供 start_time 与 end_time")
		return
	}

	price, err := h.pricingService.ResolvePrice(c.Request.Context(), fieldTypeID, date, startTime, endTime)
	if handler.HandleError(c, err) {
		return
	}
	response.Success(c, &PriceInfo{
		FieldTypeID: fieldTypeID,
		Date:        date.Format(handler.DateFormat),
		StartTime:   startTime,
		EndTime:     endTime,
		Price:       price,
	})
}

// PriceInfo 时段价格
type PriceInfo struct {
	FieldTypeID int64   `json:"field_type_id"`
	Date        string  `json:"date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Price       float64 `json:"price"`
}

// ListRules 获取场地类型的定价规则
// @Summary 获取场地类型的定价规则
// @Tags 定价
// @Produce json
// @Security Bearer
// @Param field_type_id query int true "场地类型ID"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/pricing-rules [get]
func (h *Handler) ListRules(c *gin.Context) {
	fieldTypeID, ok := handler.ParseRequiredQueryID(c, "field_type_id", "场地类型")
	if !ok {
		return
	}

	rules, err := h.pricingService.ListRules(c.Request.Context(), fieldTypeID)
	handler.MustSucceed(c, err, rules)
}

// CreateRule 创建定价规则
// @Summary 创建定价规则
// @Tags 定价
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body pricingService.CreateRuleRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.PricingRule}
// @Router /api/v1/admin/pricing-rules [post]
func (h *Handler) CreateRule(c *gin.Context) {
	var req pricingService.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	rule, err := h.pricingService.CreateRule(c.Request.Context(), &req)
	handler.MustSucceedWithMessage(c, err, "定价规则已创建", rule)
}

// UpdateRule 更新定价规则
// @Summary 更新定价规则
// @Tags 定价
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "规则ID"
// @Param request body pricingService.UpdateRuleRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.PricingRule}
// @Router /api/v1/admin/pricing-rules/{id} [put]
func (h *Handler) UpdateRule(c *gin.Context) {
	ruleID, ok := handler.ParseID(c, "规则")
	if !ok {
		return
	}

	var req pricingService.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	rule, err := h.pricingService.UpdateRule(c.Request.Context(), ruleID, &req)
	handler.MustSucceedWithMessage(c, err, "定价规则已更新", rule)
}

// DeleteRule 删除定价规则
// @Summary 删除定价规则
// @Tags 定价
// @Produce json
// @Security Bearer
// @Param id path int true "规则ID"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/pricing-rules/{id} [delete]
func (h *Handler) DeleteRule(c *gin.Context) {
	ruleID, ok := handler.ParseID(c, "规则")
	if !ok {
		return
	}

	err := h.pricingService.DeleteRule(c.Request.Context(), ruleID)
	handler.MustSucceedWithMessage(c, err, "定价规则已删除", nil)
}
