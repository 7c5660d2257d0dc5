// Package session 提供场次账单相关的 HTTP Handler
package session

import (
	"github.com/gin-gonic/gin"

	"github.com/sporthub/field-booking-backend/internal/common/handler"
	"github.com/sporthub/field-booking-backend/internal/common/response"
	"github.com/sporthub/field-booking-backend/internal/models"
	sessionService "github.com/sporthub/field-booking-backend/internal/service/session"
)

// Handler 场次处理器
type Handler struct {
	sessionService *sessionService.Service
}

// NewHandler 创建场次处理器
func NewHandler(sessionSvc *sessionService.Service) *Handler {
	return &Handler{
		sessionService: sessionSvc,
	}
}

// CheckInRequest 入场请求
type CheckInRequest struct {
	BookingID int64   `json:"booking_id" binding:"required"`
	Notes     *string `json:"notes,omitempty"`
}

// CheckIn 到场开场次
// @Summary 到场开场次
// @Tags 场次
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CheckInRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.BookingSession}
// @Router /api/v1/sessions/check-in [post]
func (h *Handler) CheckIn(c *gin.Context) {
	staffID, ok := handler.RequireStaffID(c)
	if !ok {
		return
	}

	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	session, err := h.sessionService.CheckIn(c.Request.Context(), req.BookingID, staffID, req.Notes)
	handler.MustSucceedWithMessage(c, err, "已入场", session)
}

// AddProductsRequest 场次下单请求
type AddProductsRequest struct {
	Items       []sessionService.OrderItemRequest `json:"items" binding:"required,dive"`
	PaymentType models.OrderPaymentType           `json:"payment_type" binding:"required"`
}

// AddProducts 场次内下单
// @Summary 场次内下单
// @Tags 场次
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "场次ID"
// @Param request body AddProductsRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.SessionOrder}
// @Router /api/v1/sessions/{id}/orders [post]
func (h *Handler) AddProducts(c *gin.Context) {
	if _, ok := handler.RequireStaffID(c); !ok {
		return
	}
	sessionID, ok := handler.ParseID(c, "场次")
	if !ok {
		return
	}

	var req AddProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	order, err := h.sessionService.AddProducts(c.Request.Context(), sessionID, req.Items, req.PaymentType)
	handler.MustSucceed(c, err, order)
}

// PayOrder 登记订单支付
// @Summary 登记场次订单支付
// @Tags 场次
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=models.SessionOrder}
// @Router /api/v1/session-orders/{id}/pay [post]
func (h *Handler) PayOrder(c *gin.Context) {
	if _, ok := handler.RequireStaffID(c); !ok {
		return
	}
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	order, err := h.sessionService.PaySessionOrder(c.Request.Context(), orderID)
	handler.MustSucceedWithMessage(c, err, "订单已支付", order)
}

// RemoveOrderItem 删除订单明细
// @Summary 删除场次订单明细
// @Tags 场次
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Param item_id path int true "明细ID"
// @Success 200 {object} response.Response
// @Router /api/v1/session-orders/{id}/items/{item_id} [delete]
func (h *Handler) RemoveOrderItem(c *gin.Context) {
	if _, ok := handler.RequireStaffID(c); !ok {
		return
	}
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}
	itemID, ok := handler.ParseParamID(c, "item_id", "明细")
	if !ok {
		return
	}

	err := h.sessionService.RemoveOrderItem(c.Request.Context(), orderID, itemID)
	handler.MustSucceedWithMessage(c, err, "明细已删除", nil)
}

// GetBill 结账前预览
// @Summary 结账前预览账单
// @Tags 场次
// @Produce json
// @Security Bearer
// @Param id path int true "场次ID"
// @Success 200 {object} response.Response{data=sessionService.BillDetails}
// @Router /api/v1/sessions/{id}/bill [get]
func (h *Handler) GetBill(c *gin.Context) {
	if _, ok := handler.RequireStaffID(c); !ok {
		return
	}
	sessionID, ok := handler.ParseID(c, "场次")
	if !ok {
		return
	}

	bill, err := h.sessionService.GetBillDetails(c.Request.Context(), sessionID)
	handler.MustSucceed(c, err, bill)
}

// CheckOutRequest 结账请求
type CheckOutRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// CheckOutResult 结账结果
type CheckOutResult struct {
	Session *models.BookingSession      `json:"session"`
	Bill    *sessionService.BillDetails `json:"bill"`
}

// CheckOut 结账关闭场次
// @Summary 结账关闭场次
// @Tags 场次
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "场次ID"
// @Param request body CheckOutRequest false "请求参数"
// @Success 200 {object} response.Response{data=CheckOutResult}
// @Router /api/v1/sessions/{id}/check-out [post]
func (h *Handler) CheckOut(c *gin.Context) {
	staffID, ok := handler.RequireStaffID(c)
	if !ok {
		return
	}
	sessionID, ok := handler.ParseID(c, "场次")
	if !ok {
		return
	}

	var req CheckOutRequest
	_ = c.ShouldBindJSON(&req)

	session, bill, err := h.sessionService.CheckOut(c.Request.Context(), sessionID, staffID, req.Notes)
	handler.MustSucceedWithMessage(c, err, "已结账", &CheckOutResult{
		Session: session,
		Bill:    bill,
	})
}

// GetSession 获取场次详情
// @Summary 获取场次详情
// @Tags 场次
// @Produce json
// @Security Bearer
// @Param id path int true "场次ID"
// @Success 200 {object} response.Response{data=models.BookingSession}
// @Router /api/v1/sessions/{id} [get]
func (h *Handler) GetSession(c *gin.Context) {
	if _, ok := handler.RequireStaffID(c); !ok {
		return
	}
	sessionID, ok := handler.ParseID(c, "场次")
	if !ok {
		return
	}

	session, err := h.sessionService.GetSession(c.Request.Context(), sessionID)
	handler.MustSucceed(c, err, session)
}

// ListSessions 获取场次列表
// @Summary 获取场次列表
// @Tags 场次
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param status query string false "状态"
// @Param booking_id query int false "预订ID"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/sessions [get]
func (h *Handler) ListSessions(c *gin.Context) {
	if _, ok := handler.RequireStaffID(c); !ok {
		return
	}
	page, pageSize := handler.BindPagination(c)

	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if bookingID, ok := handler.ParseQueryID(c, "booking_id", "预订"); !ok {
		return
	} else if bookingID != nil {
		filters["booking_id"] = *bookingID
	}

	list, total, err := h.sessionService.ListSessions(c.Request.Context(), page, pageSize, filters)
	handler.MustSucceedPage(c, err, list, total, page, pageSize)
}
