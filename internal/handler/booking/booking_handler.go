// Package booking 提供预订相关的 HTTP Handler
package booking

import (
	"github.com/gin-gonic/gin"

	"github.com/sporthub/field-booking-backend/internal/common/handler"
	"github.com/sporthub/field-booking-backend/internal/common/response"
	bookingService "github.com/sporthub/field-booking-backend/internal/service/booking"
)

// Handler 预订处理器
type Handler struct {
	bookingService *bookingService.Service
}

// NewHandler 创建预订处理器
func NewHandler(bookingSvc *bookingService.Service) *Handler {
	return &Handler{
		bookingService: bookingSvc,
	}
}

// CreateBooking 创建预订
// @Summary 创建预订
// @Tags 预订
// @Accept json
// @Produce json
// @Param request body bookingService.CreateBookingRequest true "请求参数"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/v1/bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	var req bookingService.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), &req)
	handler.MustSucceed(c, err, booking)
}

// GetBooking 获取预订详情
// @Summary 获取预订详情
// @Tags 预订
// @Produce json
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/v1/bookings/{id} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	bookingID, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), bookingID)
	handler.MustSucceed(c, err, booking)
}

// GetBookingByCode 根据预订码获取预订
// @Summary 根据预订码获取预订
// @Tags 预订
// @Produce json
// @Param code path string true "预订码"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/v1/bookings/code/{code} [get]
func (h *Handler) GetBookingByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, "预订码不能为空")
		return
	}

	booking, err := h.bookingService.GetBookingByCode(c.Request.Context(), code)
	handler.MustSucceed(c, err, booking)
}

// ListBookings 获取预订列表
// @Summary 获取预订列表
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param field_id query int false "场地ID"
// @Param status query string false "状态"
// @Param date query string false "预订日期"
// @Param booking_code query string false "预订码"
// @Param guest_phone query string false "散客手机号"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/bookings [get]
func (h *Handler) ListBookings(c *gin.Context) {
	page, pageSize := handler.BindPagination(c)

	filters := make(map[string]interface{})
	if fieldID, ok := handler.ParseQueryID(c, "field_id", "场地"); !ok {
		return
	} else if fieldID != nil {
		filters["field_id"] = *fieldID
	}
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if date := c.Query("date"); date != "" {
		parsed, err := handler.ParseDate(date)
		if err != nil {
			response.BadRequest(c, "日期格式应为 YYYY-MM-DD")
			return
		}
		filters["date"] = parsed
	}
	if code := c.Query("booking_code"); code != "" {
		filters["booking_code"] = code
	}
	if phone := c.Query("guest_phone"); phone != "" {
		filters["guest_phone"] = phone
	}

	list, total, err := h.bookingService.ListBookings(c.Request.Context(), page, pageSize, filters)
	handler.MustSucceedPage(c, err, list, total, page, pageSize)
}

// EditBooking 修改预订
// @Summary 修改预订的场地或时段
// @Tags 预订
// @Accept json
// @Produce json
// @Param id path int true "预订ID"
// @Param request body bookingService.EditBookingRequest true "请求参数"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/v1/bookings/{id} [put]
func (h *Handler) EditBooking(c *gin.Context) {
	bookingID, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	var req bookingService.EditBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	booking, err := h.bookingService.EditBooking(c.Request.Context(), bookingID, &req)
	handler.MustSucceed(c, err, booking)
}

// Confirm 确认预订
// @Summary 确认预订
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/v1/bookings/{id}/confirm [post]
func (h *Handler) Confirm(c *gin.Context) {
	staffID, ok := handler.RequireStaffID(c)
	if !ok {
		return
	}
	bookingID, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	booking, err := h.bookingService.Confirm(c.Request.Context(), bookingID, staffID)
	handler.MustSucceedWithMessage(c, err, "预订已确认", booking)
}

// CancelRequest 取消预订请求
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// Cancel 取消预订
// @Summary 取消预订
// @Tags 预订
// @Accept json
// @Produce json
// @Param id path int true "预订ID"
// @Param request body CancelRequest false "请求参数"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/v1/bookings/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	bookingID, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	var req CancelRequest
	_ = c.ShouldBindJSON(&req)

	var staffID *int64
	if id := handler.GetOptionalStaffID(c); id > 0 {
		staffID = &id
	}

	booking, err := h.bookingService.Cancel(c.Request.Context(), bookingID, staffID, req.Reason)
	handler.MustSucceedWithMessage(c, err, "预订已取消", booking)
}

// MarkPaid 登记场地费支付
// @Summary 登记场地费支付
// @Tags 预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Param request body MarkPaidRequest true "请求参数"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/v1/bookings/{id}/pay [post]
func (h *Handler) MarkPaid(c *gin.Context) {
	if _, ok := handler.RequireStaffID(c); !ok {
		return
	}
	bookingID, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	var req MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	booking, err := h.bookingService.MarkPaid(c.Request.Context(), bookingID, req.Method, req.Ref)
	handler.MustSucceedWithMessage(c, err, "支付已登记", booking)
}

// MarkPaidRequest 登记支付请求
type MarkPaidRequest struct {
	Method string `json:"method" binding:"required"`
	Ref    string `json:"ref,omitempty"`
}
