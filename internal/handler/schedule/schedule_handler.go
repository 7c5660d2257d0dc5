// Package schedule 提供场地档期相关的 HTTP Handler
package schedule

import (
	"github.com/gin-gonic/gin"

	"github.com/sporthub/field-booking-backend/internal/common/handler"
	"github.com/sporthub/field-booking-backend/internal/common/response"
	scheduleService "github.com/sporthub/field-booking-backend/internal/service/schedule"
)

// Handler 档期处理器
type Handler struct {
	scheduleService *scheduleService.Service
}

// NewHandler 创建档期处理器
func NewHandler(scheduleSvc *scheduleService.Service) *Handler {
	return &Handler{
		scheduleService: scheduleSvc,
	}
}

// CheckAvailability 查询时段是否可预订
// @Summary 查询时段是否可预订
// @Tags 档期
// @Produce json
// @Param field_id query int true "场地ID"
// @Param date query string true "日期 YYYY-MM-DD"
// @Param start_time query string true "开始时刻 HH:MM"
// @Param end_time query string true "结束时刻 HH:MM"
// @Success 200 {object} response.Response{data=AvailabilityInfo}
// @Router /api/v1/availability [get]
func (h *Handler) CheckAvailability(c *gin.Context) {
	fieldID, ok := handler.ParseRequiredQueryID(c, "field_id", "场地")
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

	free, err := h.scheduleService.IsSlotFree(c.Request.Context(), fieldID, date, startTime, endTime, nil)
	if handler.HandleError(c, err) {
		return
	}
	response.Success(c, &AvailabilityInfo{
		FieldID:   fieldID,
		Date:      date.Format(handler.DateFormat),
		StartTime: startTime,
		EndTime:   endTime,
		Available: free,
	})
}

// AvailabilityInfo 时段可用性
type AvailabilityInfo struct {
	FieldID   int64  `json:"field_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}

// DaySchedule 获取场地单日档期
// @Summary 获取场地单日档期
// @Tags 档期
// @Produce json
// @Param id path int true "场地ID"
// @Param date query string true "日期 YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Router /api/v1/fields/{id}/schedule [get]
func (h *Handler) DaySchedule(c *gin.Context) {
	fieldID, ok := handler.ParseID(c, "场地")
	if !ok {
		return
	}
	date, ok := handler.ParseDateParam(c, "date")
	if !ok {
		return
	}

	entries, err := h.scheduleService.DaySchedule(c.Request.Context(), fieldID, date)
	handler.MustSucceed(c, err, entries)
}

// BlockRequest 封锁时段请求
type BlockRequest struct {
	FieldID   int64  `json:"field_id" binding:"required"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

// Block 封锁时段
// @Summary 封锁时段
// @Tags 档期
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body BlockRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/schedules/block [post]
func (h *Handler) Block(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	date, err := handler.ParseDate(req.Date)
	if err != nil {
		response.BadRequest(c, "日期格式应为 YYYY-MM-DD")
		return
	}

	err = h.scheduleService.Block(c.Request.Context(), req.FieldID, date, req.StartTime, req.EndTime, req.Reason)
	handler.MustSucceedWithMessage(c, err, "时段已封锁", nil)
}

// UnblockRequest 解除封锁请求
type UnblockRequest struct {
	FieldID   int64  `json:"field_id" binding:"required"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

// Unblock 解除时段封锁
// @Summary 解除时段封锁
// @Tags 档期
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body UnblockRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/schedules/unblock [post]
func (h *Handler) Unblock(c *gin.Context) {
	var req UnblockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	date, err := handler.ParseDate(req.Date)
	if err != nil {
		response.BadRequest(c, "日期格式应为 YYYY-MM-DD")
		return
	}

	err = h.scheduleService.Unblock(c.Request.Context(), req.FieldID, date, req.StartTime, req.EndTime)
	handler.MustSucceedWithMessage(c, err, "封锁已解除", nil)
}

// ResyncRequest 重建台账请求
type ResyncRequest struct {
	FieldID int64  `json:"field_id" binding:"required"`
	Date    string `json:"date" binding:"required"`
}

// Resync 从预订重建单日台账
// @Summary 从预订重建单日台账
// @Tags 档期
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body ResyncRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/schedules/resync [post]
func (h *Handler) Resync(c *gin.Context) {
	var req ResyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	date, err := handler.ParseDate(req.Date)
	if err != nil {
		response.BadRequest(c, "日期格式应为 YYYY-MM-DD")
		return
	}

	err = h.scheduleService.Resync(c.Request.Context(), req.FieldID, date)
	handler.MustSucceedWithMessage(c, err, "台账已重建", nil)
}
