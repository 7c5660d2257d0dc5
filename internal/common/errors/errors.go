// Package errors 定义业务错误码和错误处理
package errors

import (
	"fmt"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown          = New(1000, "未知错误")
	ErrInvalidParams    = New(1001, "参数错误")
	ErrNotFound         = New(1002, "资源不存在")
	ErrAlreadyExists    = New(1003, "资源已存在")
	ErrDatabaseError    = New(1004, "数据库错误")
	ErrCacheError       = New(1005, "缓存错误")
	ErrInternalError    = New(1006, "内部错误")
	ErrInvalidTimeRange = New(1007, "时间区间无效")
	ErrOperationFailed  = New(1008, "操作失败")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = New(2000, "未登录")
	ErrTokenExpired     = New(2001, "登录已过期")
	ErrTokenInvalid     = New(2002, "无效的令牌")
	ErrPermissionDenied = New(2003, "权限不足")
)

// 场地错误码 (4000-4999)
var (
	ErrFieldNotFound       = New(4000, "场地不存在")
	ErrFieldNotAvailable   = New(4001, "场地不可用")
	ErrFieldMaintenance    = New(4002, "场地维护中")
	ErrFieldTypeNotFound   = New(4003, "场地类型不存在")
	ErrPricingRuleNotFound = New(4004, "定价规则不存在")
	ErrPricingRuleOverlap  = New(4005, "定价规则时段重叠")
	ErrScheduleNotFound    = New(4006, "场地档期不存在")
	ErrSlotBlocked         = New(4007, "时段已被封锁")
)

// 商品错误码 (5000-5999)
var (
	ErrProductNotFound     = New(5000, "商品不存在")
	ErrProductNotAvailable = New(5001, "商品已下架")
)

// 预订错误码 (8000-8999)
var (
	ErrBookingNotFound     = New(8000, "预订不存在")
	ErrInvalidTransition   = New(8001, "预订状态不允许该操作")
	ErrSlotConflict        = New(8002, "时段已被预订")
	ErrBookingCodeConflict = New(8003, "预订编号冲突")
	ErrBookingHasSession   = New(8004, "预订存在进行中的场次")
	ErrGuestInfoRequired   = New(8005, "需要提供用户或散客联系方式之一")
	ErrDurationMismatch    = New(8006, "时长与时间区间不一致")
)

// 场次账单错误码 (8100-8199)
var (
	ErrSessionNotFound      = New(8100, "场次不存在")
	ErrSessionClosed        = New(8101, "场次已结账")
	ErrSessionActiveExists  = New(8102, "已存在进行中的场次")
	ErrSessionOrderNotFound = New(8103, "场次订单不存在")
	ErrSessionOrderPaid     = New(8104, "场次订单已支付")
	ErrOrderItemNotFound    = New(8105, "订单明细不存在")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrUnknown.WithError(err)
}
