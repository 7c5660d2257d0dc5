package models

import (
	"time"
)

// SessionStatus 场次状态
type SessionStatus string

// 场次状态枚举
const (
	SessionStatusActive    SessionStatus = "active"    // 进行中
	SessionStatusCompleted SessionStatus = "completed" // 已结账
	SessionStatusCancelled SessionStatus = "cancelled" // 已作废
)

// BookingSession 到场消费场次
// 每个预订同时最多存在一个 Active 场次
type BookingSession struct {
	ID           int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID    int64         `gorm:"index;not null" json:"booking_id"`
	Status       SessionStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CheckInTime  time.Time     `gorm:"not null" json:"check_in_time"`
	CheckOutTime *time.Time    `json:"check_out_time,omitempty"`
	StaffID      int64         `gorm:"not null" json:"staff_id"`
	FinalAmount  float64       `gorm:"type:decimal(12,2);not null;default:0" json:"final_amount"`
	OvertimeFee  float64       `gorm:"type:decimal(12,2);not null;default:0" json:"overtime_fee"`
	Notes        *string       `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt    time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Booking *Booking       `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	Orders  []SessionOrder `gorm:"foreignKey:SessionID" json:"orders,omitempty"`
}

// TableName 表名
func (BookingSession) TableName() string {
	return "booking_sessions"
}

// OrderPaymentType 场次订单支付方式
type OrderPaymentType string

// 支付方式枚举
const (
	OrderPaymentImmediate    OrderPaymentType = "immediate"    // 即时支付
	OrderPaymentConsolidated OrderPaymentType = "consolidated" // 结账时合并支付
)

// SessionOrder 场次内商品订单
type SessionOrder struct {
	ID            int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderCode     string           `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_code"`
	SessionID     int64            `gorm:"index;not null" json:"session_id"`
	PaymentType   OrderPaymentType `gorm:"type:varchar(20);not null" json:"payment_type"`
	PaymentStatus PaymentStatus    `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	TotalAmount   float64          `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	PaidAt        *time.Time       `json:"paid_at,omitempty"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Session *BookingSession    `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	Items   []SessionOrderItem `gorm:"foreignKey:SessionOrderID" json:"items,omitempty"`
}

// TableName 表名
func (SessionOrder) TableName() string {
	return "session_orders"
}

// SessionOrderItem 订单明细
// 单价在售出时刻快照，商品后续调价不影响历史账单
type SessionOrderItem struct {
	ID             int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionOrderID int64   `gorm:"index;not null" json:"session_order_id"`
	ProductID      int64   `gorm:"not null" json:"product_id"`
	ProductName    string  `gorm:"type:varchar(200);not null" json:"product_name"`
	UnitPrice      float64 `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity       int     `gorm:"not null" json:"quantity"`
	Subtotal       float64 `gorm:"type:decimal(12,2);not null" json:"subtotal"`

	// 关联
	Order   *SessionOrder `gorm:"foreignKey:SessionOrderID" json:"order,omitempty"`
	Product *Product      `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName 表名
func (SessionOrderItem) TableName() string {
	return "session_order_items"
}
