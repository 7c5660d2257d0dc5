package models

import (
	"time"
)

// BookingStatus 预订状态
type BookingStatus string

// 预订状态枚举
const (
	BookingStatusPending   BookingStatus = "pending"   // 待确认
	BookingStatusConfirmed BookingStatus = "confirmed" // 已确认
	BookingStatusPlaying   BookingStatus = "playing"   // 进行中
	BookingStatusCompleted BookingStatus = "completed" // 已完成
	BookingStatusCancelled BookingStatus = "cancelled" // 已取消
)

// bookingTransitions 预订状态转换表
// 不在表中的转换一律拒绝
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusPlaying, BookingStatusCancelled},
	BookingStatusPlaying:   {BookingStatusCompleted},
	BookingStatusCompleted: {},
	BookingStatusCancelled: {},
}

// IsValid 判断是否为合法状态值
func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo 判断能否转换到目标状态
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal 判断是否为终态
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// PaymentStatus 支付状态
type PaymentStatus string

// 支付状态枚举
const (
	PaymentStatusPending  PaymentStatus = "pending"  // 待支付
	PaymentStatusPaid     PaymentStatus = "paid"     // 已支付
	PaymentStatusRefunded PaymentStatus = "refunded" // 已退款
)

// Booking 预订模型
// UserID 与散客信息（GuestName/GuestPhone）二选一
type Booking struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingCode   string        `gorm:"type:varchar(32);uniqueIndex;not null" json:"booking_code"`
	UserID        *int64        `gorm:"index" json:"user_id,omitempty"`
	GuestName     *string       `gorm:"type:varchar(100)" json:"guest_name,omitempty"`
	GuestPhone    *string       `gorm:"type:varchar(20)" json:"guest_phone,omitempty"`
	GuestEmail    *string       `gorm:"type:varchar(100)" json:"guest_email,omitempty"`
	FieldID       int64         `gorm:"index;not null" json:"field_id"`
	BookingDate   time.Time     `gorm:"type:date;not null;index" json:"booking_date"`
	StartTime     string        `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime       string        `gorm:"type:varchar(5);not null" json:"end_time"`
	DurationHours float64       `gorm:"type:decimal(4,1);not null" json:"duration_hours"`
	Status        BookingStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TotalPrice    float64       `gorm:"type:decimal(12,2);not null" json:"total_price"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	PaymentMethod *string       `gorm:"type:varchar(20)" json:"payment_method,omitempty"`
	PaymentRef    *string       `gorm:"type:varchar(64)" json:"payment_ref,omitempty"`
	ConfirmedAt   *time.Time    `json:"confirmed_at,omitempty"`
	ConfirmedBy   *int64        `json:"confirmed_by,omitempty"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty"`
	CancelledBy   *int64        `json:"cancelled_by,omitempty"`
	CancelReason  *string       `gorm:"type:varchar(255)" json:"cancel_reason,omitempty"`
	Notes         *string       `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Field    *Field           `gorm:"foreignKey:FieldID" json:"field,omitempty"`
	Sessions []BookingSession `gorm:"foreignKey:BookingID" json:"sessions,omitempty"`
}

// TableName 表名
func (Booking) TableName() string {
	return "bookings"
}

// IsGuest 判断是否为散客预订
func (b *Booking) IsGuest() bool {
	return b.UserID == nil
}
