package models

import (
	"time"
)

// ScheduleStatus 时段状态
type ScheduleStatus string

// 时段状态枚举
const (
	ScheduleStatusAvailable ScheduleStatus = "available" // 可预订
	ScheduleStatusBooked    ScheduleStatus = "booked"    // 已预订
	ScheduleStatusBlocked   ScheduleStatus = "blocked"   // 停用封场
)

// FieldSchedule 场地时段台账
// 由预订表派生的投影，可随时通过 Resync 重建
// (field_id, date, start_time, end_time) 唯一，数据库约束兜底并发写入
type FieldSchedule struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	FieldID     int64          `gorm:"not null;uniqueIndex:uk_field_slot" json:"field_id"`
	Date        time.Time      `gorm:"type:date;not null;uniqueIndex:uk_field_slot" json:"date"`
	StartTime   string         `gorm:"type:varchar(5);not null;uniqueIndex:uk_field_slot" json:"start_time"`
	EndTime     string         `gorm:"type:varchar(5);not null;uniqueIndex:uk_field_slot" json:"end_time"`
	Status      ScheduleStatus `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	BookingID   *int64         `gorm:"index" json:"booking_id,omitempty"`
	BlockReason *string        `gorm:"type:varchar(255)" json:"block_reason,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Field   *Field   `gorm:"foreignKey:FieldID" json:"field,omitempty"`
	Booking *Booking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
}

// TableName 表名
func (FieldSchedule) TableName() string {
	return "field_schedules"
}
