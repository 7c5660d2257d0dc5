package models

import (
	"time"

	"gorm.io/gorm"
)

// FieldType 场地类型模型
// 例如 5人制、7人制、11人制足球场
type FieldType struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(50);not null" json:"name"`
	PlayerCount int       `gorm:"not null" json:"player_count"`
	BasePrice   float64   `gorm:"type:decimal(12,2);not null" json:"base_price"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Fields       []Field       `gorm:"foreignKey:FieldTypeID" json:"fields,omitempty"`
	PricingRules []PricingRule `gorm:"foreignKey:FieldTypeID" json:"pricing_rules,omitempty"`
}

// TableName 表名
func (FieldType) TableName() string {
	return "field_types"
}

// Field 场地模型
type Field struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Name        string         `gorm:"type:varchar(100);not null" json:"name"`
	FieldTypeID int64          `gorm:"index;not null" json:"field_type_id"`
	OpenTime    string         `gorm:"type:varchar(5);not null;default:'06:00'" json:"open_time"`
	CloseTime   string         `gorm:"type:varchar(5);not null;default:'23:00'" json:"close_time"`
	Description *string        `gorm:"type:text" json:"description,omitempty"`
	Status      int8           `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// 关联
	FieldType *FieldType `gorm:"foreignKey:FieldTypeID" json:"field_type,omitempty"`
}

// TableName 表名
func (Field) TableName() string {
	return "fields"
}

// FieldStatus 场地状态
const (
	FieldStatusInactive    = 0 // 停用
	FieldStatusActive      = 1 // 正常
	FieldStatusMaintenance = 2 // 维护中
)

// PricingRule 定价规则模型
// 同一场地类型同一星期几的生效规则时段不允许重叠
type PricingRule struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	FieldTypeID    int64      `gorm:"index;not null" json:"field_type_id"`
	DayOfWeek      int        `gorm:"not null" json:"day_of_week"` // 1=周一 ... 7=周日
	StartTime      string     `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime        string     `gorm:"type:varchar(5);not null" json:"end_time"`
	Price          float64    `gorm:"type:decimal(12,2);not null" json:"price"`
	IsPeakHour     bool       `gorm:"not null;default:false" json:"is_peak_hour"`
	PeakMultiplier float64    `gorm:"type:decimal(5,2);not null;default:1" json:"peak_multiplier"`
	EffectiveFrom  *time.Time `gorm:"type:date" json:"effective_from,omitempty"`
	EffectiveTo    *time.Time `gorm:"type:date" json:"effective_to,omitempty"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	FieldType *FieldType `gorm:"foreignKey:FieldTypeID" json:"field_type,omitempty"`
}

// TableName 表名
func (PricingRule) TableName() string {
	return "pricing_rules"
}
