package models

import (
	"time"
)

// Product 商品模型
// 场次消费可售卖的商品目录（饮用水、球衣租借等）
type Product struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(200);not null" json:"name"`
	Price       float64   `gorm:"type:decimal(12,2);not null" json:"price"`
	Unit        string    `gorm:"type:varchar(20);not null;default:'item'" json:"unit"`
	Stock       *int      `json:"stock,omitempty"`
	IsAvailable bool      `gorm:"not null;default:true" json:"is_available"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Product) TableName() string {
	return "products"
}
