// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sporthub/field-booking-backend/internal/models"
)

// SessionOrderRepository 场次订单仓储
type SessionOrderRepository struct {
	db *gorm.DB
}

// NewSessionOrderRepository 创建场次订单仓储
func NewSessionOrderRepository(db *gorm.DB) *SessionOrderRepository {
	return &SessionOrderRepository{db: db}
}

// Create 创建订单（级联写入明细）
func (r *SessionOrderRepository) Create(ctx context.Context, order *models.SessionOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByID 根据 ID 获取订单
func (r *SessionOrderRepository) GetByID(ctx context.Context, id int64) (*models.SessionOrder, error) {
	var order models.SessionOrder
	err := r.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByIDWithItems 根据 ID 获取订单（包含明细）
func (r *SessionOrderRepository) GetByIDWithItems(ctx context.Context, id int64) (*models.SessionOrder, error) {
	var order models.SessionOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ExistsByCode 判断订单码是否已存在
func (r *SessionOrderRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SessionOrder{}).
		Where("order_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

// CountByDate 统计当日创建的订单数量
func (r *SessionOrderRepository) CountByDate(ctx context.Context, dayStart, dayEnd time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SessionOrder{}).
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
		Count(&count).Error
	return count, err
}

// Update 更新订单
func (r *SessionOrderRepository) Update(ctx context.Context, order *models.SessionOrder) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// Delete 删除订单及其明细
func (r *SessionOrderRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_order_id = ?", id).Delete(&models.SessionOrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.SessionOrder{}, id).Error
	})
}

// ListBySession 获取场次的全部订单（包含明细）
func (r *SessionOrderRepository) ListBySession(ctx context.Context, sessionID int64) ([]*models.SessionOrder, error) {
	var orders []*models.SessionOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("session_id = ?", sessionID).
		Order("created_at").
		Find(&orders).Error
	return orders, err
}

// GetItem 获取订单明细
func (r *SessionOrderRepository) GetItem(ctx context.Context, itemID int64) (*models.SessionOrderItem, error) {
	var item models.SessionOrderItem
	err := r.db.WithContext(ctx).First(&item, itemID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem 删除订单明细
func (r *SessionOrderRepository) DeleteItem(ctx context.Context, itemID int64) error {
	return r.db.WithContext(ctx).Delete(&models.SessionOrderItem{}, itemID).Error
}

// CountItems 统计订单的明细条数
func (r *SessionOrderRepository) CountItems(ctx context.Context, orderID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SessionOrderItem{}).
		Where("session_order_id = ?", orderID).
		Count(&count).Error
	return count, err
}
