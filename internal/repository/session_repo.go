// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sporthub/field-booking-backend/internal/models"
)

// SessionRepository 场次仓储
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建场次仓储
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create 创建场次
func (r *SessionRepository) Create(ctx context.Context, session *models.BookingSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetByID 根据 ID 获取场次
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.BookingSession, error) {
	var session models.BookingSession
	err := r.db.WithContext(ctx).First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetByIDWithOrders 根据 ID 获取场次（包含订单和明细）
func (r *SessionRepository) GetByIDWithOrders(ctx context.Context, id int64) (*models.BookingSession, error) {
	var session models.BookingSession
	err := r.db.WithContext(ctx).
		Preload("Booking").
		Preload("Orders").
		Preload("Orders.Items").
		First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetActiveByBookingID 获取预订当前进行中的场次
func (r *SessionRepository) GetActiveByBookingID(ctx context.Context, bookingID int64) (*models.BookingSession, error) {
	var session models.BookingSession
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Where("status = ?", models.SessionStatusActive).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Update 更新场次
func (r *SessionRepository) Update(ctx context.Context, session *models.BookingSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

// CountActive 统计进行中的场次数
func (r *SessionRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BookingSession{}).
		Where("status = ?", models.SessionStatusActive).
		Count(&count).Error
	return count, err
}

// List 获取场次列表
func (r *SessionRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.BookingSession, int64, error) {
	var sessions []*models.BookingSession
	var total int64

	query := r.db.WithContext(ctx).Model(&models.BookingSession{})

	if bookingID, ok := filters["booking_id"].(int64); ok && bookingID > 0 {
		query = query.Where("booking_id = ?", bookingID)
	}
	if status, ok := filters["status"].(models.SessionStatus); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if staffID, ok := filters["staff_id"].(int64); ok && staffID > 0 {
		query = query.Where("staff_id = ?", staffID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Booking").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}
