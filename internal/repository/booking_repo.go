// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sporthub/field-booking-backend/internal/models"
)

// BookingRepository 预订仓储
type BookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository 创建预订仓储
func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create 创建预订
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

// GetByID 根据 ID 获取预订
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByIDWithDetails 根据 ID 获取预订（包含关联信息）
func (r *BookingRepository) GetByIDWithDetails(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Field").
		Preload("Field.FieldType").
		First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByCode 根据预订码获取预订
func (r *BookingRepository) GetByCode(ctx context.Context, code string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("booking_code = ?", code).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ExistsByCode 判断预订码是否已存在
func (r *BookingRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("booking_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

// CountByDate 统计指定日期的预订数量（含已取消，计数只增不减）
func (r *BookingRepository) CountByDate(ctx context.Context, date time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("booking_date = ?", date).
		Count(&count).Error
	return count, err
}

// Update 更新预订
func (r *BookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Save(booking).Error
}

// UpdateFields 更新指定字段
func (r *BookingRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Updates(fields).Error
}

// ListOverlapping 获取与给定半开区间重叠的未取消预订
// 严格重叠判定：a.start < b.end AND a.end > b.start，相邻时段不冲突
func (r *BookingRepository) ListOverlapping(ctx context.Context, fieldID int64, date time.Time, startTime, endTime string, excludeBookingID *int64) ([]*models.Booking, error) {
	query := r.db.WithContext(ctx).
		Where("field_id = ?", fieldID).
		Where("booking_date = ?", date).
		Where("status <> ?", models.BookingStatusCancelled).
		Where("start_time < ? AND end_time > ?", endTime, startTime)

	if excludeBookingID != nil {
		query = query.Where("id <> ?", *excludeBookingID)
	}

	var bookings []*models.Booking
	err := query.Find(&bookings).Error
	return bookings, err
}

// ListByFieldDate 获取场地某日的全部未取消预订
func (r *BookingRepository) ListByFieldDate(ctx context.Context, fieldID int64, date time.Time) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := r.db.WithContext(ctx).
		Where("field_id = ?", fieldID).
		Where("booking_date = ?", date).
		Where("status <> ?", models.BookingStatusCancelled).
		Order("start_time").
		Find(&bookings).Error
	return bookings, err
}

// ListNoShow 获取超过宽限期仍未确认的预订
// 开场时刻加宽限期早于 deadline 的 Pending 预订视为爽约
func (r *BookingRepository) ListNoShow(ctx context.Context, date time.Time, startTimeBefore string, limit int) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ?", models.BookingStatusPending).
		Where("booking_date < ? OR (booking_date = ? AND start_time <= ?)", date, date, startTimeBefore).
		Order("booking_date, start_time").
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

// List 获取预订列表
func (r *BookingRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Booking, int64, error) {
	var bookings []*models.Booking
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Booking{})

	// 应用过滤条件
	if fieldID, ok := filters["field_id"].(int64); ok && fieldID > 0 {
		query = query.Where("field_id = ?", fieldID)
	}
	if userID, ok := filters["user_id"].(int64); ok && userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if status, ok := filters["status"].(models.BookingStatus); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if code, ok := filters["booking_code"].(string); ok && code != "" {
		query = query.Where("booking_code LIKE ?", "%"+code+"%")
	}
	if date, ok := filters["date"].(time.Time); ok {
		query = query.Where("booking_date = ?", date)
	}
	if guestPhone, ok := filters["guest_phone"].(string); ok && guestPhone != "" {
		query = query.Where("guest_phone = ?", guestPhone)
	}

	// 统计总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 查询列表
	if err := query.
		Preload("Field").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&bookings).Error; err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}
