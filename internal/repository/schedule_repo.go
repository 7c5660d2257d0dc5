// Package repository 提供数据访问层
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sporthub/field-booking-backend/internal/models"
)

// ScheduleRepository 场地时段台账仓储
type ScheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository 创建时段台账仓储
func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create 创建时段记录
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.FieldSchedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

// GetByID 根据 ID 获取时段记录
func (r *ScheduleRepository) GetByID(ctx context.Context, id int64) (*models.FieldSchedule, error) {
	var schedule models.FieldSchedule
	err := r.db.WithContext(ctx).First(&schedule, id).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindSlot 精确查找某场地某日的指定时段
func (r *ScheduleRepository) FindSlot(ctx context.Context, fieldID int64, date time.Time, startTime, endTime string) (*models.FieldSchedule, error) {
	var schedule models.FieldSchedule
	err := r.db.WithContext(ctx).
		Where("field_id = ?", fieldID).
		Where("date = ?", date).
		Where("start_time = ? AND end_time = ?", startTime, endTime).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Upsert 写入或更新时段记录
// 先尝试插入；命中唯一约束时回退为定位加更新，返回落库后的记录
// 并发写入同一时段时数据库唯一约束是最终仲裁
func (r *ScheduleRepository) Upsert(ctx context.Context, schedule *models.FieldSchedule) (*models.FieldSchedule, error) {
	err := r.db.WithContext(ctx).Create(schedule).Error
	if err == nil {
		return schedule, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}

	existing, ferr := r.FindSlot(ctx, schedule.FieldID, schedule.Date, schedule.StartTime, schedule.EndTime)
	if ferr != nil {
		return nil, ferr
	}

	existing.Status = schedule.Status
	existing.BookingID = schedule.BookingID
	existing.BlockReason = schedule.BlockReason
	if uerr := r.db.WithContext(ctx).Save(existing).Error; uerr != nil {
		return nil, uerr
	}
	return existing, nil
}

// Update 更新时段记录
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.FieldSchedule) error {
	return r.db.WithContext(ctx).Save(schedule).Error
}

// Delete 删除时段记录
func (r *ScheduleRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.FieldSchedule{}, id).Error
}

// ListOverlapping 获取与给定半开区间重叠且处于指定状态的时段记录
func (r *ScheduleRepository) ListOverlapping(ctx context.Context, fieldID int64, date time.Time, startTime, endTime string, statuses []models.ScheduleStatus) ([]*models.FieldSchedule, error) {
	query := r.db.WithContext(ctx).
		Where("field_id = ?", fieldID).
		Where("date = ?", date).
		Where("start_time < ? AND end_time > ?", endTime, startTime)

	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var schedules []*models.FieldSchedule
	err := query.Order("start_time").Find(&schedules).Error
	return schedules, err
}

// ListByFieldDate 获取场地某日的全部时段记录
func (r *ScheduleRepository) ListByFieldDate(ctx context.Context, fieldID int64, date time.Time) ([]*models.FieldSchedule, error) {
	var schedules []*models.FieldSchedule
	err := r.db.WithContext(ctx).
		Where("field_id = ?", fieldID).
		Where("date = ?", date).
		Order("start_time").
		Find(&schedules).Error
	return schedules, err
}

// FindByBookingID 根据预订 ID 查找台账记录
func (r *ScheduleRepository) FindByBookingID(ctx context.Context, bookingID int64) (*models.FieldSchedule, error) {
	var schedule models.FieldSchedule
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// DeleteBookedByFieldDate 删除场地某日的 Booked 状态记录
// Resync 重建前清场使用，Blocked 记录保留
func (r *ScheduleRepository) DeleteBookedByFieldDate(ctx context.Context, fieldID int64, date time.Time) error {
	return r.db.WithContext(ctx).
		Where("field_id = ?", fieldID).
		Where("date = ?", date).
		Where("status = ?", models.ScheduleStatusBooked).
		Delete(&models.FieldSchedule{}).Error
}
