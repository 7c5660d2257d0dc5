// Package schedule 提供场地时段台账服务
// 台账是预订表的投影，唯一约束兜底并发，可随时重建
package schedule

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sporthub/field-booking-backend/internal/common/errors"
	"github.com/sporthub/field-booking-backend/internal/common/logger"
	"github.com/sporthub/field-booking-backend/internal/common/utils"
	"github.com/sporthub/field-booking-backend/internal/models"
	"github.com/sporthub/field-booking-backend/internal/repository"
)

// Service 时段台账服务
type Service struct {
	db *gorm.DB
}

// NewService 创建时段台账服务
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// WithTx 返回绑定到事务的服务实例
// 预订写路径要求台账变更与预订变更同事务提交
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{db: tx}
}

// IsSlotFree 判断半开时段 [startTime, endTime) 是否可预订
// 同时检查未取消预订的严格重叠与管理封场
func (s *Service) IsSlotFree(ctx context.Context, fieldID int64, date time.Time, startTime, endTime string, excludeBookingID *int64) (bool, error) {
	if startTime >= endTime {
		return false, errors.ErrInvalidTimeRange
	}

	bookingRepo := repository.NewBookingRepository(s.db)
	overlaps, err := bookingRepo.ListOverlapping(ctx, fieldID, date, startTime, endTime, excludeBookingID)
	if err != nil {
		return false, errors.ErrDatabaseError.WithError(err)
	}
	if len(overlaps) > 0 {
		return false, nil
	}

	scheduleRepo := repository.NewScheduleRepository(s.db)
	blocked, err := scheduleRepo.ListOverlapping(ctx, fieldID, date, startTime, endTime,
		[]models.ScheduleStatus{models.ScheduleStatusBlocked})
	if err != nil {
		return false, errors.ErrDatabaseError.WithError(err)
	}
	return len(blocked) == 0, nil
}

// Reserve 将时段登记为已预订
// 幂等：同一预订重复登记同一时段不报错
// 被其他未取消预订占用或被封场时返回 ErrSlotConflict / ErrSlotBlocked
func (s *Service) Reserve(ctx context.Context, fieldID int64, date time.Time, startTime, endTime string, bookingID int64) error {
	scheduleRepo := repository.NewScheduleRepository(s.db)

	existing, err := scheduleRepo.FindSlot(ctx, fieldID, date, startTime, endTime)
	if err != nil && err != gorm.ErrRecordNotFound {
		return errors.ErrDatabaseError.WithError(err)
	}

	if existing != nil {
		switch existing.Status {
		case models.ScheduleStatusBlocked:
			return errors.ErrSlotBlocked
		case models.ScheduleStatusBooked:
			if existing.BookingID != nil && *existing.BookingID == bookingID {
				return nil
			}
			// 占用者可能已取消，以预订表为准
			if existing.BookingID != nil {
				if held, herr := s.holderStillActive(ctx, *existing.BookingID); herr != nil {
					return herr
				} else if held {
					return errors.ErrSlotConflict
				}
			}
		}
	}

	slot := &models.FieldSchedule{
		FieldID:   fieldID,
		Date:      date,
		StartTime: startTime,
		EndTime:   endTime,
		Status:    models.ScheduleStatusBooked,
		BookingID: &bookingID,
	}
	if _, err := scheduleRepo.Upsert(ctx, slot); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// holderStillActive 判断台账占用者对应的预订是否仍然有效
func (s *Service) holderStillActive(ctx context.Context, bookingID int64) (bool, error) {
	bookingRepo := repository.NewBookingRepository(s.db)
	holder, err := bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, errors.ErrDatabaseError.WithError(err)
	}
	return holder.Status != models.BookingStatusCancelled, nil
}

// Release 释放预订占用的时段
// 找不到台账记录视为已释放，幂等
func (s *Service) Release(ctx context.Context, bookingID int64) error {
	scheduleRepo := repository.NewScheduleRepository(s.db)

	slot, err := scheduleRepo.FindByBookingID(ctx, bookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	if err := scheduleRepo.Delete(ctx, slot.ID); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// Block 管理封场
// 时段被未取消预订占用时拒绝
func (s *Service) Block(ctx context.Context, fieldID int64, date time.Time, startTime, endTime string, reason string) error {
	if !utils.ValidateTimeOfDay(startTime) || !utils.ValidateTimeOfDay(endTime) || startTime >= endTime {
		return errors.ErrInvalidTimeRange
	}

	bookingRepo := repository.NewBookingRepository(s.db)
	overlaps, err := bookingRepo.ListOverlapping(ctx, fieldID, date, startTime, endTime, nil)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if len(overlaps) > 0 {
		return errors.ErrSlotConflict
	}

	scheduleRepo := repository.NewScheduleRepository(s.db)
	slot := &models.FieldSchedule{
		FieldID:     fieldID,
		Date:        date,
		StartTime:   startTime,
		EndTime:     endTime,
		Status:      models.ScheduleStatusBlocked,
		BlockReason: &reason,
	}
	if _, err := scheduleRepo.Upsert(ctx, slot); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// Unblock 解除封场
func (s *Service) Unblock(ctx context.Context, fieldID int64, date time.Time, startTime, endTime string) error {
	scheduleRepo := repository.NewScheduleRepository(s.db)

	slot, err := scheduleRepo.FindSlot(ctx, fieldID, date, startTime, endTime)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrScheduleNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if slot.Status != models.ScheduleStatusBlocked {
		return errors.ErrInvalidParams.WithMessage("该时段不是封场状态")
	}

	if err := scheduleRepo.Delete(ctx, slot.ID); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// Resync 从预订表重建场地某日的台账
// Booked 记录清空后按未取消预订重建，Blocked 记录保留
func (s *Service) Resync(ctx context.Context, fieldID int64, date time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scheduleRepo := repository.NewScheduleRepository(tx)
		bookingRepo := repository.NewBookingRepository(tx)

		if err := scheduleRepo.DeleteBookedByFieldDate(ctx, fieldID, date); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		bookings, err := bookingRepo.ListByFieldDate(ctx, fieldID, date)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		for _, b := range bookings {
			bookingID := b.ID
			slot := &models.FieldSchedule{
				FieldID:   fieldID,
				Date:      date,
				StartTime: b.StartTime,
				EndTime:   b.EndTime,
				Status:    models.ScheduleStatusBooked,
				BookingID: &bookingID,
			}
			if _, err := scheduleRepo.Upsert(ctx, slot); err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
		}

		logger.Info("台账重建完成",
			logger.Module("schedule"),
			logger.FieldID(fieldID),
		)
		return nil
	})
}

// DaySchedule 获取场地某日的台账视图
func (s *Service) DaySchedule(ctx context.Context, fieldID int64, date time.Time) ([]*models.FieldSchedule, error) {
	scheduleRepo := repository.NewScheduleRepository(s.db)
	slots, err := scheduleRepo.ListByFieldDate(ctx, fieldID, date)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return slots, nil
}
