// Package scheduler 提供定时任务
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sporthub/field-booking-backend/internal/common/logger"
	"github.com/sporthub/field-booking-backend/internal/repository"
	bookingService "github.com/sporthub/field-booking-backend/internal/service/booking"
)

// 单次清理的处理上限
const noShowBatchSize = 100

// TaskHandler 任务处理器
type TaskHandler struct {
	db             *gorm.DB
	bookingService *bookingService.Service
	noShowGrace    time.Duration
	now            func() time.Time
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(db *gorm.DB, bookingSvc *bookingService.Service, noShowGrace time.Duration) *TaskHandler {
	return &TaskHandler{
		db:             db,
		bookingService: bookingSvc,
		noShowGrace:    noShowGrace,
		now:            time.Now,
	}
}

// SweepNoShows 清理爽约预订
// 开场超过宽限期仍未确认的 Pending 预订自动取消并释放时段
// 单条失败不中断批次，留待下个周期重试
func (h *TaskHandler) SweepNoShows(ctx context.Context) error {
	deadline := h.now().Add(-h.noShowGrace)
	date := time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 0, 0, 0, 0, time.UTC)
	startTimeBefore := deadline.Format("15:04")

	bookingRepo := repository.NewBookingRepository(h.db)
	bookings, err := bookingRepo.ListNoShow(ctx, date, startTimeBefore, noShowBatchSize)
	if err != nil {
		return err
	}
	if len(bookings) == 0 {
		return nil
	}

	logger.Info("发现爽约预订",
		logger.Module("scheduler"),
		zap.Int("count", len(bookings)),
	)

	for _, b := range bookings {
		if _, err := h.bookingService.Cancel(ctx, b.ID, nil, "超时未确认，系统自动取消"); err != nil {
			logger.Error("取消爽约预订失败",
				logger.Module("scheduler"),
				logger.BookingID(b.ID),
				logger.BookingCode(b.BookingCode),
				zap.Error(err),
			)
		}
	}
	return nil
}
