package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sporthub/field-booking-backend/internal/models"
	"github.com/sporthub/field-booking-backend/internal/service/booking"
	"github.com/sporthub/field-booking-backend/internal/service/pricing"
	"github.com/sporthub/field-booking-backend/internal/service/schedule"
)

func setupSweepTest(t *testing.T) (*TaskHandler, *booking.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.FieldType{},
		&models.Field{},
		&models.PricingRule{},
		&models.Booking{},
		&models.FieldSchedule{},
	)
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.FieldType{Name: "7人制", PlayerCount: 7, BasePrice: 150000}).Error)
	require.NoError(t, db.Create(&models.Field{
		Code:        "A1",
		Name:        "A1 号场",
		FieldTypeID: 1,
		OpenTime:    "06:00",
		CloseTime:   "23:00",
		Status:      models.FieldStatusActive,
	}).Error)

	bookingSvc := booking.NewService(db, pricing.NewService(db, time.Minute, false), schedule.NewService(db), booking.NewCodeService(10))

	handler := NewTaskHandler(db, bookingSvc, 30*time.Minute)
	// 基准时刻 2026-09-05 13:00，宽限截止 12:30
	handler.now = func() time.Time {
		return time.Date(2026, 9, 5, 13, 0, 0, 0, time.UTC)
	}
	return handler, bookingSvc, db
}

func createPendingBooking(t *testing.T, svc *booking.Service, date, start, end string) int64 {
	t.Helper()
	name := "张三"
	phone := "0912345678"
	info, err := svc.CreateBooking(context.Background(), &booking.CreateBookingRequest{
		FieldID:     1,
		BookingDate: date,
		StartTime:   start,
		EndTime:     end,
		GuestName:   &name,
		GuestPhone:  &phone,
	})
	require.NoError(t, err)
	return info.ID
}

func TestSweepNoShows(t *testing.T) {
	handler, svc, db := setupSweepTest(t)
	ctx := context.Background()

	// 开场 10:00，已超宽限期
	expired := createPendingBooking(t, svc, "2026-09-05", "10:00", "12:00")
	// 前一日的遗留 Pending
	stale := createPendingBooking(t, svc, "2026-09-04", "18:00", "20:00")
	// 开场 14:00，尚未到场时间
	upcoming := createPendingBooking(t, svc, "2026-09-05", "14:00", "16:00")
	// 已确认的同日预订不受影响
	confirmed := createPendingBooking(t, svc, "2026-09-05", "12:00", "13:00")
	_, err := svc.Confirm(ctx, confirmed, 9)
	require.NoError(t, err)

	require.NoError(t, handler.SweepNoShows(ctx))

	assertStatus := func(id int64, want models.BookingStatus) {
		var b models.Booking
		require.NoError(t, db.First(&b, id).Error)
		assert.Equal(t, want, b.Status)
	}
	assertStatus(expired, models.BookingStatusCancelled)
	assertStatus(stale, models.BookingStatusCancelled)
	assertStatus(upcoming, models.BookingStatusPending)
	assertStatus(confirmed, models.BookingStatusConfirmed)

	// 被清理的时段释放，可重新预订
	var count int64
	require.NoError(t, db.Model(&models.FieldSchedule{}).
		Where("booking_id IN ?", []int64{expired, stale}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// 取消原因落在预订上
	var b models.Booking
	require.NoError(t, db.First(&b, expired).Error)
	require.NotNil(t, b.CancelReason)
	assert.Equal(t, "超时未确认，系统自动取消", *b.CancelReason)

	t.Run("再次执行无副作用", func(t *testing.T) {
		require.NoError(t, handler.SweepNoShows(ctx))
		assertStatus(upcoming, models.BookingStatusPending)
	})
}

func TestSweepNoShows_Empty(t *testing.T) {
	handler, _, _ := setupSweepTest(t)
	assert.NoError(t, handler.SweepNoShows(context.Background()))
}
