// Package repository 场地时段台账仓储单元测试
package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sporthub/field-booking-backend/internal/models"
)

func setupScheduleTestDB(t *testing.T) *gorm.DB {
	// Upsert 依赖 gorm.ErrDuplicatedKey，需要开启错误翻译
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.FieldSchedule{})
	require.NoError(t, err)

	return db
}

func TestScheduleRepository_Upsert_Insert(t *testing.T) {
	db := setupScheduleTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	bookingID := int64(10)
	slot := &models.FieldSchedule{
		FieldID: 1, Date: date,
		StartTime: "18:00", EndTime: "19:00",
		Status: models.ScheduleStatusBooked, BookingID: &bookingID,
	}

	saved, err := repo.Upsert(ctx, slot)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
}

func TestScheduleRepository_Upsert_DuplicateFallsBackToUpdate(t *testing.T) {
	db := setupScheduleTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	first := &models.FieldSchedule{
		FieldID: 1, Date: date,
		StartTime: "18:00", EndTime: "19:00",
		Status: models.ScheduleStatusAvailable,
	}
	saved, err := repo.Upsert(ctx, first)
	require.NoError(t, err)

	// 同一时段再次写入，回退为更新既有记录
	bookingID := int64(22)
	second := &models.FieldSchedule{
		FieldID: 1, Date: date,
		StartTime: "18:00", EndTime: "19:00",
		Status: models.ScheduleStatusBooked, BookingID: &bookingID,
	}
	updated, err := repo.Upsert(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)
	assert.Equal(t, models.ScheduleStatusBooked, updated.Status)
	require.NotNil(t, updated.BookingID)
	assert.Equal(t, int64(22), *updated.BookingID)

	// 台账里仍然只有一行
	var count int64
	db.Model(&models.FieldSchedule{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestScheduleRepository_ListOverlapping(t *testing.T) {
	db := setupScheduleTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	reason := "草皮养护"
	_, err := repo.Upsert(ctx, &models.FieldSchedule{
		FieldID: 1, Date: date,
		StartTime: "08:00", EndTime: "10:00",
		Status: models.ScheduleStatusBlocked, BlockReason: &reason,
	})
	require.NoError(t, err)

	t.Run("重叠的封场时段命中", func(t *testing.T) {
		slots, err := repo.ListOverlapping(ctx, 1, date, "09:00", "11:00",
			[]models.ScheduleStatus{models.ScheduleStatusBlocked})
		require.NoError(t, err)
		assert.Len(t, slots, 1)
	})

	t.Run("相邻时段不命中", func(t *testing.T) {
		slots, err := repo.ListOverlapping(ctx, 1, date, "10:00", "12:00",
			[]models.ScheduleStatus{models.ScheduleStatusBlocked})
		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("状态过滤", func(t *testing.T) {
		slots, err := repo.ListOverlapping(ctx, 1, date, "09:00", "11:00",
			[]models.ScheduleStatus{models.ScheduleStatusBooked})
		require.NoError(t, err)
		assert.Empty(t, slots)
	})
}

func TestScheduleRepository_FindByBookingID(t *testing.T) {
	db := setupScheduleTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	bookingID := int64(7)
	_, err := repo.Upsert(ctx, &models.FieldSchedule{
		FieldID: 1, Date: date,
		StartTime: "18:00", EndTime: "19:00",
		Status: models.ScheduleStatusBooked, BookingID: &bookingID,
	})
	require.NoError(t, err)

	found, err := repo.FindByBookingID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "18:00", found.StartTime)

	_, err = repo.FindByBookingID(ctx, 8)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestScheduleRepository_DeleteBookedByFieldDate(t *testing.T) {
	db := setupScheduleTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	bookingID := int64(1)
	reason := "停电"
	_, err := repo.Upsert(ctx, &models.FieldSchedule{
		FieldID: 1, Date: date, StartTime: "08:00", EndTime: "09:00",
		Status: models.ScheduleStatusBooked, BookingID: &bookingID,
	})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, &models.FieldSchedule{
		FieldID: 1, Date: date, StartTime: "10:00", EndTime: "12:00",
		Status: models.ScheduleStatusBlocked, BlockReason: &reason,
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteBookedByFieldDate(ctx, 1, date))

	// Booked 被清除，Blocked 保留
	remaining, err := repo.ListByFieldDate(ctx, 1, date)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, models.ScheduleStatusBlocked, remaining[0].Status)
}
