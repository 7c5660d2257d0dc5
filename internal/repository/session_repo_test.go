// Package repository 场次仓储单元测试
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

func setupSessionTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Booking{},
		&models.BookingSession{},
		&models.SessionOrder{},
		&models.SessionOrderItem{},
	)
	require.NoError(t, err)

	return db
}

func TestSessionRepository_CreateAndGetActive(t *testing.T) {
	db := setupSessionTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	session := &models.BookingSession{
		BookingID:   1,
		Status:      models.SessionStatusActive,
		CheckInTime: time.Now(),
		StaffID:     5,
	}
	require.NoError(t, repo.Create(ctx, session))
	assert.NotZero(t, session.ID)

	active, err := repo.GetActiveByBookingID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.ID, active.ID)

	_, err = repo.GetActiveByBookingID(ctx, 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSessionRepository_CompletedNotActive(t *testing.T) {
	db := setupSessionTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	now := time.Now()
	session := &models.BookingSession{
		BookingID:    1,
		Status:       models.SessionStatusCompleted,
		CheckInTime:  now.Add(-2 * time.Hour),
		CheckOutTime: &now,
		StaffID:      5,
		FinalAmount:  350000,
	}
	require.NoError(t, repo.Create(ctx, session))

	_, err := repo.GetActiveByBookingID(ctx, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	count, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSessionRepository_GetByIDWithOrders(t *testing.T) {
	db := setupSessionTestDB(t)
	repo := NewSessionRepository(db)
	orderRepo := NewSessionOrderRepository(db)
	ctx := context.Background()

	session := &models.BookingSession{
		BookingID: 1, Status: models.SessionStatusActive,
		CheckInTime: time.Now(), StaffID: 5,
	}
	require.NoError(t, repo.Create(ctx, session))

	order := &models.SessionOrder{
		OrderCode:     "OC20260905001",
		SessionID:     session.ID,
		PaymentType:   models.OrderPaymentConsolidated,
		PaymentStatus: models.PaymentStatusPending,
		TotalAmount:   100000,
		Items: []models.SessionOrderItem{
			{ProductID: 1, ProductName: "矿泉水", UnitPrice: 10000, Quantity: 10, Subtotal: 100000},
		},
	}
	require.NoError(t, orderRepo.Create(ctx, order))

	got, err := repo.GetByIDWithOrders(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, got.Orders, 1)
	require.Len(t, got.Orders[0].Items, 1)
	assert.Equal(t, "矿泉水", got.Orders[0].Items[0].ProductName)
}
