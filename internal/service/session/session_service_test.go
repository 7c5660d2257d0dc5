package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sporthub/field-booking-backend/internal/common/errors"
	"github.com/sporthub/field-booking-backend/internal/models"
	"github.com/sporthub/field-booking-backend/internal/service/booking"
	"github.com/sporthub/field-booking-backend/internal/service/pricing"
	"github.com/sporthub/field-booking-backend/internal/service/schedule"
)

func setupSessionTest(t *testing.T) (*Service, *gorm.DB) {
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
		&models.BookingSession{},
		&models.SessionOrder{},
		&models.SessionOrderItem{},
		&models.Product{},
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
	require.NoError(t, db.Create(&models.Product{Name: "矿泉水", Price: 10000, Unit: "瓶", IsAvailable: true}).Error)
	require.NoError(t, db.Create(&models.Product{Name: "运动饮料", Price: 25000, Unit: "瓶", IsAvailable: true}).Error)
	require.NoError(t, db.Create(&models.Product{Name: "停售零食", Price: 5000, Unit: "包", IsAvailable: false}).Error)

	codeSvc := booking.NewCodeService(10)
	bookingSvc := booking.NewService(db, pricing.NewService(db, time.Minute, false), schedule.NewService(db), codeSvc)
	svc := NewService(db, bookingSvc, codeSvc)
	svc.now = func() time.Time {
		return time.Date(2026, 9, 5, 10, 30, 0, 0, time.Local)
	}
	return svc, db
}

// confirmedBooking 直接落库一条已确认预订
func confirmedBooking(t *testing.T, db *gorm.DB, code string, price float64, paid bool) *models.Booking {
	t.Helper()
	name := "张三"
	phone := "0912345678"
	b := &models.Booking{
		BookingCode:   code,
		GuestName:     &name,
		GuestPhone:    &phone,
		FieldID:       1,
		BookingDate:   time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
		StartTime:     "10:00",
		EndTime:       "12:00",
		DurationHours: 2,
		Status:        models.BookingStatusConfirmed,
		TotalPrice:    price,
		PaymentStatus: models.PaymentStatusPending,
	}
	if paid {
		b.PaymentStatus = models.PaymentStatusPaid
	}
	require.NoError(t, db.Create(b).Error)
	return b
}

func TestCheckIn(t *testing.T) {
	svc, db := setupSessionTest(t)
	ctx := context.Background()
	b := confirmedBooking(t, db, "BK20260905001", 300000, false)

	session, err := svc.CheckIn(ctx, b.ID, 9, nil)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusActive, session.Status)
	assert.Equal(t, int64(9), session.StaffID)
	assert.Nil(t, session.CheckOutTime)

	// 预订同步转进行中
	var updated models.Booking
	require.NoError(t, db.First(&updated, b.ID).Error)
	assert.Equal(t, models.BookingStatusPlaying, updated.Status)

	t.Run("重复入场被拒绝", func(t *testing.T) {
		_, err := svc.CheckIn(ctx, b.ID, 9, nil)
		assert.ErrorIs(t, err, errors.ErrInvalidTransition)
	})

	t.Run("未确认的预订不可入场", func(t *testing.T) {
		pending := confirmedBooking(t, db, "BK20260905002", 300000, false)
		require.NoError(t, db.Model(pending).Update("status", models.BookingStatusPending).Error)
		_, err := svc.CheckIn(ctx, pending.ID, 9, nil)
		assert.ErrorIs(t, err, errors.ErrInvalidTransition)
	})

	t.Run("不存在的预订", func(t *testing.T) {
		_, err := svc.CheckIn(ctx, 9999, 9, nil)
		assert.ErrorIs(t, err, errors.ErrBookingNotFound)
	})
}

func TestCheckIn_RejectsSecondActiveSession(t *testing.T) {
	svc, db := setupSessionTest(t)
	ctx := context.Background()
	b := confirmedBooking(t, db, "BK20260905001", 300000, false)

	_, err := svc.CheckIn(ctx, b.ID, 9, nil)
	require.NoError(t, err)

	// 预订被手工改回已确认后，仍被进行中的场次挡住
	require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", b.ID).
		Update("status", models.BookingStatusConfirmed).Error)
	_, err = svc.CheckIn(ctx, b.ID, 9, nil)
	assert.ErrorIs(t, err, errors.ErrSessionActiveExists)
}

func TestAddProducts(t *testing.T) {
	svc, db := setupSessionTest(t)
	ctx := context.Background()
	b := confirmedBooking(t, db, "BK20260905001", 300000, false)
	session, err := svc.CheckIn(ctx, b.ID, 9, nil)
	require.NoError(t, err)

	order, err := svc.AddProducts(ctx, session.ID, []OrderItemRequest{
		{ProductID: 1, Quantity: 3},
		{ProductID: 2, Quantity: 2},
	}, models.OrderPaymentConsolidated)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(order.OrderCode, "OC20260905"))
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	// 3×10000 + 2×25000
	assert.Equal(t, float64(80000), order.TotalAmount)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "矿泉水", order.Items[0].ProductName)
	assert.Equal(t, float64(30000), order.Items[0].Subtotal)

	t.Run("单价快照不受后续调价影响", func(t *testing.T) {
		require.NoError(t, db.Model(&models.Product{}).Where("id = ?", 1).
			Update("price", 99999).Error)
		var item models.SessionOrderItem
		require.NoError(t, db.First(&item, order.Items[0].ID).Error)
		assert.Equal(t, float64(10000), item.UnitPrice)
	})

	t.Run("商品不存在", func(t *testing.T) {
		_, err := svc.AddProducts(ctx, session.ID, []OrderItemRequest{{ProductID: 999, Quantity: 1}},
			models.OrderPaymentImmediate)
		assert.ErrorIs(t, err, errors.ErrProductNotFound)
	})

	t.Run("已下架商品", func(t *testing.T) {
		_, err := svc.AddProducts(ctx, session.ID, []OrderItemRequest{{ProductID: 3, Quantity: 1}},
			models.OrderPaymentImmediate)
		appErr := errors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.ErrProductNotAvailable.Code, appErr.Code)
	})

	t.Run("支付方式无效", func(t *testing.T) {
		_, err := svc.AddProducts(ctx, session.ID, []OrderItemRequest{{ProductID: 1, Quantity: 1}}, "weekly")
		appErr := errors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.ErrInvalidParams.Code, appErr.Code)
	})

	t.Run("明细不能为空", func(t *testing.T) {
		_, err := svc.AddProducts(ctx, session.ID, nil, models.OrderPaymentImmediate)
		appErr := errors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.ErrInvalidParams.Code, appErr.Code)
	})
}

func TestPaySessionOrder(t *testing.T) {
	svc, db := setupSessionTest(t)
	ctx := context.Background()
	b := confirmedBooking(t, db, "BK20260905001", 300000, false)
	session, err := svc.CheckIn(ctx, b.ID, 9, nil)
	require.NoError(t, err)

	order, err := svc.AddProducts(ctx, session.ID, []OrderItemRequest{{ProductID: 2, Quantity: 2}},
		models.OrderPaymentImmediate)
	require.NoError(t, err)

	paid, err := svc.PaySessionOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)
	assert.NotNil(t, paid.PaidAt)

	_, err = svc.PaySessionOrder(ctx, order.ID)
	assert.ErrorIs(t, err, errors.ErrSessionOrderPaid)

	_, err = svc.PaySessionOrder(ctx, 9999)
	assert.ErrorIs(t, err, errors.ErrSessionOrderNotFound)
}

func TestRemoveOrderItem(t *testing.T) {
	svc, db := setupSessionTest(t)
	ctx := context.Background()
	b := confirmedBooking(t, db, "BK20260905001", 300000, false)
	session, err := svc.CheckIn(ctx, b.ID, 9, nil)
	require.NoError(t, err)

	order, err := svc.AddProducts(ctx, session.ID, []OrderItemRequest{
		{ProductID: 1, Quantity: 3},
		{ProductID: 2, Quantity: 2},
	}, models.OrderPaymentConsolidated)
	require.NoError(t, err)

	t.Run("删除后金额同步", func(t *testing.T) {
		require.NoError(t, svc.RemoveOrderItem(ctx, order.ID, order.Items[0].ID))

		var updated models.SessionOrder
		require.NoError(t, db.First(&updated, order.ID).Error)
		assert.Equal(t, float64(50000), updated.TotalAmount)
	})

	t.Run("最后一条明细删除时整单移除", func(t *testing.T) {
		require.NoError(t, svc.RemoveOrderItem(ctx, order.ID, order.Items[1].ID))

		var count int64
		require.NoError(t, db.Model(&models.SessionOrder{}).Where("id = ?", order.ID).Count(&count).Error)
		assert.Equal(t, int64(0), count)
		require.NoError(t, db.Model(&models.SessionOrderItem{}).
			Where("session_order_id = ?", order.ID).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})

	t.Run("订单已不存在", func(t *testing.T) {
		err := svc.RemoveOrderItem(ctx, order.ID, 9999)
		assert.ErrorIs(t, err, errors.ErrSessionOrderNotFound)
	})

	t.Run("已支付订单不可改", func(t *testing.T) {
		paid, err := svc.AddProducts(ctx, session.ID, []OrderItemRequest{{ProductID: 1, Quantity: 1}},
			models.OrderPaymentImmediate)
		require.NoError(t, err)
		_, err = svc.PaySessionOrder(ctx, paid.ID)
		require.NoError(t, err)

		err = svc.RemoveOrderItem(ctx, paid.ID, paid.Items[0].ID)
		assert.ErrorIs(t, err, errors.ErrSessionOrderPaid)
	})

	t.Run("明细不属于该订单", func(t *testing.T) {
		other, err := svc.AddProducts(ctx, session.ID, []OrderItemRequest{{ProductID: 1, Quantity: 1}},
			models.OrderPaymentConsolidated)
		require.NoError(t, err)
		extra, err := svc.AddProducts(ctx, session.ID, []OrderItemRequest{{ProductID: 2, Quantity: 1}},
			models.OrderPaymentConsolidated)
		require.NoError(t, err)

		err = svc.RemoveOrderItem(ctx, other.ID, extra.Items[0].ID)
		assert.ErrorIs(t, err, errors.ErrOrderItemNotFound)
	})
}

// 场地费未预付：300000 + 100000 合并支付 − 50000 已即时结清 = 350000
func TestCheckOut_FieldUnpaid(t *testing.T) {
	svc, db := setupSessionTest(t)
	ctx := context.Background()
	b := confirmedBooking(t, db, "BK20260905001", 300000, false)
	session, err := svc.CheckIn(ctx, b.ID, 9, nil)
	require.NoError(t, err)

	consolidated, err := svc.AddProducts(ctx, session.ID, []OrderItemRequest{{ProductID: 2, Quantity: 4}},
		models.OrderPaymentConsolidated)
	require.NoError(t, err)
	require.Equal(t, float64(100000), consolidated.TotalAmount)

	immediate, err := svc.AddProducts(ctx, session.ID, []OrderItemRequest{{ProductID: 2, Quantity: 2}},
		models.OrderPaymentImmediate)
	require.NoError(t, err)
	require.Equal(t, float64(50000), immediate.TotalAmount)
	_, err = svc.PaySessionOrder(ctx, immediate.ID)
	require.NoError(t, err)

	bill, err := svc.GetBillDetails(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(300000), bill.FieldOwed)
	assert.Equal(t, float64(150000), bill.ProductsTotal)
	assert.Equal(t, float64(50000), bill.ImmediatePaidTotal)
	assert.Equal(t, float64(350000), bill.FinalAmount)

	closed, finalBill, err := svc.CheckOut(ctx, session.ID, 9, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(350000), finalBill.FinalAmount)
	assert.Equal(t, models.SessionStatusCompleted, closed.Status)
	assert.NotNil(t, closed.CheckOutTime)
	assert.Equal(t, float64(350000), closed.FinalAmount)
	assert.Equal(t, float64(0), closed.OvertimeFee)

	// 预订同步完结
	var updated models.Booking
	require.NoError(t, db.First(&updated, b.ID).Error)
	assert.Equal(t, models.BookingStatusCompleted, updated.Status)

	t.Run("重复结账被拒绝", func(t *testing.T) {
		_, _, err := svc.CheckOut(ctx, session.ID, 9, nil)
		assert.ErrorIs(t, err, errors.ErrSessionClosed)
	})

	t.Run("已关场次不可下单", func(t *testing.T) {
		_, err := svc.AddProducts(ctx, session.ID, []OrderItemRequest{{ProductID: 1, Quantity: 1}},
			models.OrderPaymentImmediate)
		assert.ErrorIs(t, err, errors.ErrSessionClosed)
	})
}

// 场地费已预付：0 + 100000 合并支付 − 50000 已即时结清 = 50000
func TestCheckOut_FieldPrepaid(t *testing.T) {
	svc, db := setupSessionTest(t)
	ctx := context.Background()
	b := confirmedBooking(t, db, "BK20260905001", 300000, true)
	session, err := svc.CheckIn(ctx, b.ID, 9, nil)
	require.NoError(t, err)

	_, err = svc.AddProducts(ctx, session.ID, []OrderItemRequest{{ProductID: 2, Quantity: 4}},
		models.OrderPaymentConsolidated)
	require.NoError(t, err)
	immediate, err := svc.AddProducts(ctx, session.ID, []OrderItemRequest{{ProductID: 2, Quantity: 2}},
		models.OrderPaymentImmediate)
	require.NoError(t, err)
	_, err = svc.PaySessionOrder(ctx, immediate.ID)
	require.NoError(t, err)

	_, bill, err := svc.CheckOut(ctx, session.ID, 9, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(0), bill.FieldOwed)
	assert.Equal(t, float64(50000), bill.FinalAmount)
}

// 没有任何订单时应收即为场地费
func TestCheckOut_NoOrders(t *testing.T) {
	svc, db := setupSessionTest(t)
	ctx := context.Background()

	t.Run("未预付", func(t *testing.T) {
		b := confirmedBooking(t, db, "BK20260905001", 300000, false)
		session, err := svc.CheckIn(ctx, b.ID, 9, nil)
		require.NoError(t, err)

		_, bill, err := svc.CheckOut(ctx, session.ID, 9, nil)
		require.NoError(t, err)
		assert.Equal(t, float64(300000), bill.FinalAmount)
	})

	t.Run("已预付", func(t *testing.T) {
		b := confirmedBooking(t, db, "BK20260905002", 300000, true)
		session, err := svc.CheckIn(ctx, b.ID, 9, nil)
		require.NoError(t, err)

		_, bill, err := svc.CheckOut(ctx, session.ID, 9, nil)
		require.NoError(t, err)
		assert.Equal(t, float64(0), bill.FinalAmount)
	})
}

func TestGetAndListSessions(t *testing.T) {
	svc, db := setupSessionTest(t)
	ctx := context.Background()
	b := confirmedBooking(t, db, "BK20260905001", 300000, false)
	session, err := svc.CheckIn(ctx, b.ID, 9, nil)
	require.NoError(t, err)
	_, err = svc.AddProducts(ctx, session.ID, []OrderItemRequest{{ProductID: 1, Quantity: 1}},
		models.OrderPaymentConsolidated)
	require.NoError(t, err)

	got, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Booking)
	assert.Equal(t, "BK20260905001", got.Booking.BookingCode)
	require.Len(t, got.Orders, 1)
	assert.Len(t, got.Orders[0].Items, 1)

	_, err = svc.GetSession(ctx, 9999)
	assert.ErrorIs(t, err, errors.ErrSessionNotFound)

	list, total, err := svc.ListSessions(ctx, 1, 10, map[string]interface{}{
		"status": models.SessionStatusActive,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)
}
