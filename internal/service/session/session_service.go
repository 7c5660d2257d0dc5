// Package session 提供到场消费场次与结账服务
package session

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sporthub/field-booking-backend/internal/common/errors"
	"github.com/sporthub/field-booking-backend/internal/common/logger"
	"github.com/sporthub/field-booking-backend/internal/common/metrics"
	"github.com/sporthub/field-booking-backend/internal/common/utils"
	"github.com/sporthub/field-booking-backend/internal/models"
	"github.com/sporthub/field-booking-backend/internal/repository"
	"github.com/sporthub/field-booking-backend/internal/service/booking"
)

// Service 场次账单服务
type Service struct {
	db         *gorm.DB
	bookingSvc *booking.Service
	codeSvc    *booking.CodeService
	now        func() time.Time
}

// NewService 创建场次账单服务
func NewService(db *gorm.DB, bookingSvc *booking.Service, codeSvc *booking.CodeService) *Service {
	return &Service{
		db:         db,
		bookingSvc: bookingSvc,
		codeSvc:    codeSvc,
		now:        time.Now,
	}
}

// CheckIn 到场开场次
// 仅已确认的预订可入场，同一预订同时只允许一个进行中的场次
// 开场次与预订转进行中在同一事务内完成
func (s *Service) CheckIn(ctx context.Context, bookingID, staffID int64, notes *string) (*models.BookingSession, error) {
	var session *models.BookingSession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessionRepo := repository.NewSessionRepository(tx)
		bookingRepo := repository.NewBookingRepository(tx)

		b, err := bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrBookingNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if b.Status != models.BookingStatusConfirmed {
			return errors.ErrInvalidTransition
		}

		if _, err := sessionRepo.GetActiveByBookingID(ctx, bookingID); err == nil {
			return errors.ErrSessionActiveExists
		} else if err != gorm.ErrRecordNotFound {
			return errors.ErrDatabaseError.WithError(err)
		}

		session = &models.BookingSession{
			BookingID:   bookingID,
			Status:      models.SessionStatusActive,
			CheckInTime: s.now(),
			StaffID:     staffID,
			Notes:       notes,
		}
		if err := sessionRepo.Create(ctx, session); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		_, err = s.bookingSvc.WithTx(tx).MarkPlaying(ctx, bookingID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.refreshActiveSessions(ctx)
	logger.Info("场次已开启",
		logger.Module("session"),
		logger.SessionID(session.ID),
		logger.BookingID(bookingID),
		logger.StaffID(staffID),
	)
	return session, nil
}

// OrderItemRequest 下单明细
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// AddProducts 场次内下单
// 单价在下单时刻快照，订单初始为待支付
func (s *Service) AddProducts(ctx context.Context, sessionID int64, items []OrderItemRequest, paymentType models.OrderPaymentType) (*models.SessionOrder, error) {
	if len(items) == 0 {
		return nil, errors.ErrInvalidParams.WithMessage("订单明细不能为空")
	}
	if paymentType != models.OrderPaymentImmediate && paymentType != models.OrderPaymentConsolidated {
		return nil, errors.ErrInvalidParams.WithMessage("支付方式无效")
	}

	session, err := s.getOpenSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	productIDs := make([]int64, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, errors.ErrInvalidParams.WithMessage("数量必须大于 0")
		}
		productIDs = append(productIDs, item.ProductID)
	}

	productRepo := repository.NewProductRepository(s.db)
	products, err := productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	productByID := make(map[int64]*models.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	orderItems := make([]models.SessionOrderItem, 0, len(items))
	var total float64
	for _, item := range items {
		p, ok := productByID[item.ProductID]
		if !ok {
			return nil, errors.ErrProductNotFound
		}
		if !p.IsAvailable {
			return nil, errors.ErrProductNotAvailable.WithMessage(p.Name + " 已下架")
		}
		subtotal := p.Price * float64(item.Quantity)
		orderItems = append(orderItems, models.SessionOrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    item.Quantity,
			Subtotal:    subtotal,
		})
		total += subtotal
	}

	var order *models.SessionOrder
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := repository.NewSessionOrderRepository(tx)

		now := s.now()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		seq, err := orderRepo.CountByDate(ctx, dayStart, dayStart.AddDate(0, 0, 1))
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		code, err := s.codeSvc.Generate(ctx, booking.CodePrefixOrder, now, seq, orderRepo.ExistsByCode)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		order = &models.SessionOrder{
			OrderCode:     code,
			SessionID:     session.ID,
			PaymentType:   paymentType,
			PaymentStatus: models.PaymentStatusPending,
			TotalAmount:   total,
			Items:         orderItems,
		}
		if err := orderRepo.Create(ctx, order); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("场次订单已创建",
		logger.Module("session"),
		logger.SessionID(session.ID),
		logger.OrderCode(order.OrderCode),
	)
	return order, nil
}

// PaySessionOrder 登记单笔订单支付
// 即时支付路径在购买时结清
func (s *Service) PaySessionOrder(ctx context.Context, orderID int64) (*models.SessionOrder, error) {
	orderRepo := repository.NewSessionOrderRepository(s.db)
	order, err := orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrSessionOrderNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return nil, errors.ErrSessionOrderPaid
	}

	now := s.now()
	order.PaymentStatus = models.PaymentStatusPaid
	order.PaidAt = &now
	if err := orderRepo.Update(ctx, order); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return order, nil
}

// RemoveOrderItem 删除订单明细
// 最后一条明细删除时整单移除，不保留空订单
func (s *Service) RemoveOrderItem(ctx context.Context, orderID, itemID int64) error {
	orderRepo := repository.NewSessionOrderRepository(s.db)
	order, err := orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrSessionOrderNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return errors.ErrSessionOrderPaid
	}
	if _, err := s.getOpenSession(ctx, order.SessionID); err != nil {
		return err
	}

	item, err := orderRepo.GetItem(ctx, itemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrOrderItemNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if item.SessionOrderID != orderID {
		return errors.ErrOrderItemNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txOrderRepo := repository.NewSessionOrderRepository(tx)

		if err := txOrderRepo.DeleteItem(ctx, itemID); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		remaining, err := txOrderRepo.CountItems(ctx, orderID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if remaining == 0 {
			return txOrderRepo.Delete(ctx, orderID)
		}

		order.TotalAmount -= item.Subtotal
		if err := txOrderRepo.Update(ctx, order); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
}

// BillDetails 结账预览
type BillDetails struct {
	FieldPrice         float64 `json:"field_price"`          // 场地费
	FieldOwed          float64 `json:"field_owed"`           // 尚欠场地费，已预付为 0
	ProductsTotal      float64 `json:"products_total"`       // 商品合计
	ImmediatePaidTotal float64 `json:"immediate_paid_total"` // 已即时结清部分
	FinalAmount        float64 `json:"final_amount"`         // 应收金额
	OvertimeFee        float64 `json:"overtime_fee"`         // 超时费，当前不计
}

// CheckOut 结账关闭场次
// 应收 = 尚欠场地费 + 合并支付订单合计 − 已即时结清合计
// 关场次与预订完结在同一事务内完成
func (s *Service) CheckOut(ctx context.Context, sessionID, staffID int64, notes *string) (*models.BookingSession, *BillDetails, error) {
	var (
		session *models.BookingSession
		bill    *BillDetails
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessionRepo := repository.NewSessionRepository(tx)

		var err error
		session, err = sessionRepo.GetByIDWithOrders(ctx, sessionID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrSessionNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if session.Status != models.SessionStatusActive || session.CheckOutTime != nil {
			return errors.ErrSessionClosed
		}
		if session.Booking == nil {
			return errors.ErrBookingNotFound
		}

		bill = computeBill(session.Booking, session.Orders)

		now := s.now()
		session.Status = models.SessionStatusCompleted
		session.CheckOutTime = &now
		session.FinalAmount = bill.FinalAmount
		if notes != nil {
			session.Notes = notes
		}
		if err := sessionRepo.Update(ctx, session); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		_, err = s.bookingSvc.WithTx(tx).Complete(ctx, session.BookingID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	metrics.GetMetrics().RecordSettlement(bill.FinalAmount)
	s.refreshActiveSessions(ctx)
	logger.Info("场次已结账",
		logger.Module("session"),
		logger.SessionID(session.ID),
		logger.BookingID(session.BookingID),
		logger.StaffID(staffID),
	)
	return session, bill, nil
}

// GetBillDetails 结账前预览，不改变任何状态
func (s *Service) GetBillDetails(ctx context.Context, sessionID int64) (*BillDetails, error) {
	sessionRepo := repository.NewSessionRepository(s.db)
	session, err := sessionRepo.GetByIDWithOrders(ctx, sessionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrSessionNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if session.Booking == nil {
		return nil, errors.ErrBookingNotFound
	}
	return computeBill(session.Booking, session.Orders), nil
}

// GetSession 获取场次详情
func (s *Service) GetSession(ctx context.Context, sessionID int64) (*models.BookingSession, error) {
	sessionRepo := repository.NewSessionRepository(s.db)
	session, err := sessionRepo.GetByIDWithOrders(ctx, sessionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrSessionNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return session, nil
}

// ListSessions 获取场次列表
func (s *Service) ListSessions(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]*models.BookingSession, int64, error) {
	p := &utils.Pagination{Page: page, PageSize: pageSize}
	p.Normalize()

	sessionRepo := repository.NewSessionRepository(s.db)
	sessions, total, err := sessionRepo.List(ctx, p.GetOffset(), p.GetLimit(), filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return sessions, total, nil
}

// getOpenSession 加载场次并校验仍开放
func (s *Service) getOpenSession(ctx context.Context, sessionID int64) (*models.BookingSession, error) {
	sessionRepo := repository.NewSessionRepository(s.db)
	session, err := sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrSessionNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if session.Status != models.SessionStatusActive || session.CheckOutTime != nil {
		return nil, errors.ErrSessionClosed
	}
	return session, nil
}

// computeBill 计算账单四要素
func computeBill(b *models.Booking, orders []models.SessionOrder) *BillDetails {
	bill := &BillDetails{FieldPrice: b.TotalPrice}
	if b.PaymentStatus != models.PaymentStatusPaid {
		bill.FieldOwed = b.TotalPrice
	}
	var consolidated float64
	for _, order := range orders {
		bill.ProductsTotal += order.TotalAmount
		if order.PaymentType == models.OrderPaymentConsolidated {
			consolidated += order.TotalAmount
		}
		if order.PaymentType == models.OrderPaymentImmediate && order.PaymentStatus == models.PaymentStatusPaid {
			bill.ImmediatePaidTotal += order.TotalAmount
		}
	}
	bill.FinalAmount = bill.FieldOwed + consolidated - bill.ImmediatePaidTotal
	return bill
}

// refreshActiveSessions 刷新进行中场次指标，失败仅记录
func (s *Service) refreshActiveSessions(ctx context.Context) {
	sessionRepo := repository.NewSessionRepository(s.db)
	count, err := sessionRepo.CountActive(ctx)
	if err != nil {
		logger.Warn("统计进行中场次失败", logger.Module("session"))
		return
	}
	metrics.GetMetrics().SetActiveSessions(float64(count))
}
