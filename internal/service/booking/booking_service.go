// Package booking 提供预订生命周期服务
package booking

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sporthub/field-booking-backend/internal/common/errors"
	"github.com/sporthub/field-booking-backend/internal/common/logger"
	"github.com/sporthub/field-booking-backend/internal/common/metrics"
	"github.com/sporthub/field-booking-backend/internal/common/qrcode"
	"github.com/sporthub/field-booking-backend/internal/common/utils"
	"github.com/sporthub/field-booking-backend/internal/models"
	"github.com/sporthub/field-booking-backend/internal/repository"
	"github.com/sporthub/field-booking-backend/internal/service/pricing"
	"github.com/sporthub/field-booking-backend/internal/service/schedule"
)

// Service 预订服务
type Service struct {
	db          *gorm.DB
	pricingSvc  *pricing.Service
	scheduleSvc *schedule.Service
	codeSvc     *CodeService
	qrGen       *qrcode.Generator
	now         func() time.Time
}

// NewService 创建预订服务
func NewService(db *gorm.DB, pricingSvc *pricing.Service, scheduleSvc *schedule.Service, codeSvc *CodeService) *Service {
	return &Service{
		db:          db,
		pricingSvc:  pricingSvc,
		scheduleSvc: scheduleSvc,
		codeSvc:     codeSvc,
		qrGen:       qrcode.NewGenerator(),
		now:         time.Now,
	}
}

// WithTx 返回绑定到事务的服务实例
func (s *Service) WithTx(tx *gorm.DB) *Service {
	clone := *s
	clone.db = tx
	clone.scheduleSvc = s.scheduleSvc.WithTx(tx)
	return &clone
}

// CreateBookingRequest 创建预订请求
type CreateBookingRequest struct {
	FieldID       int64   `json:"field_id" binding:"required"`
	BookingDate   string  `json:"booking_date" binding:"required"` // YYYY-MM-DD
	StartTime     string  `json:"start_time" binding:"required"`   // HH:MM
	EndTime       string  `json:"end_time" binding:"required"`     // HH:MM
	DurationHours float64 `json:"duration_hours,omitempty"`
	UserID        *int64  `json:"user_id,omitempty"`
	GuestName     *string `json:"guest_name,omitempty"`
	GuestPhone    *string `json:"guest_phone,omitempty"`
	GuestEmail    *string `json:"guest_email,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// BookingInfo 预订信息
type BookingInfo struct {
	ID            int64                `json:"id"`
	BookingCode   string               `json:"booking_code"`
	QRCode        string               `json:"qr_code,omitempty"`
	FieldID       int64                `json:"field_id"`
	FieldName     string               `json:"field_name,omitempty"`
	BookingDate   string               `json:"booking_date"`
	StartTime     string               `json:"start_time"`
	EndTime       string               `json:"end_time"`
	DurationHours float64              `json:"duration_hours"`
	Status        models.BookingStatus `json:"status"`
	TotalPrice    float64              `json:"total_price"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	UserID        *int64               `json:"user_id,omitempty"`
	GuestName     *string              `json:"guest_name,omitempty"`
	GuestPhone    *string              `json:"guest_phone,omitempty"`
	Notes         *string              `json:"notes,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// CreateBooking 创建预订
// 校验时间区间与身份渠道，解析价格，生成预订码，落库 Pending 并登记台账，单事务完成
func (s *Service) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*BookingInfo, error) {
	date, startTime, endTime, hours, err := s.validateTimeRange(req.BookingDate, req.StartTime, req.EndTime, req.DurationHours)
	if err != nil {
		return nil, err
	}

	if err := validateIdentification(req.UserID, req.GuestName, req.GuestPhone); err != nil {
		return nil, err
	}

	field, err := s.loadActiveField(ctx, req.FieldID)
	if err != nil {
		return nil, err
	}
	if startTime < field.OpenTime || endTime > field.CloseTime {
		return nil, errors.ErrInvalidTimeRange.WithMessage(
			fmt.Sprintf("营业时间为 %s-%s", field.OpenTime, field.CloseTime))
	}

	price, err := s.pricingSvc.ResolvePrice(ctx, field.FieldTypeID, date, startTime, endTime)
	if err != nil {
		return nil, err
	}

	var booking *models.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txSchedule := s.scheduleSvc.WithTx(tx)
		bookingRepo := repository.NewBookingRepository(tx)

		free, err := txSchedule.IsSlotFree(ctx, req.FieldID, date, startTime, endTime, nil)
		if err != nil {
			return err
		}
		if !free {
			return errors.ErrSlotConflict
		}

		seq, err := bookingRepo.CountByDate(ctx, date)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		code, err := s.codeSvc.Generate(ctx, CodePrefixBooking, date, seq, bookingRepo.ExistsByCode)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		booking = &models.Booking{
			BookingCode:   code,
			UserID:        req.UserID,
			GuestName:     req.GuestName,
			GuestPhone:    req.GuestPhone,
			GuestEmail:    req.GuestEmail,
			FieldID:       req.FieldID,
			BookingDate:   date,
			StartTime:     startTime,
			EndTime:       endTime,
			DurationHours: hours,
			Status:        models.BookingStatusPending,
			TotalPrice:    price,
			PaymentStatus: models.PaymentStatusPending,
			Notes:         req.Notes,
		}
		if err := bookingRepo.Create(ctx, booking); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		return txSchedule.Reserve(ctx, req.FieldID, date, startTime, endTime, booking.ID)
	})
	if err != nil {
		if appErr := errors.GetAppError(err); appErr != nil && appErr.Code == errors.ErrSlotConflict.Code {
			metrics.RecordSlotConflictGlobal()
		}
		return nil, err
	}

	metrics.RecordBookingGlobal("created")
	logger.Info("预订创建成功",
		logger.Module("booking"),
		logger.BookingID(booking.ID),
		logger.BookingCode(booking.BookingCode),
		logger.FieldID(booking.FieldID),
	)

	booking.Field = field
	return s.convertBookingInfo(booking, true), nil
}

// Confirm 确认预订
// 同事务重新登记台账时段，台账缺失时据此补齐
func (s *Service) Confirm(ctx context.Context, bookingID int64, staffID int64) (*BookingInfo, error) {
	var booking *models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookingRepo := repository.NewBookingRepository(tx)

		var err error
		booking, err = bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrBookingNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}

		if !booking.Status.CanTransitionTo(models.BookingStatusConfirmed) {
			return errors.ErrInvalidTransition
		}

		now := s.now()
		booking.Status = models.BookingStatusConfirmed
		booking.ConfirmedAt = &now
		booking.ConfirmedBy = &staffID
		if err := bookingRepo.Update(ctx, booking); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		// Reserve 对同一预订幂等
		return s.scheduleSvc.WithTx(tx).Reserve(ctx, booking.FieldID, booking.BookingDate,
			booking.StartTime, booking.EndTime, booking.ID)
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordBookingGlobal("confirmed")
	return s.convertBookingInfo(booking, false), nil
}

// Cancel 取消预订
// 取消原因记录在预订上并追加到备注，同事务释放台账时段
func (s *Service) Cancel(ctx context.Context, bookingID int64, staffID *int64, reason string) (*BookingInfo, error) {
	var booking *models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookingRepo := repository.NewBookingRepository(tx)

		var err error
		booking, err = bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrBookingNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}

		if !booking.Status.CanTransitionTo(models.BookingStatusCancelled) {
			return errors.ErrInvalidTransition
		}

		now := s.now()
		booking.Status = models.BookingStatusCancelled
		booking.CancelledAt = &now
		booking.CancelledBy = staffID
		if reason != "" {
			booking.CancelReason = &reason
			notes := "取消原因: " + reason
			if booking.Notes != nil && *booking.Notes != "" {
				notes = *booking.Notes + "\n" + notes
			}
			booking.Notes = &notes
		}
		if err := bookingRepo.Update(ctx, booking); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		return s.scheduleSvc.WithTx(tx).Release(ctx, bookingID)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBookingGlobal("cancelled")
	logger.Info("预订已取消",
		logger.Module("booking"),
		logger.BookingID(booking.ID),
		logger.BookingCode(booking.BookingCode),
	)
	return s.convertBookingInfo(booking, false), nil
}

// Complete 完成预订
// 仅允许 Playing → Completed，由场次结账路径触发
func (s *Service) Complete(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.transition(ctx, bookingID, models.BookingStatusCompleted, nil)
	if err != nil {
		return nil, err
	}
	metrics.RecordBookingGlobal("completed")
	return booking, nil
}

// MarkPlaying 将预订置为进行中
// 由场次入场路径触发，要求当前状态为 Confirmed
func (s *Service) MarkPlaying(ctx context.Context, bookingID int64) (*models.Booking, error) {
	return s.transition(ctx, bookingID, models.BookingStatusPlaying, nil)
}

// MarkPaid 登记场地费支付
func (s *Service) MarkPaid(ctx context.Context, bookingID int64, method, ref string) (*BookingInfo, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingStatusCancelled {
		return nil, errors.ErrInvalidTransition
	}

	bookingRepo := repository.NewBookingRepository(s.db)
	fields := map[string]interface{}{
		"payment_status": models.PaymentStatusPaid,
		"payment_method": method,
	}
	if ref != "" {
		fields["payment_ref"] = ref
	}
	if err := bookingRepo.UpdateFields(ctx, bookingID, fields); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	booking.PaymentStatus = models.PaymentStatusPaid
	booking.PaymentMethod = &method
	return s.convertBookingInfo(booking, false), nil
}

// EditBookingRequest 修改预订请求
type EditBookingRequest struct {
	FieldID       *int64   `json:"field_id,omitempty"`
	BookingDate   *string  `json:"booking_date,omitempty"`
	StartTime     *string  `json:"start_time,omitempty"`
	EndTime       *string  `json:"end_time,omitempty"`
	DurationHours *float64 `json:"duration_hours,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
}

// EditBooking 修改预订的场地或时段
// 仅 Pending/Confirmed 可修改；排除自身后重新校验冲突，按目标场地重算价格，原子迁移台账登记
func (s *Service) EditBooking(ctx context.Context, bookingID int64, req *EditBookingRequest) (*BookingInfo, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending && booking.Status != models.BookingStatusConfirmed {
		return nil, errors.ErrInvalidTransition
	}

	fieldID := booking.FieldID
	if req.FieldID != nil {
		fieldID = *req.FieldID
	}
	dateStr := booking.BookingDate.Format("2006-01-02")
	if req.BookingDate != nil {
		dateStr = *req.BookingDate
	}
	startTime := booking.StartTime
	if req.StartTime != nil {
		startTime = *req.StartTime
	}
	endTime := booking.EndTime
	if req.EndTime != nil {
		endTime = *req.EndTime
	}
	var reqHours float64
	if req.DurationHours != nil {
		reqHours = *req.DurationHours
	}

	date, startTime, endTime, hours, err := s.validateTimeRange(dateStr, startTime, endTime, reqHours)
	if err != nil {
		return nil, err
	}

	field, err := s.loadActiveField(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	if startTime < field.OpenTime || endTime > field.CloseTime {
		return nil, errors.ErrInvalidTimeRange.WithMessage(
			fmt.Sprintf("营业时间为 %s-%s", field.OpenTime, field.CloseTime))
	}

	price, err := s.pricingSvc.ResolvePrice(ctx, field.FieldTypeID, date, startTime, endTime)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txSchedule := s.scheduleSvc.WithTx(tx)
		bookingRepo := repository.NewBookingRepository(tx)

		free, err := txSchedule.IsSlotFree(ctx, fieldID, date, startTime, endTime, &booking.ID)
		if err != nil {
			return err
		}
		if !free {
			return errors.ErrSlotConflict
		}

		booking.FieldID = fieldID
		booking.BookingDate = date
		booking.StartTime = startTime
		booking.EndTime = endTime
		booking.DurationHours = hours
		booking.TotalPrice = price
		if req.Notes != nil {
			booking.Notes = req.Notes
		}
		if err := bookingRepo.Update(ctx, booking); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		// 迁移台账登记
		if err := txSchedule.Release(ctx, booking.ID); err != nil {
			return err
		}
		return txSchedule.Reserve(ctx, fieldID, date, startTime, endTime, booking.ID)
	})
	if err != nil {
		if appErr := errors.GetAppError(err); appErr != nil && appErr.Code == errors.ErrSlotConflict.Code {
			metrics.RecordSlotConflictGlobal()
		}
		return nil, err
	}

	return s.convertBookingInfo(booking, false), nil
}

// GetBooking 获取预订详情
func (s *Service) GetBooking(ctx context.Context, bookingID int64) (*BookingInfo, error) {
	bookingRepo := repository.NewBookingRepository(s.db)
	booking, err := bookingRepo.GetByIDWithDetails(ctx, bookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.convertBookingInfo(booking, true), nil
}

// GetBookingByCode 根据预订码获取预订
func (s *Service) GetBookingByCode(ctx context.Context, code string) (*BookingInfo, error) {
	bookingRepo := repository.NewBookingRepository(s.db)
	booking, err := bookingRepo.GetByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.convertBookingInfo(booking, true), nil
}

// ListBookings 获取预订列表
func (s *Service) ListBookings(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]*BookingInfo, int64, error) {
	p := &utils.Pagination{Page: page, PageSize: pageSize}
	p.Normalize()

	bookingRepo := repository.NewBookingRepository(s.db)
	bookings, total, err := bookingRepo.List(ctx, p.GetOffset(), p.GetLimit(), filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}

	result := make([]*BookingInfo, 0, len(bookings))
	for _, b := range bookings {
		result = append(result, s.convertBookingInfo(b, false))
	}
	return result, total, nil
}

// transition 执行一次状态转换并应用附加变更
func (s *Service) transition(ctx context.Context, bookingID int64, target models.BookingStatus, mutate func(*models.Booking)) (*models.Booking, error) {
	bookingRepo := repository.NewBookingRepository(s.db)

	booking, err := bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if !booking.Status.CanTransitionTo(target) {
		return nil, errors.ErrInvalidTransition
	}

	booking.Status = target
	if mutate != nil {
		mutate(booking)
	}
	if err := bookingRepo.Update(ctx, booking); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return booking, nil
}

func (s *Service) getBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	bookingRepo := repository.NewBookingRepository(s.db)
	booking, err := bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return booking, nil
}

// loadActiveField 加载场地并校验可预订状态
func (s *Service) loadActiveField(ctx context.Context, fieldID int64) (*models.Field, error) {
	fieldRepo := repository.NewFieldRepository(s.db)
	field, err := fieldRepo.GetByIDWithType(ctx, fieldID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrFieldNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	switch field.Status {
	case models.FieldStatusActive:
		return field, nil
	case models.FieldStatusMaintenance:
		return nil, errors.ErrFieldMaintenance
	default:
		return nil, errors.ErrFieldNotAvailable
	}
}

// validateTimeRange 校验日期和半开时段，返回解析结果与时长
func (s *Service) validateTimeRange(dateStr, startTime, endTime string, reqHours float64) (time.Time, string, string, float64, error) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, "", "", 0, errors.ErrInvalidParams.WithMessage("日期格式应为 YYYY-MM-DD")
	}
	if !utils.ValidateTimeOfDay(startTime) || !utils.ValidateTimeOfDay(endTime) {
		return time.Time{}, "", "", 0, errors.ErrInvalidParams.WithMessage("时刻格式应为 HH:MM")
	}

	hours, err := utils.DurationHours(startTime, endTime)
	if err != nil {
		return time.Time{}, "", "", 0, errors.ErrInvalidTimeRange
	}
	if reqHours > 0 && reqHours != hours {
		return time.Time{}, "", "", 0, errors.ErrDurationMismatch
	}
	return date, startTime, endTime, hours, nil
}

// validateIdentification 校验身份渠道：注册用户与散客联系方式二选一
func validateIdentification(userID *int64, guestName, guestPhone *string) error {
	hasUser := userID != nil && *userID > 0
	hasGuest := guestName != nil && *guestName != "" && guestPhone != nil && *guestPhone != ""
	if hasUser == hasGuest {
		return errors.ErrGuestInfoRequired
	}
	if hasGuest && !utils.ValidatePhone(*guestPhone) {
		return errors.ErrInvalidParams.WithMessage("手机号格式无效")
	}
	return nil
}

// convertBookingInfo 转换为对外预订信息
func (s *Service) convertBookingInfo(b *models.Booking, withQR bool) *BookingInfo {
	info := &BookingInfo{
		ID:            b.ID,
		BookingCode:   b.BookingCode,
		FieldID:       b.FieldID,
		BookingDate:   b.BookingDate.Format("2006-01-02"),
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		DurationHours: b.DurationHours,
		Status:        b.Status,
		TotalPrice:    b.TotalPrice,
		PaymentStatus: b.PaymentStatus,
		UserID:        b.UserID,
		GuestName:     b.GuestName,
		GuestPhone:    b.GuestPhone,
		Notes:         b.Notes,
		CreatedAt:     b.CreatedAt,
	}
	if b.Field != nil {
		info.FieldName = b.Field.Name
	}
	if withQR {
		// 预订码同时渲染为前台扫码用的二维码
		if dataURL, err := s.qrGen.GenerateDataURL(b.BookingCode); err == nil {
			info.QRCode = dataURL
		}
	}
	return info
}
