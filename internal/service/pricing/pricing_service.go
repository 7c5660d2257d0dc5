// Package pricing 提供场地定价规则解析服务
package pricing

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sporthub/field-booking-backend/internal/common/cache"
	"github.com/sporthub/field-booking-backend/internal/common/errors"
	"github.com/sporthub/field-booking-backend/internal/common/logger"
	"github.com/sporthub/field-booking-backend/internal/common/metrics"
	"github.com/sporthub/field-booking-backend/internal/common/utils"
	"github.com/sporthub/field-booking-backend/internal/models"
	"github.com/sporthub/field-booking-backend/internal/repository"
)

// Service 定价服务
type Service struct {
	db       *gorm.DB
	ruleRepo *repository.PricingRuleRepository
	typeRepo *repository.FieldTypeRepository
	cacheTTL time.Duration
	useCache bool
}

// NewService 创建定价服务
func NewService(db *gorm.DB, cacheTTL time.Duration, useCache bool) *Service {
	return &Service{
		db:       db,
		ruleRepo: repository.NewPricingRuleRepository(db),
		typeRepo: repository.NewFieldTypeRepository(db),
		cacheTTL: cacheTTL,
		useCache: useCache,
	}
}

// ResolvePrice 解析指定场地类型、日期和半开时段的价格
// 命中唯一生效规则时返回 rule.Price（高峰规则乘以倍率）
// 无规则命中时回退为 BasePrice × 时长
// 场地类型不存在时返回 0 和 ErrFieldTypeNotFound
func (s *Service) ResolvePrice(ctx context.Context, fieldTypeID int64, date time.Time, startTime, endTime string) (float64, error) {
	hours, err := utils.DurationHours(startTime, endTime)
	if err != nil {
		return 0, errors.ErrInvalidTimeRange.WithError(err)
	}

	fieldType, err := s.typeRepo.GetByID(ctx, fieldTypeID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, errors.ErrFieldTypeNotFound
		}
		return 0, errors.ErrDatabaseError.WithError(err)
	}

	dayOfWeek := utils.DayOfWeek(date)
	rules, err := s.loadRules(ctx, fieldTypeID, dayOfWeek)
	if err != nil {
		return 0, err
	}

	// 过滤生效窗口和时段重叠，生效窗口为半开区间 [EffectiveFrom, EffectiveTo)
	var matched []*models.PricingRule
	for _, rule := range rules {
		if rule.EffectiveFrom != nil && date.Before(*rule.EffectiveFrom) {
			continue
		}
		if rule.EffectiveTo != nil && !date.Before(*rule.EffectiveTo) {
			continue
		}
		if utils.RangesOverlap(rule.StartTime, rule.EndTime, startTime, endTime) {
			matched = append(matched, rule)
		}
	}

	if len(matched) == 0 {
		return fieldType.BasePrice * hours, nil
	}

	// 多条命中属于数据完整性破损，按规则 ID 取第一条并告警
	if len(matched) > 1 {
		logger.Warn("定价规则重叠，按规则ID取第一条",
			logger.Module("pricing"),
			logger.FieldID(fieldTypeID),
		)
	}

	rule := matched[0]
	price := rule.Price
	if rule.IsPeakHour {
		price *= rule.PeakMultiplier
	}
	return price, nil
}

// loadRules 读取 (场地类型, 星期) 的生效规则，带读穿缓存
func (s *Service) loadRules(ctx context.Context, fieldTypeID int64, dayOfWeek int) ([]*models.PricingRule, error) {
	key := cache.PricingRulesKey(fieldTypeID, dayOfWeek)

	if s.useCache {
		var cached []*models.PricingRule
		err := cache.Get(ctx, key, &cached)
		if err == nil {
			metrics.RecordCacheHitGlobal("pricing_rules")
			return cached, nil
		}
		if !cache.IsNil(err) {
			// 缓存故障不阻塞解析，直接读库
			logger.Warn("定价规则缓存读取失败", logger.Module("pricing"))
		}
		metrics.RecordCacheMissGlobal("pricing_rules")
	}

	rules, err := s.ruleRepo.ListActive(ctx, fieldTypeID, dayOfWeek)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if s.useCache {
		if err := cache.Set(ctx, key, rules, s.cacheTTL); err != nil {
			logger.Warn("定价规则缓存写入失败", logger.Module("pricing"))
		}
	}

	return rules, nil
}

// CreateRuleRequest 创建定价规则请求
type CreateRuleRequest struct {
	FieldTypeID    int64      `json:"field_type_id" binding:"required"`
	DayOfWeek      int        `json:"day_of_week" binding:"required,min=1,max=7"`
	StartTime      string     `json:"start_time" binding:"required"`
	EndTime        string     `json:"end_time" binding:"required"`
	Price          float64    `json:"price" binding:"required,gt=0"`
	IsPeakHour     bool       `json:"is_peak_hour"`
	PeakMultiplier float64    `json:"peak_multiplier"`
	EffectiveFrom  *time.Time `json:"effective_from,omitempty"`
	EffectiveTo    *time.Time `json:"effective_to,omitempty"`
}

// CreateRule 创建定价规则
// 写入前校验同类型同星期的生效规则时段不重叠
func (s *Service) CreateRule(ctx context.Context, req *CreateRuleRequest) (*models.PricingRule, error) {
	if err := s.validateRuleTimes(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	if _, err := s.typeRepo.GetByID(ctx, req.FieldTypeID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrFieldTypeNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	multiplier := req.PeakMultiplier
	if !req.IsPeakHour || multiplier <= 0 {
		multiplier = 1
	}

	rule := &models.PricingRule{
		FieldTypeID:    req.FieldTypeID,
		DayOfWeek:      req.DayOfWeek,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Price:          req.Price,
		IsPeakHour:     req.IsPeakHour,
		PeakMultiplier: multiplier,
		EffectiveFrom:  req.EffectiveFrom,
		EffectiveTo:    req.EffectiveTo,
		IsActive:       true,
	}

	conflicts, err := s.ruleRepo.ListConflicting(ctx, rule, nil)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if len(conflicts) > 0 {
		return nil, errors.ErrPricingRuleOverlap
	}

	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.bustCache(ctx, rule.FieldTypeID, rule.DayOfWeek)
	return rule, nil
}

// UpdateRuleRequest 更新定价规则请求
type UpdateRuleRequest struct {
	StartTime      *string    `json:"start_time,omitempty"`
	EndTime        *string    `json:"end_time,omitempty"`
	Price          *float64   `json:"price,omitempty"`
	IsPeakHour     *bool      `json:"is_peak_hour,omitempty"`
	PeakMultiplier *float64   `json:"peak_multiplier,omitempty"`
	EffectiveFrom  *time.Time `json:"effective_from,omitempty"`
	EffectiveTo    *time.Time `json:"effective_to,omitempty"`
	IsActive       *bool      `json:"is_active,omitempty"`
}

// UpdateRule 更新定价规则
func (s *Service) UpdateRule(ctx context.Context, ruleID int64, req *UpdateRuleRequest) (*models.PricingRule, error) {
	rule, err := s.ruleRepo.GetByID(ctx, ruleID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPricingRuleNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if req.StartTime != nil {
		rule.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		rule.EndTime = *req.EndTime
	}
	if err := s.validateRuleTimes(rule.StartTime, rule.EndTime); err != nil {
		return nil, err
	}
	if req.Price != nil {
		rule.Price = *req.Price
	}
	if req.IsPeakHour != nil {
		rule.IsPeakHour = *req.IsPeakHour
	}
	if req.PeakMultiplier != nil {
		rule.PeakMultiplier = *req.PeakMultiplier
	}
	if req.EffectiveFrom != nil {
		rule.EffectiveFrom = req.EffectiveFrom
	}
	if req.EffectiveTo != nil {
		rule.EffectiveTo = req.EffectiveTo
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if rule.IsActive {
		conflicts, err := s.ruleRepo.ListConflicting(ctx, rule, &rule.ID)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if len(conflicts) > 0 {
			return nil, errors.ErrPricingRuleOverlap
		}
	}

	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.bustCache(ctx, rule.FieldTypeID, rule.DayOfWeek)
	return rule, nil
}

// DeleteRule 删除定价规则
func (s *Service) DeleteRule(ctx context.Context, ruleID int64) error {
	rule, err := s.ruleRepo.GetByID(ctx, ruleID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrPricingRuleNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	if err := s.ruleRepo.Delete(ctx, ruleID); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	s.bustCache(ctx, rule.FieldTypeID, rule.DayOfWeek)
	return nil
}

// ListRules 获取场地类型的全部规则
func (s *Service) ListRules(ctx context.Context, fieldTypeID int64) ([]*models.PricingRule, error) {
	rules, err := s.ruleRepo.ListByFieldType(ctx, fieldTypeID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return rules, nil
}

func (s *Service) validateRuleTimes(startTime, endTime string) error {
	if !utils.ValidateTimeOfDay(startTime) || !utils.ValidateTimeOfDay(endTime) {
		return errors.ErrInvalidParams.WithMessage("时刻格式应为 HH:MM")
	}
	if startTime >= endTime {
		return errors.ErrInvalidTimeRange
	}
	return nil
}

func (s *Service) bustCache(ctx context.Context, fieldTypeID int64, dayOfWeek int) {
	if !s.useCache {
		return
	}
	if err := cache.Delete(ctx, cache.PricingRulesKey(fieldTypeID, dayOfWeek)); err != nil {
		logger.Warn("定价规则缓存清理失败", logger.Module("pricing"))
	}
}
