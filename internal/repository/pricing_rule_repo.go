// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sporthub/field-booking-backend/internal/models"
)

// PricingRuleRepository 定价规则仓储
type PricingRuleRepository struct {
	db *gorm.DB
}

// NewPricingRuleRepository 创建定价规则仓储
func NewPricingRuleRepository(db *gorm.DB) *PricingRuleRepository {
	return &PricingRuleRepository{db: db}
}

// Create 创建定价规则
func (r *PricingRuleRepository) Create(ctx context.Context, rule *models.PricingRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

// GetByID 根据 ID 获取定价规则
func (r *PricingRuleRepository) GetByID(ctx context.Context, id int64) (*models.PricingRule, error) {
	var rule models.PricingRule
	err := r.db.WithContext(ctx).First(&rule, id).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// Update 更新定价规则
func (r *PricingRuleRepository) Update(ctx context.Context, rule *models.PricingRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

// Delete 删除定价规则
func (r *PricingRuleRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.PricingRule{}, id).Error
}

// ListActive 获取指定场地类型和星期几的生效规则
// 按规则 ID 升序返回，解析时多条命中取第一条
func (r *PricingRuleRepository) ListActive(ctx context.Context, fieldTypeID int64, dayOfWeek int) ([]*models.PricingRule, error) {
	var rules []*models.PricingRule
	err := r.db.WithContext(ctx).
		Where("field_type_id = ?", fieldTypeID).
		Where("day_of_week = ?", dayOfWeek).
		Where("is_active = ?", true).
		Order("id").
		Find(&rules).Error
	return rules, err
}

// ListByFieldType 获取场地类型的全部规则
func (r *PricingRuleRepository) ListByFieldType(ctx context.Context, fieldTypeID int64) ([]*models.PricingRule, error) {
	var rules []*models.PricingRule
	err := r.db.WithContext(ctx).
		Where("field_type_id = ?", fieldTypeID).
		Order("day_of_week, start_time").
		Find(&rules).Error
	return rules, err
}

// ListConflicting 获取与给定规则时段和生效窗口都重叠的生效规则
// 写入前的重叠校验使用，excludeRuleID 用于更新时排除自身
func (r *PricingRuleRepository) ListConflicting(ctx context.Context, rule *models.PricingRule, excludeRuleID *int64) ([]*models.PricingRule, error) {
	query := r.db.WithContext(ctx).
		Where("field_type_id = ?", rule.FieldTypeID).
		Where("day_of_week = ?", rule.DayOfWeek).
		Where("is_active = ?", true).
		Where("start_time < ? AND end_time > ?", rule.EndTime, rule.StartTime)

	// 生效窗口为半开区间 [effective_from, effective_to)，空端点视为无限远
	if rule.EffectiveTo != nil {
		query = query.Where("effective_from IS NULL OR effective_from < ?", *rule.EffectiveTo)
	}
	if rule.EffectiveFrom != nil {
		query = query.Where("effective_to IS NULL OR effective_to > ?", *rule.EffectiveFrom)
	}
	if excludeRuleID != nil {
		query = query.Where("id <> ?", *excludeRuleID)
	}

	var rules []*models.PricingRule
	err := query.Order("id").Find(&rules).Error
	return rules, err
}

// ListEffective 获取在指定日期生效的规则
func (r *PricingRuleRepository) ListEffective(ctx context.Context, fieldTypeID int64, dayOfWeek int, date time.Time) ([]*models.PricingRule, error) {
	var rules []*models.PricingRule
	err := r.db.WithContext(ctx).
		Where("field_type_id = ?", fieldTypeID).
		Where("day_of_week = ?", dayOfWeek).
		Where("is_active = ?", true).
		Where("effective_from IS NULL OR effective_from <= ?", date).
		Where("effective_to IS NULL OR effective_to > ?", date).
		Order("id").
		Find(&rules).Error
	return rules, err
}
