// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sporthub/field-booking-backend/internal/models"
)

// FieldRepository 场地仓储
type FieldRepository struct {
	db *gorm.DB
}

// NewFieldRepository 创建场地仓储
func NewFieldRepository(db *gorm.DB) *FieldRepository {
	return &FieldRepository{db: db}
}

// Create 创建场地
func (r *FieldRepository) Create(ctx context.Context, field *models.Field) error {
	return r.db.WithContext(ctx).Create(field).Error
}

// GetByID 根据 ID 获取场地
func (r *FieldRepository) GetByID(ctx context.Context, id int64) (*models.Field, error) {
	var field models.Field
	err := r.db.WithContext(ctx).First(&field, id).Error
	if err != nil {
		return nil, err
	}
	return &field, nil
}

// GetByIDWithType 根据 ID 获取场地（包含场地类型）
func (r *FieldRepository) GetByIDWithType(ctx context.Context, id int64) (*models.Field, error) {
	var field models.Field
	err := r.db.WithContext(ctx).
		Preload("FieldType").
		First(&field, id).Error
	if err != nil {
		return nil, err
	}
	return &field, nil
}

// GetByCode 根据编号获取场地
func (r *FieldRepository) GetByCode(ctx context.Context, code string) (*models.Field, error) {
	var field models.Field
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&field).Error
	if err != nil {
		return nil, err
	}
	return &field, nil
}

// Update 更新场地
func (r *FieldRepository) Update(ctx context.Context, field *models.Field) error {
	return r.db.WithContext(ctx).Save(field).Error
}

// UpdateStatus 更新场地状态
func (r *FieldRepository) UpdateStatus(ctx context.Context, id int64, status int8) error {
	return r.db.WithContext(ctx).Model(&models.Field{}).Where("id = ?", id).Update("status", status).Error
}

// List 获取场地列表
func (r *FieldRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Field, int64, error) {
	var fields []*models.Field
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Field{})

	if fieldTypeID, ok := filters["field_type_id"].(int64); ok && fieldTypeID > 0 {
		query = query.Where("field_type_id = ?", fieldTypeID)
	}
	if status, ok := filters["status"].(int8); ok {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("FieldType").
		Order("code").
		Offset(offset).Limit(limit).
		Find(&fields).Error; err != nil {
		return nil, 0, err
	}

	return fields, total, nil
}

// FieldTypeRepository 场地类型仓储
type FieldTypeRepository struct {
	db *gorm.DB
}

// NewFieldTypeRepository 创建场地类型仓储
func NewFieldTypeRepository(db *gorm.DB) *FieldTypeRepository {
	return &FieldTypeRepository{db: db}
}

// Create 创建场地类型
func (r *FieldTypeRepository) Create(ctx context.Context, fieldType *models.FieldType) error {
	return r.db.WithContext(ctx).Create(fieldType).Error
}

// GetByID 根据 ID 获取场地类型
func (r *FieldTypeRepository) GetByID(ctx context.Context, id int64) (*models.FieldType, error) {
	var fieldType models.FieldType
	err := r.db.WithContext(ctx).First(&fieldType, id).Error
	if err != nil {
		return nil, err
	}
	return &fieldType, nil
}

// ListActive 获取启用的场地类型列表
func (r *FieldTypeRepository) ListActive(ctx context.Context) ([]*models.FieldType, error) {
	var fieldTypes []*models.FieldType
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("player_count").
		Find(&fieldTypes).Error
	return fieldTypes, err
}

// Update 更新场地类型
func (r *FieldTypeRepository) Update(ctx context.Context, fieldType *models.FieldType) error {
	return r.db.WithContext(ctx).Save(fieldType).Error
}
