// Package repository 商品仓储单元测试
package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sporthub/field-booking-backend/internal/models"
)

func setupProductTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.Product{})
	require.NoError(t, err)

	return db
}

func TestProductRepository_CreateAndGet(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	product := &models.Product{Name: "矿泉水", Price: 10000, Unit: "瓶", IsAvailable: true}
	require.NoError(t, repo.Create(ctx, product))
	assert.NotZero(t, product.ID)

	got, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "矿泉水", got.Name)
}

func TestProductRepository_GetByIDs(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	p1 := &models.Product{Name: "矿泉水", Price: 10000, Unit: "瓶", IsAvailable: true}
	p2 := &models.Product{Name: "球衣租借", Price: 50000, Unit: "套", IsAvailable: true}
	require.NoError(t, repo.Create(ctx, p1))
	require.NoError(t, repo.Create(ctx, p2))

	products, err := repo.GetByIDs(ctx, []int64{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestProductRepository_ListOnlyAvailable(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Product{Name: "矿泉水", Price: 10000, Unit: "瓶", IsAvailable: true}))
	require.NoError(t, repo.Create(ctx, &models.Product{Name: "下架商品", Price: 10000, Unit: "个", IsAvailable: false}))

	products, total, err := repo.List(ctx, 0, 10, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, products, 1)
	assert.Equal(t, "矿泉水", products[0].Name)
}
