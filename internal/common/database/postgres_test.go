// Package database 数据库辅助函数单元测试
package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type pagerRow struct {
	ID   int64 `gorm:"primaryKey;autoIncrement"`
	Name string
}

func setupPagerDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&pagerRow{}))
	return db
}

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, getLogLevel(true))
	assert.Equal(t, gormlogger.Silent, getLogLevel(false))
}

func TestPaginate(t *testing.T) {
	db := setupPagerDB(t)
	for i := 0; i < 25; i++ {
		db.Create(&pagerRow{Name: "row"})
	}

	var rows []pagerRow
	err := db.Scopes(Paginate(2, 10)).Find(&rows).Error
	require.NoError(t, err)
	assert.Len(t, rows, 10)
	assert.Equal(t, int64(11), rows[0].ID)

	// 非法分页参数回退到默认值
	rows = nil
	err = db.Scopes(Paginate(0, 0)).Find(&rows).Error
	require.NoError(t, err)
	assert.Len(t, rows, 10)
	assert.Equal(t, int64(1), rows[0].ID)
}
