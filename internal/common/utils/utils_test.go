package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRandomNumber(t *testing.T) {
	code := GenerateRandomNumber(6)
	assert.Len(t, code, 6)
	for _, c := range code {
		assert.True(t, c >= '0' && c <= '9')
	}
}

func TestValidateTimeOfDay(t *testing.T) {
	assert.True(t, ValidateTimeOfDay("08:00"))
	assert.True(t, ValidateTimeOfDay("23:30"))
	assert.False(t, ValidateTimeOfDay("24:00"))
	assert.False(t, ValidateTimeOfDay("8:00:00"))
	assert.False(t, ValidateTimeOfDay("abc"))
}

func TestDurationHours(t *testing.T) {
	h, err := DurationHours("18:00", "20:00")
	assert.NoError(t, err)
	assert.Equal(t, 2.0, h)

	h, err = DurationHours("18:00", "19:30")
	assert.NoError(t, err)
	assert.Equal(t, 1.5, h)

	_, err = DurationHours("20:00", "18:00")
	assert.Error(t, err)

	_, err = DurationHours("20:00", "20:00")
	assert.Error(t, err)
}

func TestRangesOverlap(t *testing.T) {
	// 相邻区间不算重叠
	assert.False(t, RangesOverlap("08:00", "09:00", "09:00", "10:00"))
	assert.False(t, RangesOverlap("09:00", "10:00", "08:00", "09:00"))
	// 部分重叠
	assert.True(t, RangesOverlap("08:00", "09:30", "09:00", "10:00"))
	// 包含关系
	assert.True(t, RangesOverlap("08:00", "12:00", "09:00", "10:00"))
	// 完全相同
	assert.True(t, RangesOverlap("08:00", "09:00", "08:00", "09:00"))
}

func TestDayOfWeek(t *testing.T) {
	// 2026-08-24 是周一
	monday := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DayOfWeek(monday))
	// 2026-08-30 是周日
	sunday := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 7, DayOfWeek(sunday))
}

func TestPagination(t *testing.T) {
	p := &Pagination{Page: 0, PageSize: 0}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.PageSize)
	assert.Equal(t, 0, p.GetOffset())

	p = &Pagination{Page: 3, PageSize: 200}
	p.Normalize()
	assert.Equal(t, 100, p.PageSize)
	assert.Equal(t, 200, p.GetOffset())
}

func TestContainsAndUnique(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "a"))
	assert.False(t, Contains([]string{"a", "b"}, "c"))
	assert.Equal(t, []int{1, 2, 3}, Unique([]int{1, 2, 2, 3, 1}))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "3500.00", FormatMoney(350000))
	assert.Equal(t, "0.50", FormatMoney(50))
}
