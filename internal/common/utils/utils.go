// Package utils 提供通用工具函数
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// GenerateRandomNumber 生成指定长度的随机数字字符串
func GenerateRandomNumber(length int) string {
	var result strings.Builder
	for i := 0; i < length; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(10))
		result.WriteString(strconv.Itoa(int(n.Int64())))
	}
	return result.String()
}

// ValidatePhone 验证手机号
func ValidatePhone(phone string) bool {
	pattern := `^0\d{9,10}$`
	matched, _ := regexp.MatchString(pattern, phone)
	return matched
}

// ValidateEmail 验证邮箱
func ValidateEmail(email string) bool {
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	matched, _ := regexp.MatchString(pattern, email)
	return matched
}

// ValidateTimeOfDay 验证 HH:MM 格式的时刻字符串
func ValidateTimeOfDay(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// TimeOfDayToMinutes 将 HH:MM 转换为当日分钟数
// 格式非法时返回错误
func TimeOfDayToMinutes(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("无效的时刻格式: %s", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// DurationHours 计算 [start, end) 区间的小时数（允许小数）
func DurationHours(start, end string) (float64, error) {
	s, err := TimeOfDayToMinutes(start)
	if err != nil {
		return 0, err
	}
	e, err := TimeOfDayToMinutes(end)
	if err != nil {
		return 0, err
	}
	if e <= s {
		return 0, fmt.Errorf("结束时刻必须晚于开始时刻: %s >= %s", start, end)
	}
	return float64(e-s) / 60.0, nil
}

// RangesOverlap 判断两个半开区间 [aStart, aEnd) 与 [bStart, bEnd) 是否重叠
// 时刻为 HH:MM 字符串，按字典序比较等价于按时间比较
func RangesOverlap(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && aEnd > bStart
}

// DayOfWeek 返回 ISO 风格的星期编号，1=周一 ... 7=周日
func DayOfWeek(date time.Time) int {
	dow := int(date.Weekday())
	if dow == 0 {
		dow = 7
	}
	return dow
}

// FormatMoney 格式化金额（分转元）
func FormatMoney(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100)
}

// StringPtr 返回字符串指针
func StringPtr(s string) *string {
	return &s
}

// IntPtr 返回整数指针
func IntPtr(i int) *int {
	return &i
}

// Int64Ptr 返回 int64 指针
func Int64Ptr(i int64) *int64 {
	return &i
}

// TimePtr 返回时间指针
func TimePtr(t time.Time) *time.Time {
	return &t
}

// SafeString 安全获取字符串指针的值
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SafeInt64 安全获取 int64 指针的值
func SafeInt64(i *int64) int64 {
	if i == nil {
		return 0
	}
	return *i
}

// Contains 判断切片是否包含元素
func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// Unique 切片去重
func Unique[T comparable](slice []T) []T {
	seen := make(map[T]struct{})
	result := make([]T, 0, len(slice))
	for _, v := range slice {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}
	return result
}

// Pagination 分页参数
type Pagination struct {
	Page     int   `json:"page" form:"page"`
	PageSize int   `json:"page_size" form:"page_size"`
	Total    int64 `json:"total"`
}

// GetOffset 获取偏移量
func (p *Pagination) GetOffset() int {
	return (p.Page - 1) * p.PageSize
}

// GetLimit 获取限制数
func (p *Pagination) GetLimit() int {
	return p.PageSize
}

// Normalize 规范化分页参数
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 10
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}
