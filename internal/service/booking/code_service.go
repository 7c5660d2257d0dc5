// Package booking 提供预订生命周期服务
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/sporthub/field-booking-backend/internal/common/logger"
)

// 编码前缀
const (
	CodePrefixBooking = "BK" // 预订码
	CodePrefixOrder   = "OC" // 场次订单码
)

// ExistsFunc 编码占用检查
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// CodeService 人类可读编码生成服务
// 格式：前缀 + yyyyMMdd + 3位当日序号，如 BK20260905001
// 不持全局锁，存储层唯一约束是最终仲裁，冲突可重试
type CodeService struct {
	probeWindow int
	now         func() time.Time
}

// NewCodeService 创建编码生成服务
// probeWindow 为序号探测窗口大小
func NewCodeService(probeWindow int) *CodeService {
	if probeWindow <= 0 {
		probeWindow = 10
	}
	return &CodeService{
		probeWindow: probeWindow,
		now:         time.Now,
	}
}

// Generate 生成编码
// 从 startSeq+1 开始探测一个有界窗口，全部被占用时降级为时间戳后缀
func (s *CodeService) Generate(ctx context.Context, prefix string, date time.Time, startSeq int64, exists ExistsFunc) (string, error) {
	dateStr := date.Format("20060102")

	for i := int64(1); i <= int64(s.probeWindow); i++ {
		code := fmt.Sprintf("%s%s%03d", prefix, dateStr, startSeq+i)
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}

	// 探测窗口耗尽，降级为时间戳后缀保证可用
	fallback := fmt.Sprintf("%s%s%06d", prefix, dateStr, s.now().UnixNano()%1000000)
	logger.Warn("编码序号探测窗口耗尽，降级为时间戳后缀",
		logger.Module("booking"),
		logger.BookingCode(fallback),
	)
	return fallback, nil
}
