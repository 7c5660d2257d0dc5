// Package booking 编码生成服务单元测试
package booking

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codeDate = time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)

func neverExists(context.Context, string) (bool, error) {
	return false, nil
}

func TestCodeService_Generate_SequentialFormat(t *testing.T) {
	svc := NewCodeService(10)
	ctx := context.Background()

	code, err := svc.Generate(ctx, CodePrefixBooking, codeDate, 0, neverExists)
	require.NoError(t, err)
	assert.Equal(t, "BK20260905001", code)

	// 当日已有 41 条记录，序号从 42 开始
	code, err = svc.Generate(ctx, CodePrefixBooking, codeDate, 41, neverExists)
	require.NoError(t, err)
	assert.Equal(t, "BK20260905042", code)

	code, err = svc.Generate(ctx, CodePrefixOrder, codeDate, 0, neverExists)
	require.NoError(t, err)
	assert.Equal(t, "OC20260905001", code)
}

func TestCodeService_Generate_ProbesPastCollisions(t *testing.T) {
	svc := NewCodeService(10)
	ctx := context.Background()

	taken := map[string]bool{
		"BK20260905001": true,
		"BK20260905002": true,
	}
	exists := func(_ context.Context, code string) (bool, error) {
		return taken[code], nil
	}

	code, err := svc.Generate(ctx, CodePrefixBooking, codeDate, 0, exists)
	require.NoError(t, err)
	assert.Equal(t, "BK20260905003", code)
}

func TestCodeService_Generate_FallbackWhenWindowExhausted(t *testing.T) {
	svc := NewCodeService(3)
	svc.now = func() time.Time {
		return time.Date(2026, 9, 5, 12, 0, 0, 123456000, time.UTC)
	}
	ctx := context.Background()

	allTaken := func(context.Context, string) (bool, error) {
		return true, nil
	}

	code, err := svc.Generate(ctx, CodePrefixBooking, codeDate, 0, allTaken)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(code, "BK20260905"))
	// 时间戳后缀为 6 位数字
	assert.Len(t, code, len("BK20260905")+6)
}

func TestCodeService_Generate_PropagatesCheckError(t *testing.T) {
	svc := NewCodeService(10)

	boom := func(context.Context, string) (bool, error) {
		return false, assert.AnError
	}

	_, err := svc.Generate(context.Background(), CodePrefixBooking, codeDate, 0, boom)
	assert.ErrorIs(t, err, assert.AnError)
}
