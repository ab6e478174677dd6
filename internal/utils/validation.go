package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/biharilibrary/library-manager/backend/internal/pricing"
	"golang.org/x/mod/semver"
)

var mobileRegexp = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// ValidateMobile 检查是否为 10 位的印度手机号，允许带 +91 或 0 前缀
func ValidateMobile(mobile string) bool {
	return mobileRegexp.MatchString(NormalizeMobile(mobile))
}

func NormalizeMobile(mobile string) string {
	mobile = strings.ReplaceAll(strings.TrimSpace(mobile), " ", "")
	mobile = strings.TrimPrefix(mobile, "+91")
	if len(mobile) == 11 {
		mobile = strings.TrimPrefix(mobile, "0")
	}
	return mobile
}

// ParseDate 接受 YYYY-MM-DD 或者 RFC3339 格式的日期
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("日期 %q 格式错误", s)
}

// ValidateTimeSlot 检查时段是否属于该班次，返回规范化之后的时段
func ValidateTimeSlot(shift pricing.Shift, timeSlot string) (string, error) {
	canonical, ok := pricing.MatchTimeSlot(shift, timeSlot)
	if !ok {
		return "", fmt.Errorf("时段 %q 不属于班次 %s", timeSlot, shift)
	}
	return canonical, nil
}

// CompareVersions 比较两个形如 1.2.3 的版本号，a < b 返回 -1，a > b 返回 1，相等返回 0
func CompareVersions(a, b string) (int, error) {
	va, err := canonicalVersion(a)
	if err != nil {
		return 0, err
	}
	vb, err := canonicalVersion(b)
	if err != nil {
		return 0, err
	}

	return semver.Compare(va, vb), nil
}

// 客户端上报的版本号不带 v 前缀
func canonicalVersion(v string) (string, error) {
	v = "v" + strings.TrimPrefix(strings.TrimSpace(v), "v")
	if !semver.IsValid(v) {
		return "", fmt.Errorf("版本号 %q 格式错误", strings.TrimPrefix(v, "v"))
	}
	return v, nil
}
