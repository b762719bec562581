package util

import (
	"fmt"
	"strconv"
	"strings"
)

var sizeUnits = []struct {
	suffix string
	mult   int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// ParseSize parses a size such as "10MB", "512KB" or "2048" into bytes.
func ParseSize(s string) (int64, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" {
		return 0, fmt.Errorf("empty size")
	}
	mult := int64(1)
	for _, u := range sizeUnits {
		if strings.HasSuffix(v, u.suffix) {
			mult = u.mult
			v = strings.TrimSpace(strings.TrimSuffix(v, u.suffix))
			break
		}
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * mult, nil
}

// SizeOr is ParseSize falling back to def on empty or invalid input.
func SizeOr(s string, def int64) int64 {
	n, err := ParseSize(s)
	if err != nil {
		return def
	}
	return n
}

// MaskSecret keeps the first visible characters of a credential for logs.
// Short or empty values are fully masked.
func MaskSecret(s string, visible int) string {
	if s == "" {
		return ""
	}
	if len(s) <= visible*2 {
		return "***"
	}
	return s[:visible] + "***"
}
