package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseBytes parses a human-readable size string (e.g. "64KB", "10MB", "2GB")
// into bytes. A bare number is taken as bytes.
func ParseBytes(s string) (int64, error) {
	raw := s
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "B"):
		s = s[:len(s)-1]
	}

	val, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || val < 0 {
		return 0, fmt.Errorf("invalid size %q", raw)
	}
	return val * multiplier, nil
}

// ParseSize is ParseBytes with a fallback: it returns defaultBytes if the
// string cannot be parsed.
func ParseSize(s string, defaultBytes int64) int64 {
	n, err := ParseBytes(s)
	if err != nil {
		return defaultBytes
	}
	return n
}

// MaskSecret hides sensitive parts of a string for safe display in logs.
// If the string is shorter than visiblePrefix, it is fully masked.
func MaskSecret(s string, visiblePrefix int) string {
	if len(s) <= visiblePrefix {
		return "***"
	}
	return s[:visiblePrefix] + "***"
}
