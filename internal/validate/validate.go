package validate

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

var ErrInvalid = errors.New("invalid")

// RequireBounded trims and ensures length bounds.
func RequireBounded(name, s string, min, max int) (string, error) {
	s = strings.TrimSpace(s)
	if n := utf8.RuneCountInString(s); n < min || n > max {
		return "", errors.New(name + " must be between " + strconv.Itoa(min) + " and " + strconv.Itoa(max) + " characters")
	}
	return s, nil
}

// ClampLimitOffset parses and clamps paging.
func ClampLimitOffset(limitRaw, offsetRaw string, def, max int) (int, int) {
	limit := def
	if v, err := strconv.Atoi(strings.TrimSpace(limitRaw)); err == nil && v >= 1 && v <= max {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(strings.TrimSpace(offsetRaw)); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// ParseID parses a positive int64 path parameter.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalid
	}
	return id, nil
}

// OptionalBool returns nil for an empty value.
func OptionalBool(raw string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, ErrInvalid
	}
	return &b, nil
}

// OptionalID returns nil for an empty value.
func OptionalID(raw string) (*int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := ParseID(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
