package models

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// ParseCompanyID coerces an untyped value into a company identifier.
//
// Finite non-negative numbers are floored, so 7.5 yields 7. That tolerance of
// fractional input is kept on purpose to match existing clients. Strings must
// consist of decimal digits only (surrounding whitespace is ignored). Anything
// else, including values that overflow int64, yields ok == false.
func ParseCompanyID(v any) (id int64, ok bool) {
	switch n := v.(type) {
	case float64:
		return fromFloat(n)
	case float32:
		return fromFloat(float64(n))
	case int:
		return fromInt(int64(n))
	case int32:
		return fromInt(int64(n))
	case int64:
		return fromInt(n)
	case uint32:
		return int64(n), true
	case string:
		s := strings.TrimSpace(n)
		if !digitsOnly.MatchString(s) {
			return 0, false
		}
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func fromFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	floored := math.Floor(f)
	if floored >= math.MaxInt64 {
		return 0, false
	}
	return int64(floored), true
}

func fromInt(i int64) (int64, bool) {
	if i < 0 {
		return 0, false
	}
	return i, true
}
