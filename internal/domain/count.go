package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Count is a non-negative casualty counter.
type Count int64

// ParseCount parses "123" or "123.0". Negative, fractional and out of range
// values are rejected.
func ParseCount(s string) (Count, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative count %q", s)
		}
		return Count(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	// float64(math.MaxInt64) rounds up to 2^63, so the bound is exclusive.
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) || f < 0 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return Count(f), nil
}

// CountPtr is a convenience for building nullable counters.
func CountPtr(n int64) *Count {
	c := Count(n)
	return &c
}

func (c Count) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(c), 10)), nil
}

func (c *Count) UnmarshalText(b []byte) error {
	n, err := ParseCount(string(b))
	if err != nil {
		return err
	}
	*c = n
	return nil
}

// MarshalJSON emits a JSON number rather than the text form.
func (c Count) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(c), 10)), nil
}

// UnmarshalJSON accepts a number or a numeric string.
func (c *Count) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return c.UnmarshalText([]byte(s))
	}
	return c.UnmarshalText(b)
}
