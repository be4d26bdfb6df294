package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// IntList is stored as text, e.g. "[7,8,5]".
type IntList []int

// To DB: convert to "[7,8,...]"
func (l IntList) Value() (driver.Value, error) {
	parts := make([]string, len(l))
	for i, n := range l {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ",") + "]", nil
}

// From DB: parse "[7,8,...]"
func (l *IntList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch data := value.(type) {
	case string:
		return l.parse(data)
	case []byte:
		return l.parse(string(data))
	default:
		return fmt.Errorf("unsupported type for IntList: %T", value)
	}
}

func (l *IntList) parse(s string) error {
	s = strings.Trim(s, "[] ")
	if s == "" {
		*l = IntList{}
		return nil
	}
	parts := strings.Split(s, ",")
	out := make(IntList, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("invalid IntList element %q: %w", p, err)
		}
		out[i] = n
	}
	*l = out
	return nil
}
