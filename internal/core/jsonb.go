// AngelaMos | 2026
// jsonb.go

package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONList is a slice persisted as a JSONB array. A nil list is stored as
// an empty array so the column never holds null.
type JSONList[T any] []T

func (l JSONList[T]) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}

	b, err := json.Marshal([]T(l))
	if err != nil {
		return nil, fmt.Errorf("marshal json list: %w", err)
	}

	return b, nil
}

func (l *JSONList[T]) Scan(src any) error {
	var raw []byte

	switch v := src.(type) {
	case nil:
		*l = JSONList[T]{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan json list: unsupported type %T", src)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("scan json list: %w", err)
	}

	if items == nil {
		items = []T{}
	}

	*l = items
	return nil
}
