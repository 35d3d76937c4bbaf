package domain

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrInvalidData       = errors.New("invalid data")
	ErrEmptyBatch        = errors.New("empty batch")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrStreamPanic       = errors.New("stream panicked")
	ErrDuplicateStream   = errors.New("duplicate stream id")
	ErrUnknownStreamKind = errors.New("unknown stream kind")
)

// Batch is one call's worth of heterogeneous input values. Streams never
// retain a batch past the call that received it.
type Batch []any

func (b Batch) Len() int {
	return len(b)
}

func (b Batch) Clone() Batch {
	if b == nil {
		return nil
	}
	clone := make(Batch, len(b))
	copy(clone, b)
	return clone
}

// Numbers converts every item to float64. The first non-numeric item aborts
// the conversion with an error wrapping ErrTypeMismatch.
func (b Batch) Numbers() ([]float64, error) {
	nums := make([]float64, 0, len(b))
	for i, v := range b {
		n, ok := AsNumber(v)
		if !ok {
			return nil, fmt.Errorf("item %d (%T): %w", i, v, ErrTypeMismatch)
		}
		nums = append(nums, n)
	}
	return nums, nil
}

// AsNumber reports whether v is a Go integer or float and returns it as
// float64. Booleans are not numbers.
func AsNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// ToBatch accepts the slice shapes callers commonly hold and returns them as
// a Batch. Strings and scalars are not batches.
func ToBatch(data any) (Batch, bool) {
	switch v := data.(type) {
	case Batch:
		return v, true
	case []any:
		return Batch(v), true
	case []float64:
		return fromSlice(v), true
	case []float32:
		return fromSlice(v), true
	case []int:
		return fromSlice(v), true
	case []int64:
		return fromSlice(v), true
	case []int32:
		return fromSlice(v), true
	case []int16:
		return fromSlice(v), true
	case []int8:
		return fromSlice(v), true
	case []uint:
		return fromSlice(v), true
	case []uint64:
		return fromSlice(v), true
	case []uint32:
		return fromSlice(v), true
	case []uint16:
		return fromSlice(v), true
	case []uint8:
		return fromSlice(v), true
	case []string:
		return fromSlice(v), true
	default:
		return nil, false
	}
}

func fromSlice[T any](s []T) Batch {
	b := make(Batch, len(s))
	for i, v := range s {
		b[i] = v
	}
	return b
}

// FormatNumber renders whole numbers without a fractional part, so integer
// sums print as "175" rather than "175.000000".
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
