package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// ErrDecode wraps a stored value that does not parse as the requested type.
var ErrDecode = errors.New("decode preference")

// GetString returns def when the key is absent.
func GetString(ctx context.Context, s Store, key, def string) (string, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// GetBool returns def when the key is absent or unreadable.
func GetBool(ctx context.Context, s Store, key string, def bool) (bool, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, nil
	}
	return b, nil
}

// GetDecimal returns def when the key is absent. An unreadable value is
// reported so the caller can decide whether to fall back.
func GetDecimal(ctx context.Context, s Store, key string, def decimal.Decimal) (decimal.Decimal, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return def, fmt.Errorf("%w %s: %v", ErrDecode, key, err)
	}
	return d, nil
}

// GetInt64 returns def when the key is absent.
func GetInt64(ctx context.Context, s Store, key string, def int64) (int64, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def, fmt.Errorf("%w %s: %v", ErrDecode, key, err)
	}
	return i, nil
}

// GetJSON decodes the value into dst. found is false when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, dst any) (found bool, err error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		return true, fmt.Errorf("%w %s: %v", ErrDecode, key, err)
	}
	return true, nil
}

func PutBool(key string, v bool) Edit {
	return Put(key, strconv.FormatBool(v))
}

// PutDecimal stores two decimal places.
func PutDecimal(key string, d decimal.Decimal) Edit {
	return Put(key, d.StringFixed(2))
}

func PutInt64(key string, v int64) Edit {
	return Put(key, strconv.FormatInt(v, 10))
}

func PutJSON(key string, v any) (Edit, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Edit{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return Put(key, string(b)), nil
}
