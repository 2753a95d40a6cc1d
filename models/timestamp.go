package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

var ErrInvalidTimestamp = errors.New("invalid timestamp")

// NormalizeTimestamp converts the date representations found in stored documents into a UTC time.
// Accepted forms: time.Time, *time.Time, RFC3339 strings, Unix milliseconds, and structured
// {seconds, nanoseconds} values (also with leading underscores, as exported by document stores).
func NormalizeTimestamp(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("%w: nil time", ErrInvalidTimestamp)
		}
		return t.UTC(), nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %w", ErrInvalidTimestamp, t, err)
		}
		return parsed.UTC(), nil
	case int64:
		return time.UnixMilli(t).UTC(), nil
	case int:
		return time.UnixMilli(int64(t)).UTC(), nil
	case float64:
		return time.UnixMilli(int64(t)).UTC(), nil
	case json.Number:
		ms, err := t.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %w", ErrInvalidTimestamp, t.String(), err)
		}
		return time.UnixMilli(ms).UTC(), nil
	case map[string]interface{}:
		return timestampFromParts(t)
	}
	return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidTimestamp, v)
}

func timestampFromParts(parts map[string]interface{}) (time.Time, error) {
	secRaw, ok := parts["seconds"]
	if !ok {
		secRaw, ok = parts["_seconds"]
	}
	if !ok {
		return time.Time{}, fmt.Errorf("%w: missing seconds", ErrInvalidTimestamp)
	}
	sec, err := toInt64(secRaw)
	if err != nil {
		return time.Time{}, err
	}

	var nsec int64
	nsecRaw, ok := parts["nanoseconds"]
	if !ok {
		nsecRaw, ok = parts["_nanoseconds"]
	}
	if ok {
		if nsec, err = toInt64(nsecRaw); err != nil {
			return time.Time{}, err
		}
	}
	if nsec < 0 || nsec >= int64(time.Second) {
		return time.Time{}, fmt.Errorf("%w: nanoseconds out of range: %d", ErrInvalidTimestamp, nsec)
	}
	return time.Unix(sec, nsec).UTC(), nil
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: non-integer component %v", ErrInvalidTimestamp, n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(n, 10, 64)
	}
	return 0, fmt.Errorf("%w: unsupported component type %T", ErrInvalidTimestamp, v)
}

// Timestamp decodes any JSON form accepted by NormalizeTimestamp.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := NormalizeTimestamp(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time)
}
