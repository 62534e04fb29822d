// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"encoding"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Snapshot is the deserialized contents of a persisted config file.
type Snapshot map[string]any

// Keys returns the snapshot keys in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Codec converts between a Snapshot and its textual representation.
type Codec interface {
	// Load decodes a Snapshot from r.
	Load(r io.Reader) (Snapshot, error)

	// Dump encodes s.
	Dump(s Snapshot) ([]byte, error)

	// Ext is the file extension, without the leading dot,
	// used for files written with this Codec.
	Ext() string
}

// CodecFor returns the Codec matching the extension of path.
func CodecFor(path string) (Codec, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return Yaml{}, true
	case ".json":
		return Json{}, true
	case ".toml":
		return Toml{}, true
	default:
		return nil, false
	}
}

var errInvalidDecodeCondition = errors.New("invalid decode condition")

// TypeCoercionError occurs when a config value cannot be
// converted to the type expected by its argument.
type TypeCoercionError struct {
	From  reflect.Type
	To    reflect.Type
	Cause error
}

// Error implements the error interface.
func (e TypeCoercionError) Error() string {
	return fmt.Sprintf("failed to coerce value from %s to %s: %s", e.From, e.To, e.Cause)
}

// Unwrap implements the implicit interface for usage with errors.Is and errors.As.
func (e TypeCoercionError) Unwrap() error {
	return e.Cause
}

// Coerce converts v to type t. Strings are parsed, numbers are
// converted between widths and durations accept either their
// string form or a nanosecond count. A nil v stays nil.
func Coerce(v any, t reflect.Type) (any, error) {
	if v == nil {
		return nil, nil
	}
	if reflect.TypeOf(v) == t {
		return v, nil
	}

	// mapstructure does not wrap hook errors, lossy floats are caught first.
	n, err := floatToInt(reflect.TypeOf(v), t, v)
	switch {
	case err == nil:
		return n, nil
	case !errors.Is(err, errInvalidDecodeCondition):
		return nil, TypeCoercionError{
			From:  reflect.TypeOf(v),
			To:    t,
			Cause: err,
		}
	}

	out := reflect.New(t)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out.Interface(),
		DecodeHook:       DecodeHook(),
	})
	if err != nil {
		return nil, err
	}
	err = dec.Decode(v)
	if err != nil {
		return nil, TypeCoercionError{
			From:  reflect.TypeOf(v),
			To:    t,
			Cause: err,
		}
	}
	return out.Elem().Interface(), nil
}

// DecodeHook returns the mapstructure hook used when decoding
// config values into typed destinations.
func DecodeHook() mapstructure.DecodeHookFuncValue {
	return composeDecodeHooks(
		timeDurationHookFunc(),
		floatToIntHookFunc(),
		textUnmarshalerHookFunc(),
	)
}

func composeDecodeHooks(hs ...mapstructure.DecodeHookFunc) mapstructure.DecodeHookFuncValue {
	return func(f, t reflect.Value) (any, error) {
		for _, h := range hs {
			v, err := mapstructure.DecodeHookExec(h, f, t)
			if err == nil {
				return v, nil
			}
			if err == errInvalidDecodeCondition {
				continue
			}
			return nil, err
		}
		return f.Interface(), nil
	}
}

func textUnmarshalerHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return nil, errInvalidDecodeCondition
		}
		result := reflect.New(t).Interface()
		u, ok := result.(encoding.TextUnmarshaler)
		if !ok {
			return nil, errInvalidDecodeCondition
		}
		err := u.UnmarshalText([]byte(reflect.ValueOf(data).String()))
		if err != nil {
			return nil, err
		}
		return result, nil
	}
}

func timeDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return nil, errInvalidDecodeCondition
		}

		v := reflect.ValueOf(data)
		switch f.Kind() {
		case reflect.String:
			return time.ParseDuration(v.String())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return time.Duration(v.Int()), nil
		case reflect.Float32, reflect.Float64:
			return time.Duration(int64(v.Float())), nil
		default:
			return nil, errInvalidDecodeCondition
		}
	}
}

// ErrLossyConversion is returned when a float can not be
// stored in an integer without losing its value.
var ErrLossyConversion = errors.New("value can not be represented without loss")

func floatToIntHookFunc() mapstructure.DecodeHookFuncType {
	return floatToInt
}

func floatToInt(f reflect.Type, t reflect.Type, data any) (any, error) {
	if f.Kind() != reflect.Float32 && f.Kind() != reflect.Float64 {
		return nil, errInvalidDecodeCondition
	}

	var lo, hi float64
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		lo = -math.Ldexp(1, t.Bits()-1)
		hi = math.Ldexp(1, t.Bits()-1)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		hi = math.Ldexp(1, t.Bits())
	default:
		return nil, errInvalidDecodeCondition
	}

	v := reflect.ValueOf(data).Float()
	if v != math.Trunc(v) || v < lo || v >= hi {
		return nil, fmt.Errorf("%v to %s: %w", v, t, ErrLossyConversion)
	}
	if t.Kind() >= reflect.Uint && t.Kind() <= reflect.Uint64 {
		return reflect.ValueOf(uint64(v)).Convert(t).Interface(), nil
	}
	return reflect.ValueOf(int64(v)).Convert(t).Interface(), nil
}
