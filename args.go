// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package persistarg

import (
	"time"

	"github.com/z5labs/persistarg/config"

	"github.com/mitchellh/mapstructure"
)

// ConfigDest is the destination name of the reserved -c/--config argument.
const ConfigDest = "config"

// Args holds the values of a single Parse call.
type Args struct {
	names  []string
	values map[string]any
}

func newArgs(capacity int) *Args {
	return &Args{
		names:  make([]string, 0, capacity),
		values: make(map[string]any, capacity),
	}
}

func (a *Args) set(name string, v any) {
	if _, ok := a.values[name]; !ok {
		a.names = append(a.names, name)
	}
	a.values[name] = v
}

// Names returns every destination name in registration order.
func (a *Args) Names() []string {
	names := make([]string, len(a.names))
	copy(names, a.names)
	return names
}

// Get returns the value stored for name and whether it is set.
func (a *Args) Get(name string) (any, bool) {
	v := a.values[name]
	return v, v != nil
}

// IsSet reports whether name holds a value.
func (a *Args) IsSet(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Config returns the path of the config file these
// arguments were loaded from or saved to.
func (a *Args) Config() string {
	return a.String(ConfigDest)
}

// String returns the value of name or "" if it is unset or not a string.
func (a *Args) String(name string) string {
	return valueAs[string](a, name)
}

// Int returns the value of name or 0 if it is unset or not an int.
func (a *Args) Int(name string) int {
	return valueAs[int](a, name)
}

// Float64 returns the value of name or 0 if it is unset or not a float64.
func (a *Args) Float64(name string) float64 {
	return valueAs[float64](a, name)
}

// Bool returns the value of name or false if it is unset or not a bool.
func (a *Args) Bool(name string) bool {
	return valueAs[bool](a, name)
}

// Duration returns the value of name or 0 if it is unset or not a time.Duration.
func (a *Args) Duration(name string) time.Duration {
	return valueAs[time.Duration](a, name)
}

func valueAs[T any](a *Args, name string) T {
	v, _ := a.values[name].(T)
	return v
}

// Snapshot returns the values in the form they are persisted in.
// Durations are stored in their string form.
func (a *Args) Snapshot() config.Snapshot {
	s := make(config.Snapshot, len(a.values))
	for k, v := range a.values {
		if d, ok := v.(time.Duration); ok {
			s[k] = d.String()
			continue
		}
		s[k] = v
	}
	return s
}

// Decode copies the values into v, which must be a pointer to a struct.
// Fields are matched by their `arg` tag or, failing that, by name.
func (a *Args) Decode(v any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "arg",
		Result:           v,
		WeaklyTypedInput: true,
		DecodeHook:       config.DecodeHook(),
	})
	if err != nil {
		return err
	}

	m := make(map[string]any, len(a.values))
	for k, val := range a.values {
		m[k] = val
	}
	return dec.Decode(m)
}
