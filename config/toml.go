// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"io"

	"github.com/z5labs/persistarg/internal/try"

	"github.com/pelletier/go-toml/v2"
)

// Toml is the Codec for TOML config files.
//
// TOML has no null value so unset arguments are left out of dumped
// files. Reloading such a file reports a key set mismatch.
type Toml struct{}

// InvalidTomlError occurs if the underlying io.Reader contains invalid TOML.
type InvalidTomlError struct {
	Cause error
}

// Error implements the error interface.
func (e InvalidTomlError) Error() string {
	return fmt.Sprintf("invalid toml: %s", e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e InvalidTomlError) Unwrap() error {
	return e.Cause
}

// Load implements the Codec interface.
func (Toml) Load(r io.Reader) (_ Snapshot, err error) {
	defer try.Close(&err, r)

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m := make(map[string]any)
	err = toml.Unmarshal(b, &m)
	if err != nil {
		return nil, InvalidTomlError{Cause: err}
	}
	return Snapshot(m), nil
}

// Dump implements the Codec interface.
func (Toml) Dump(s Snapshot) ([]byte, error) {
	m := make(map[string]any, len(s))
	for k, v := range s {
		if v == nil {
			continue
		}
		m[k] = v
	}
	return toml.Marshal(m)
}

// Ext implements the Codec interface.
func (Toml) Ext() string {
	return "toml"
}
