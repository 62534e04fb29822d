// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/z5labs/persistarg/internal/try"
)

// Json is the Codec for JSON config files.
type Json struct{}

// InvalidJsonError occurs if the underlying io.Reader contains invalid JSON.
type InvalidJsonError struct {
	Cause error
}

// Error implements the error interface.
func (e InvalidJsonError) Error() string {
	return fmt.Sprintf("invalid json: %s", e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e InvalidJsonError) Unwrap() error {
	return e.Cause
}

// Load implements the Codec interface.
func (Json) Load(r io.Reader) (_ Snapshot, err error) {
	defer try.Close(&err, r)

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m := make(map[string]any)
	err = json.Unmarshal(b, &m)
	if err != nil {
		return nil, InvalidJsonError{Cause: err}
	}
	return Snapshot(m), nil
}

// Dump implements the Codec interface.
func (Json) Dump(s Snapshot) ([]byte, error) {
	b, err := json.MarshalIndent(map[string]any(s), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// Ext implements the Codec interface.
func (Json) Ext() string {
	return "json"
}
