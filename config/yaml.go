// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"io"

	"github.com/z5labs/persistarg/internal/try"

	"gopkg.in/yaml.v3"
)

// Yaml is the Codec for YAML config files. It is the default format.
type Yaml struct{}

// InvalidYamlError occurs if the underlying io.Reader contains invalid YAML.
type InvalidYamlError struct {
	Cause error
}

// Error implements the error interface.
func (e InvalidYamlError) Error() string {
	return fmt.Sprintf("invalid yaml: %s", e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e InvalidYamlError) Unwrap() error {
	return e.Cause
}

// Load implements the Codec interface.
func (Yaml) Load(r io.Reader) (_ Snapshot, err error) {
	defer try.Close(&err, r)

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m := make(map[string]any)
	err = yaml.Unmarshal(b, &m)
	if err != nil {
		return nil, InvalidYamlError{Cause: err}
	}
	return Snapshot(m), nil
}

// Dump implements the Codec interface.
func (Yaml) Dump(s Snapshot) ([]byte, error) {
	return yaml.Marshal(map[string]any(s))
}

// Ext implements the Codec interface.
func (Yaml) Ext() string {
	return "yml"
}
