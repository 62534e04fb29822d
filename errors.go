// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package persistarg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// ErrEmptyArgumentName is returned when an ArgumentSpec has no Name.
var ErrEmptyArgumentName = errors.New("argument name must not be empty")

// DuplicateArgumentError occurs when an argument reuses the name,
// shorthand or destination of an already registered argument.
type DuplicateArgumentError struct {
	Name     string
	Conflict string
}

// Error implements the [builtin.error] interface.
func (e DuplicateArgumentError) Error() string {
	return fmt.Sprintf("argument %s: conflicting option string: %s", e.Name, e.Conflict)
}

// InvalidShorthandError occurs when a shorthand is longer than one letter.
type InvalidShorthandError struct {
	Name      string
	Shorthand string
}

// Error implements the [builtin.error] interface.
func (e InvalidShorthandError) Error() string {
	return fmt.Sprintf("argument %s: shorthand must be a single letter: %q", e.Name, e.Shorthand)
}

// UnsupportedTypeError occurs when an argument uses an unknown Type.
type UnsupportedTypeError struct {
	Name string
	Type Type
}

// Error implements the [builtin.error] interface.
func (e UnsupportedTypeError) Error() string {
	return fmt.Sprintf("argument %s: unsupported type: %s", e.Name, e.Type)
}

// UnsupportedActionError occurs when an argument uses an unknown Action.
type UnsupportedActionError struct {
	Name   string
	Action Action
}

// Error implements the [builtin.error] interface.
func (e UnsupportedActionError) Error() string {
	return fmt.Sprintf("argument %s: unsupported action: %d", e.Name, int(e.Action))
}

// InvalidDefaultError occurs when an argument Default can
// not be converted to the argument Type.
type InvalidDefaultError struct {
	Name  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e InvalidDefaultError) Error() string {
	return fmt.Sprintf("argument %s: invalid default value: %s", e.Name, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidDefaultError) Unwrap() error {
	return e.Cause
}

// UsageError reports every problem with the command line and
// config file values of a Parse call at once.
type UsageError struct {
	// Missing lists required arguments which were not set.
	Missing []string

	// Groups holds one message per violated MutexGroup.
	Groups []string

	// Cause is set when the command line itself could not be parsed.
	Cause error
}

// Error implements the [builtin.error] interface.
func (e UsageError) Error() string {
	var msgs []string
	if e.Cause != nil {
		msgs = append(msgs, e.Cause.Error())
	}
	msgs = append(msgs, e.Groups...)
	if len(e.Missing) > 0 {
		msgs = append(msgs, fmt.Sprintf(
			"the configuration was invalid, the following required arguments were not set: %s",
			strings.Join(e.Missing, ", "),
		))
	}
	return strings.Join(msgs, "\n")
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e UsageError) Unwrap() error {
	return e.Cause
}

// ConfigReadError occurs when a config file can not be read or decoded.
type ConfigReadError struct {
	Path  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigReadError) Error() string {
	return fmt.Sprintf("failed to read config file %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigReadError) Unwrap() error {
	return e.Cause
}

// ConfigWriteError occurs when a config file can not be written.
type ConfigWriteError struct {
	Path  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigWriteError) Error() string {
	return fmt.Sprintf("failed to write config file %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigWriteError) Unwrap() error {
	return e.Cause
}

// ExitCode maps an error returned by Parse to a process exit status.
// Usage errors exit with 2, matching the convention of flag parsers.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	var uerr UsageError
	if errors.As(err, &uerr) {
		return 2
	}
	return 1
}
