// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package persistarg

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/z5labs/persistarg/config"

	"github.com/spf13/pflag"
)

// Type is the value type of an argument.
type Type int

const (
	String Type = iota
	Int
	Float64
	Bool
	Duration
)

// String implements the fmt.Stringer interface.
func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Int:
		return "int"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	case Duration:
		return "duration"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

func (t Type) reflectType() reflect.Type {
	switch t {
	case String:
		return reflect.TypeOf("")
	case Int:
		return reflect.TypeOf(0)
	case Float64:
		return reflect.TypeOf(float64(0))
	case Bool:
		return reflect.TypeOf(false)
	case Duration:
		return reflect.TypeOf(time.Duration(0))
	default:
		return nil
	}
}

// Action describes how an argument turns command line tokens into a value.
type Action int

const (
	// Store parses the flag value as the argument Type.
	Store Action = iota

	// StoreConst takes no value on the command line and
	// stores ArgumentSpec.Const when the flag is given.
	StoreConst

	// StoreTrue is StoreConst with Const true and Default false.
	StoreTrue

	// StoreFalse is StoreConst with Const false and Default true.
	StoreFalse
)

// ArgumentSpec describes one command line flag and config file key.
type ArgumentSpec struct {
	// Name is the long flag name, e.g. "batch-size".
	Name string

	// Shorthand is an optional one letter flag, e.g. "b".
	Shorthand string

	// Dest is the key the value is stored under. It defaults
	// to Name with dashes replaced by underscores.
	Dest string

	Usage  string
	Type   Type
	Action Action
	Const  any

	// Default is used when the flag is not given on the command
	// line. A nil Default leaves the argument unset.
	Default any

	// Required arguments must be set on the command line or by the
	// config file. It is ignored for members of a MutexGroup.
	Required bool
}

const standalone = -1

type argument struct {
	ArgumentSpec

	// group is the index of the owning MutexGroup, or standalone.
	group int
}

func newArgument(spec ArgumentSpec, group int) (*argument, error) {
	spec.Name = strings.TrimLeft(strings.TrimSpace(spec.Name), "-")
	spec.Shorthand = strings.TrimLeft(strings.TrimSpace(spec.Shorthand), "-")
	if spec.Name == "" {
		return nil, ErrEmptyArgumentName
	}
	if len(spec.Shorthand) > 1 {
		return nil, InvalidShorthandError{Name: spec.Name, Shorthand: spec.Shorthand}
	}
	if spec.Dest == "" {
		spec.Dest = strings.ReplaceAll(spec.Name, "-", "_")
	}

	switch spec.Action {
	case Store:
		if spec.Type.reflectType() == nil {
			return nil, UnsupportedTypeError{Name: spec.Name, Type: spec.Type}
		}
		def, err := config.Coerce(spec.Default, spec.Type.reflectType())
		if err != nil {
			return nil, InvalidDefaultError{Name: spec.Name, Cause: err}
		}
		spec.Default = def
	case StoreConst:
	case StoreTrue:
		spec.Type = Bool
		spec.Const = true
		if spec.Default == nil {
			spec.Default = false
		}
	case StoreFalse:
		spec.Type = Bool
		spec.Const = false
		if spec.Default == nil {
			spec.Default = true
		}
	default:
		return nil, UnsupportedActionError{Name: spec.Name, Action: spec.Action}
	}

	if group != standalone {
		spec.Required = false
	}
	a := &argument{
		ArgumentSpec: spec,
		group:        group,
	}
	return a, nil
}

func (a *argument) isConst() bool {
	return a.Action != Store
}

// storedType is the type config values for a are coerced to.
func (a *argument) storedType() reflect.Type {
	if !a.isConst() {
		return a.Type.reflectType()
	}
	if a.Const != nil {
		return reflect.TypeOf(a.Const)
	}
	return nil
}

func (a *argument) define(fs *pflag.FlagSet) {
	if a.isConst() {
		fs.BoolP(a.Name, a.Shorthand, false, a.Usage)
		return
	}

	switch a.Type {
	case String:
		def, _ := a.Default.(string)
		fs.StringP(a.Name, a.Shorthand, def, a.Usage)
	case Int:
		def, _ := a.Default.(int)
		fs.IntP(a.Name, a.Shorthand, def, a.Usage)
	case Float64:
		def, _ := a.Default.(float64)
		fs.Float64P(a.Name, a.Shorthand, def, a.Usage)
	case Bool:
		def, _ := a.Default.(bool)
		fs.BoolP(a.Name, a.Shorthand, def, a.Usage)
	case Duration:
		def, _ := a.Default.(time.Duration)
		fs.DurationP(a.Name, a.Shorthand, def, a.Usage)
	}
}

// value returns the argument value after fs has parsed the command line.
// Flags which were not given resolve to the Default.
func (a *argument) value(fs *pflag.FlagSet) (any, error) {
	if !fs.Changed(a.Name) {
		return a.Default, nil
	}

	if a.isConst() {
		on, err := fs.GetBool(a.Name)
		if err != nil {
			return nil, err
		}
		if !on {
			return a.Default, nil
		}
		return a.Const, nil
	}

	switch a.Type {
	case String:
		return box(fs.GetString(a.Name))
	case Int:
		return box(fs.GetInt(a.Name))
	case Float64:
		return box(fs.GetFloat64(a.Name))
	case Bool:
		return box(fs.GetBool(a.Name))
	case Duration:
		return box(fs.GetDuration(a.Name))
	default:
		return nil, UnsupportedTypeError{Name: a.Name, Type: a.Type}
	}
}

func box[T any](v T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}
