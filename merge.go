// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package persistarg

import (
	"context"
	"log/slog"
	"path/filepath"
	"reflect"

	"github.com/z5labs/persistarg/config"
)

// merge fills args with the values stored in the config file at path.
// Command line values win over stored ones, except for constant flags
// which were not toggled on. It reports whether the file no longer
// matches args and has to be written again.
func (p *Parser) merge(ctx context.Context, args *Args, path string) (bool, error) {
	codec, ok := config.CodecFor(path)
	if !ok {
		codec = p.codec
	}
	snap, err := config.Read(p.fsys, path, codec, p.tmplOpts...)
	if err != nil {
		return false, ConfigReadError{Path: path, Cause: err}
	}

	rewrite := false
	if !p.sameKeys(snap) {
		p.log.InfoContext(
			ctx,
			"the parsed arguments were not the same as the arguments provided in the config file, an updated config will be written",
			slog.String("config", path),
		)
		rewrite = true
	}

	for _, key := range snap.Keys() {
		a, ok := p.byDest[key]
		if !ok {
			rewrite = true
			continue
		}

		stored, err := storedValue(a, snap[key])
		if err != nil {
			return false, ConfigReadError{Path: path, Cause: err}
		}

		current, set := args.Get(key)
		switch {
		case !set:
			args.set(key, stored)
		case a.isConst() && !reflect.DeepEqual(current, a.Const):
			args.set(key, stored)
		case !reflect.DeepEqual(current, stored):
			p.log.InfoContext(
				ctx,
				"the argument set on the command line overwrites the value set in the config file, an updated config will be written",
				slog.String("argument", key),
				slog.String("config", path),
			)
			rewrite = true
		}
	}
	return rewrite, nil
}

func (p *Parser) sameKeys(snap config.Snapshot) bool {
	if len(snap) != len(p.byDest) {
		return false
	}
	for key := range snap {
		if _, ok := p.byDest[key]; !ok {
			return false
		}
	}
	return true
}

// storedValue converts a value decoded from a config file
// into the form the command line would have produced.
func storedValue(a *argument, v any) (any, error) {
	if a.Dest == ConfigDest {
		s, ok := v.(string)
		if !ok || s == "" {
			return v, nil
		}
		return filepath.Abs(s)
	}

	t := a.storedType()
	if t == nil {
		return v, nil
	}
	return config.Coerce(v, t)
}
