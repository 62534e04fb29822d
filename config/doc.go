// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config reads and writes persisted argument snapshots.
//
// A Snapshot is a flat mapping from argument destination name to value. A Codec
// converts a Snapshot to and from its textual form. YAML is the default format,
// JSON and TOML are selected by file extension:
//
//	codec, ok := config.CodecFor("configs/run.toml")
//	if !ok {
//	    codec = config.Yaml{}
//	}
//	snap, err := config.Read(config.OS{}, "configs/run.toml", codec)
//
// Values read back from a file keep whatever type the format decoded them as.
// Use Coerce to convert them to the type an argument expects.
package config
