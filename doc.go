// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package persistarg parses command line flags and persists them to config files.
//
// Every Parser has a reserved -c/--config flag. When it is given, the config file
// is loaded and its values fill in any argument the command line left unset. A
// value given on the command line wins over the stored one, except for constant
// flags (StoreConst, StoreTrue, StoreFalse) which were not given: those take the
// stored value. Whenever the resulting arguments differ from the file, or no file
// was given at all, they are saved to a new file under configs/autosaved/ named
// after the current minute.
// Passing that file back with --config reproduces the same arguments.
//
// # Required arguments
//
// Requirements are checked after the config file has been merged, so a required
// argument may be supplied by either source:
//
//	p := persistarg.New(persistarg.Name("train"))
//	err := p.AddArgument(persistarg.ArgumentSpec{
//	    Name:     "batch-size",
//	    Type:     persistarg.Int,
//	    Required: true,
//	})
//
// Arguments added through a MutexGroup are mutually exclusive. A required group
// needs exactly one of its members to be set:
//
//	g := p.BeginMutexGroup(true)
//	err = g.AddArgument(persistarg.ArgumentSpec{Name: "train-data"})
//	err = g.AddArgument(persistarg.ArgumentSpec{Name: "resume-from"})
//
// # Errors
//
// Missing arguments, violated groups and malformed command lines are reported
// together as a single UsageError. ExitCode maps it to exit status 2.
package persistarg
