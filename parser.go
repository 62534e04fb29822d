// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package persistarg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/z5labs/persistarg/config"

	"github.com/spf13/pflag"
)

// DefaultAutosaveDir is where new config files are written,
// relative to the working directory.
const DefaultAutosaveDir = "configs/autosaved"

// Option configures a Parser.
type Option func(*Parser)

// Name sets the program name shown in usage and error messages.
func Name(name string) Option {
	return func(p *Parser) {
		p.name = name
	}
}

// LogHandler configures the slog.Handler informational notices are written to.
func LogHandler(h slog.Handler) Option {
	return func(p *Parser) {
		p.log = slog.New(h)
	}
}

// Codec sets the format of autosaved config files. It is also used to
// read config files whose extension does not identify their format.
//
// Default is config.Yaml.
func Codec(c config.Codec) Option {
	return func(p *Parser) {
		p.codec = c
	}
}

// AutosaveDir sets the directory new config files are written to.
func AutosaveDir(dir string) Option {
	return func(p *Parser) {
		p.autosaveDir = dir
	}
}

// Clock sets the time source used to name autosaved config files.
func Clock(now func() time.Time) Option {
	return func(p *Parser) {
		p.now = now
	}
}

// FileSystem sets where config files are read from and written to.
func FileSystem(fsys config.FileSystem) Option {
	return func(p *Parser) {
		p.fsys = fsys
	}
}

// TemplateFunc renders config files as a text/template before they are
// decoded and makes f available to the template under the given name.
func TemplateFunc(name string, f any) Option {
	return func(p *Parser) {
		p.tmplOpts = append(p.tmplOpts, config.TemplateFunc(name, f))
	}
}

// Stderr sets where MustParse reports errors.
func Stderr(w io.Writer) Option {
	return func(p *Parser) {
		p.stderr = w
	}
}

// Parser parses command line arguments, merges them with a config
// file and persists the result as a new config file when they diverge.
type Parser struct {
	name        string
	log         *slog.Logger
	codec       config.Codec
	autosaveDir string
	now         func() time.Time
	fsys        config.FileSystem
	tmplOpts    []config.RenderTextTemplateOption
	stderr      io.Writer

	args   []*argument
	byDest map[string]*argument
	groups []*MutexGroup
}

// New returns a Parser with the reserved -c/--config argument registered.
func New(opts ...Option) *Parser {
	var name string
	if len(os.Args) > 0 {
		name = filepath.Base(os.Args[0])
	}
	p := &Parser{
		name:        name,
		log:         slog.New(slog.NewTextHandler(os.Stderr, nil)),
		codec:       config.Yaml{},
		autosaveDir: DefaultAutosaveDir,
		now:         time.Now,
		fsys:        config.OS{},
		stderr:      os.Stderr,
		byDest:      make(map[string]*argument),
	}
	for _, opt := range opts {
		opt(p)
	}

	_, err := p.register(ArgumentSpec{
		Name:      ConfigDest,
		Shorthand: "c",
		Usage:     "Path to the configuration file to read.",
		Type:      String,
	}, standalone)
	if err != nil {
		panic(err)
	}
	return p
}

// AddArgument registers a standalone argument.
func (p *Parser) AddArgument(spec ArgumentSpec) error {
	_, err := p.register(spec, standalone)
	return err
}

func (p *Parser) register(spec ArgumentSpec, group int) (*argument, error) {
	a, err := newArgument(spec, group)
	if err != nil {
		return nil, err
	}

	for _, other := range p.args {
		switch {
		case other.Name == a.Name:
			return nil, DuplicateArgumentError{Name: a.Name, Conflict: "--" + a.Name}
		case a.Shorthand != "" && other.Shorthand == a.Shorthand:
			return nil, DuplicateArgumentError{Name: a.Name, Conflict: "-" + a.Shorthand}
		case other.Dest == a.Dest:
			return nil, DuplicateArgumentError{Name: a.Name, Conflict: a.Dest}
		}
	}

	p.args = append(p.args, a)
	p.byDest[a.Dest] = a
	return a, nil
}

// Usage returns the usage text listing every registered flag.
func (p *Parser) Usage() string {
	return fmt.Sprintf("Usage: %s [flags]\n\nFlags:\n%s", p.name, p.flagSet().FlagUsages())
}

func (p *Parser) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(p.name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false
	for _, a := range p.args {
		a.define(fs)
	}
	return fs
}

// Parse parses tokens, merges the result with the config file given
// by -c/--config, validates required arguments and, if the values
// differ from what is on disk, saves them to a new config file.
//
// Parse returns a UsageError if the tokens can not be parsed or required
// arguments are missing, a ConfigReadError if the config file can not be
// loaded and a ConfigWriteError if the new config file can not be saved.
// An error wrapping pflag.ErrHelp is returned for -h/--help.
func (p *Parser) Parse(ctx context.Context, tokens []string) (*Args, error) {
	args, err := p.parseTokens(tokens)
	if err != nil {
		return nil, err
	}

	rewrite := true
	if path := strings.TrimSpace(args.Config()); path != "" {
		canonical, err := filepath.Abs(path)
		if err != nil {
			return nil, ConfigReadError{Path: path, Cause: err}
		}
		args.set(ConfigDest, canonical)

		rewrite, err = p.merge(ctx, args, canonical)
		if err != nil {
			return nil, err
		}
	} else {
		args.set(ConfigDest, nil)
		p.log.InfoContext(
			ctx,
			"no config file was provided, the command line arguments will be exported to a new one if they are valid",
		)
	}

	err = p.validate(args)
	if err != nil {
		return nil, err
	}

	if rewrite {
		err = p.autosave(ctx, args)
		if err != nil {
			return nil, err
		}
	}
	return args, nil
}

func (p *Parser) parseTokens(tokens []string) (*Args, error) {
	fs := p.flagSet()
	err := fs.Parse(tokens)
	if errors.Is(err, pflag.ErrHelp) {
		return nil, err
	}
	if err != nil {
		return nil, UsageError{Cause: err}
	}
	if fs.NArg() > 0 {
		return nil, UsageError{
			Cause: fmt.Errorf("unrecognized arguments: %s", strings.Join(fs.Args(), " ")),
		}
	}

	for _, g := range p.groups {
		var given []string
		for _, m := range g.members {
			if fs.Changed(m.Name) {
				given = append(given, "--"+m.Name)
			}
		}
		if len(given) > 1 {
			return nil, UsageError{
				Cause: fmt.Errorf("argument %s: not allowed with argument %s", given[1], given[0]),
			}
		}
	}

	args := newArgs(len(p.args))
	for _, a := range p.args {
		v, err := a.value(fs)
		if err != nil {
			return nil, UsageError{Cause: err}
		}
		args.set(a.Dest, v)
	}
	return args, nil
}

var exit = os.Exit

// MustParse calls Parse and terminates the process if it fails. Usage
// errors print the usage text and exit with status 2, help requests
// print the usage text and exit with status 0.
func (p *Parser) MustParse(ctx context.Context, tokens []string) *Args {
	args, err := p.Parse(ctx, tokens)
	if err == nil {
		return args
	}

	code := ExitCode(err)
	switch {
	case errors.Is(err, pflag.ErrHelp):
		fmt.Fprint(p.stderr, p.Usage())
	case code == 2:
		fmt.Fprint(p.stderr, p.Usage())
		fmt.Fprintf(p.stderr, "%s: error: %s\n", p.name, err)
	default:
		fmt.Fprintf(p.stderr, "%s: error: %s\n", p.name, err)
	}
	exit(code)
	return nil
}
