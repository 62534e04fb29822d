// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package persistarg

import (
	"context"
	"errors"

	"github.com/z5labs/persistarg/internal/try"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RunFunc is called with the parsed arguments of a Command.
type RunFunc func(context.Context, *Args) error

// Command returns a cobra.Command which parses its arguments with p
// and passes them to run. Flag parsing is left to p so that config
// files are merged before requirements are checked; cobra is only
// used for help output and execution. Arguments registered with p
// after Command is called still show up in help and usage output.
func (p *Parser) Command(run RunFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:                p.name,
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, tokens []string) (err error) {
			defer try.Recover(&err)

			args, err := p.Parse(cmd.Context(), tokens)
			if errors.Is(err, pflag.ErrHelp) {
				return cmd.Help()
			}
			if err != nil {
				return err
			}
			return run(cmd.Context(), args)
		},
	}
	p.syncFlags(cmd)

	help := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, a []string) {
		p.syncFlags(c)
		help(c, a)
	})
	usage := cmd.UsageFunc()
	cmd.SetUsageFunc(func(c *cobra.Command) error {
		p.syncFlags(c)
		return usage(c)
	})
	return cmd
}

// syncFlags adds every argument registered with p which cmd does not know yet.
func (p *Parser) syncFlags(cmd *cobra.Command) {
	cmd.Flags().AddFlagSet(p.flagSet())
}
