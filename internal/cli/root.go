// Package cli implements the cartctl command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/c0deZ3R0/go-cart-kit/config"
	"github.com/c0deZ3R0/go-cart-kit/logging"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
	Token      string
	Format     string // "json" | "text"
	Verbose    bool

	cfg config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for cartctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cartctl",
		Short: "cartctl - shopping cart client",
		Long: `A client for the cart service: fetch and mutate the server-side cart,
keep a durable local snapshot for offline fallback, and watch live state.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, "invalid format "+opts.Format+": must be one of text, json")
			}

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading configuration", err)
			}
			if opts.Token != "" {
				cfg.Token = opts.Token
			}
			if opts.Verbose {
				cfg.Logging.Level = "debug"
			}
			opts.cfg = cfg

			logging.Init(cfg.Logging)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file (YAML)")
	cmd.PersistentFlags().StringVarP(&opts.Token, "token", "t", "", "bearer token (overrides config and CART_TOKEN)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(NewFetchCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
