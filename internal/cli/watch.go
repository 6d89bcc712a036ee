package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c0deZ3R0/go-cart-kit/cartkit"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the engine and print every state transition",
		Long: `Run the synchronization engine in the foreground with the periodic
count refresh enabled, printing each published state until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(opts.cfg)
			if err != nil {
				return err
			}
			defer s.close()

			out := cmd.OutOrStdout()
			cancel := s.engine.Subscribe(func(st cartkit.State) {
				if err := PrintState(out, opts.Format, st); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "render:", err)
				}
			})
			defer cancel()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := s.start(ctx); err != nil {
				return WrapExitError(ExitFailure, "starting engine", err)
			}

			<-ctx.Done()
			return nil
		},
	}
}
