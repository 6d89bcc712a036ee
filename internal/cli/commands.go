package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/c0deZ3R0/go-cart-kit/cartkit"
)

// runOnce builds the stack without the background refresh, starts it,
// performs op, and prints the resulting state.
func runOnce(opts *RootOptions, cmd *cobra.Command, op func(context.Context, *cartkit.Engine) error) error {
	cfg := opts.cfg
	cfg.RefreshInterval = 0

	s, err := buildStack(cfg)
	if err != nil {
		return err
	}
	defer s.close()

	ctx := cmd.Context()
	if err := s.start(ctx); err != nil {
		return WrapExitError(ExitFailure, "starting engine", err)
	}

	if op != nil {
		if err := op(ctx, s.engine); err != nil {
			return WrapExitError(ExitFailure, "cart operation failed", err)
		}
	}

	return PrintState(cmd.OutOrStdout(), opts.Format, s.engine.GetState())
}

func parseProductID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, "invalid product id "+arg, err)
	}
	return id, nil
}

func parseQuantity(arg string) (int, error) {
	q, err := strconv.Atoi(arg)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, "invalid quantity "+arg, err)
	}
	return q, nil
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the cart and print it",
		Long: `Fetch the cart from the service. With a credential this contacts the
server; on failure, or without a credential, the durable local snapshot
is printed instead and marked as cached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(opts, cmd, nil)
		},
	}
}

// NewAddCommand creates the add command.
func NewAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <product-id> [quantity]",
		Short: "Add a product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			quantity := 1
			if len(args) == 2 {
				if quantity, err = parseQuantity(args[1]); err != nil {
					return err
				}
			}
			return runOnce(opts, cmd, func(ctx context.Context, e *cartkit.Engine) error {
				return e.Add(ctx, id, quantity)
			})
		},
	}
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			return runOnce(opts, cmd, func(ctx context.Context, e *cartkit.Engine) error {
				return e.Remove(ctx, id)
			})
		},
	}
}

// NewSetCommand creates the set command.
func NewSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set the quantity of a cart line",
		Long: `Set the quantity of an existing cart line. Quantity must be at least
one; use remove to drop a line entirely.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			quantity, err := parseQuantity(args[1])
			if err != nil {
				return err
			}
			return runOnce(opts, cmd, func(ctx context.Context, e *cartkit.Engine) error {
				return e.SetQuantity(ctx, id, quantity)
			})
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(opts, cmd, func(ctx context.Context, e *cartkit.Engine) error {
				return e.Clear(ctx)
			})
		},
	}
}
