package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/c0deZ3R0/go-cart-kit/cartkit"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // successful execution
	ExitFailure      = 1 // operation failed (network, auth, server rejection)
	ExitCommandError = 2 // command error (bad flags, unreadable config)
)

// ExitError carries a specific exit code out of a command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Non-ExitError values
// map to ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// PrintState renders an engine state in the selected format.
func PrintState(w io.Writer, format string, st cartkit.State) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	switch st.Provenance {
	case cartkit.FromCacheFallback:
		fmt.Fprintln(w, "cart (cached snapshot, may be stale):")
	case cartkit.FromServer:
		fmt.Fprintln(w, "cart:")
	default:
		fmt.Fprintln(w, "cart (empty):")
	}

	if len(st.Cart.Items) == 0 {
		fmt.Fprintln(w, "  no items")
	}
	for _, item := range st.Cart.Items {
		fmt.Fprintf(w, "  %-8d %-30s x%-4d %10.2f\n",
			item.ProductID, item.ProductName, item.Quantity, item.Price)
	}
	fmt.Fprintf(w, "total items: %d", st.Cart.TotalItems)
	if st.Cart.TotalPrice > 0 {
		fmt.Fprintf(w, "   total price: %.2f", st.Cart.TotalPrice)
	}
	fmt.Fprintln(w)
	return nil
}
