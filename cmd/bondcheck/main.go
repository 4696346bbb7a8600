// Command bondcheck checks prize bond numbers against a draw result, either
// through a local web page (serve) or once from the command line (check).
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/JonMunkholm/bondcheck/internal/core"
	_ "github.com/JonMunkholm/bondcheck/internal/core/readers" // Register all readers
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorText(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:   "bondcheck",
		Short: "Check your prize bonds against a draw result",
		Long: `bondcheck loads your bond numbers from a CSV or Excel file and the winning
numbers from a draw result (text, HTML, CSV or Excel), then lists the bonds
that won.

Run without a subcommand to start the web page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	root.AddCommand(serve, newCheckCmd())
	return root
}

// errorText formats a command error for stderr. Load failures get a second
// line with the code and suggested action, and a third with the cause.
func errorText(err error) string {
	text := "Error: " + err.Error()

	var ue *core.UserError
	if errors.As(err, &ue) {
		text += "\n  " + core.FormatUserError(ue.Technical) +
			"\n  cause: " + ue.Technical.Error()
	}
	return text
}
