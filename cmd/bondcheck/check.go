package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/bondcheck/internal/core"
	"github.com/JonMunkholm/bondcheck/internal/core/readers"
	"github.com/JonMunkholm/bondcheck/internal/logging"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type checkOptions struct {
	mine     string
	winning  string
	label    string
	format   string
	logLevel string

	// stdin is read when winning is "-".
	stdin io.Reader
}

// stdinPath reads the winning numbers as text from standard input.
const stdinPath = "-"

func newCheckCmd() *cobra.Command {
	opts := checkOptions{}

	cmd := &cobra.Command{
		Use:   "check --mine FILE --winning FILE|-",
		Short: "Check a bond list against a draw result and print the winners",
		Example: `  bondcheck check --mine my-bonds.xlsx --winning draw-result.txt
  bondcheck check --mine my-bonds.csv --winning draw.html --format csv > winners.csv
  pdftotext draw.pdf - | bondcheck check --mine my-bonds.xlsx --winning -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(cmd.ErrOrStderr(), opts.logLevel, "text")
			opts.stdin = cmd.InOrStdin()
			return runCheck(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.mine, "mine", "", "your bonds (.csv, .xlsx, .xls)")
	f.StringVar(&opts.winning, "winning", "", "winning numbers (.txt, .html, .csv, .xlsx, .xls, or - for text on stdin)")
	f.StringVar(&opts.label, "label", core.DefaultPrizeLabel, "prize label attached to every match")
	f.StringVar(&opts.format, "format", formatTable, "output format: table, csv or json")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
	_ = cmd.MarkFlagRequired("mine")
	_ = cmd.MarkFlagRequired("winning")

	return cmd
}

// runCheck reads both files concurrently, matches them and renders the result.
// Finding no winners is not an error.
func runCheck(ctx context.Context, out io.Writer, opts checkOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !validFormat(opts.format) {
		return fmt.Errorf("unknown format %q (want table, csv or json)", opts.format)
	}

	var own, winning []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tokens, err := readList(gctx, core.CategoryOwn, opts.mine, opts.stdin)
		own = tokens
		return err
	})
	g.Go(func() error {
		tokens, err := readList(gctx, core.CategoryWinning, opts.winning, opts.stdin)
		winning = tokens
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	matches := core.Match(core.ToIdentifiers(own), core.ToWinningEntries(winning, opts.label))

	logging.FromContext(ctx).Info("bonds checked",
		"own", len(own),
		"winning", len(winning),
		"matches", len(matches),
	)
	return render(out, opts.format, matches)
}

// readList loads one list. Load failures are returned as *core.UserError so
// main can print the message, code and suggested action.
func readList(ctx context.Context, c core.Category, path string, stdin io.Reader) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tokens []string
	var err error
	switch {
	case path == stdinPath && c == core.CategoryWinning:
		if stdin == nil {
			stdin = os.Stdin
		}
		tokens, err = readers.ReadPattern(stdin)
	case path == stdinPath:
		err = fmt.Errorf("%w: only the winning numbers can be read from stdin", core.ErrUnsupportedFormat)
	default:
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, fmt.Errorf("%s: %w", c.Label(), statErr)
		}
		tokens, err = readers.ReadFile(c, path)
	}
	if err != nil {
		logging.WithFields(ctx, "category", string(c), "file", path).Error("load failed", "error", err)
		return nil, fmt.Errorf("%s %s: %w", c.Label(), path, core.NewUserError(err))
	}
	return tokens, nil
}
