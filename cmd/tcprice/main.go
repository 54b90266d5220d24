// tcprice scales Telecrystal prices in YAML prototype files.
//
// Usage:
//
//	tcprice [options] <root-directory> <multiplier>
//	tcprice --rounding round Resources/Prototypes 1.5
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/urfave/cli/v2"

	"tcprice/internal/pricing"
	"tcprice/internal/scaler"
	"tcprice/internal/walker"
	tcerrors "tcprice/pkg/errors"
	"tcprice/pkg/platform"
)

var (
	version = "dev"
	commit  = "none"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitFailure = 1
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	if err := app.RunContext(ctx, args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitFailure
	}
	return ExitSuccess
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "tcprice",
		Usage:     "Scale every \"Telecrystal: <n>\" price under a directory tree",
		UsageText: "tcprice [options] <root-directory> <multiplier>",
		Version:   fmt.Sprintf("%s (commit: %s)", version, commit),
		Writer:    stdout,
		ErrWriter: stderr,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "rounding",
				Value: pricing.RoundFloor.String(),
				Usage: "How fractional results become integers (floor, round, ceil)",
			},
			&cli.StringFlag{
				Name:  "key",
				Value: scaler.DefaultKey,
				Usage: "Literal text that precedes each price",
			},
			&cli.StringSliceFlag{
				Name:  "ext",
				Usage: "File extension to scan, repeatable (default: .yml, .yaml)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{platform.EnvLogLevel},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "console",
				Usage:   "Log format (console, json)",
				EnvVars: []string{platform.EnvLogFormat},
			},
		},

		Action: runScale,
		// Errors are reported once by run; keep urfave from calling os.Exit.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func runScale(c *cli.Context) error {
	if c.NArg() != 2 {
		_ = cli.ShowAppHelp(c)
		return tcerrors.New(tcerrors.ErrCodeUsage, tcerrors.SeverityFatal,
			"expected <root-directory> <multiplier>, got %d argument(s)", c.NArg())
	}
	root, rawMultiplier := c.Args().Get(0), c.Args().Get(1)

	logger, err := platform.InitLogger(c.App.ErrWriter, platform.LogConfig{
		Level:  c.String("log-level"),
		Format: c.String("log-format"),
	})
	if err != nil {
		return err
	}

	multiplier, err := pricing.ParseMultiplier(rawMultiplier)
	if err != nil {
		return fmt.Errorf("invalid multiplier: %w", err)
	}
	rounding, err := pricing.ParseRounding(c.String("rounding"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Multiplier = %s\n", multiplier.String())

	if err := walker.CheckRoot(root); err != nil {
		return err
	}

	s, err := scaler.New(scaler.Options{
		Key:        c.String("key"),
		Multiplier: multiplier,
		Rounding:   rounding,
	})
	if err != nil {
		return err
	}

	w := walker.New(s)
	if exts := c.StringSlice("ext"); len(exts) > 0 {
		w.Extensions = normalizeExtensions(exts)
	}
	w.Logger = logger
	w.OnUpdate = func(res scaler.Result) {
		fmt.Fprintf(c.App.Writer, "Updated: %s\n", res.Path)
	}

	logger.Debug().
		Str("root", root).
		Str("key", s.Key()).
		Str("multiplier", multiplier.String()).
		Str("rounding", rounding.String()).
		Strs("extensions", w.Extensions).
		Msg("Starting walk")

	sum, err := w.Walk(c.Context, root)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("interrupted after %d file(s): %w", sum.Scanned, err)
		}
		return err
	}

	fmt.Fprintf(c.App.Writer, "Scanned %d file(s), updated %d (%d price(s)), %d failed\n",
		sum.Scanned, sum.Updated, sum.Replacements, len(sum.Failures))
	return nil
}

// normalizeExtensions accepts "yml" as well as ".yml".
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
