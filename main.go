package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"xmlannotator/internal/config"
	"xmlannotator/internal/erruser"
)

const VERSION = "1.0.0"
const PROJECT_NAME = "xmlannotator"

const LOGO_ART = `
   ┌──────────────────────────────┐
   │ <checkstyle>                 │
   │   <file name="main.go">   ▌  │
   │     <error line="42"/>    ▌  │
   │   </file>                    │
   │ </checkstyle>                │
   └──────────────────────────────┘
`

const MINI_MARK = "▌"

// errExit ends the process with the given code without printing anything
// more; the user has already been told what went wrong.
type errExit int

func (e errExit) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

// app carries the persistent flags and what is derived from them.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configFile    string
	color         string
	verbose       bool
	quiet         bool
	ancestorDepth int
	base          string

	log *slog.Logger
}

func main() {
	os.Exit(runCLI(os.Args[1:], os.Stdout, os.Stderr))
}

func runCLI(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		var exitErr errExit
		if errors.As(err, &exitErr) {
			return int(exitErr)
		}
		fmt.Fprintln(stderr, color.RedString("✗ %s", erruser.Message(err)))
		if u := errors.Unwrap(err); u != nil && a.verbose {
			fmt.Fprintf(stderr, "Details: %v\n", u)
		}
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           PROJECT_NAME,
		Short:         "Highlight the lines a checkstyle XML report points at",
		Long:          "xmlannotator reads a checkstyle-format XML report and highlights every reported line in the files it names.",
		Version:       VERSION,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupColor(a.color); err != nil {
				return err
			}
			a.log = newLogger(a.stderr, a.verbose)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.quiet {
				showLogo(a.stdout)
			}
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "path to configuration file")
	pf.StringVar(&a.color, "color", "auto", "colorize output (auto|on|off)")
	pf.BoolVar(&a.verbose, "verbose", false, "enable debug logging")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "suppress non-essential output")
	pf.IntVar(&a.ancestorDepth, "ancestor-depth", config.DefaultAncestorDepth, "directories above the report that file names are relative to")
	pf.StringVar(&a.base, "base", config.BaseAncestor, "resolution base: ancestor, report or git")

	rootCmd.AddCommand(newAnnotateCmd(a))
	rootCmd.AddCommand(newViewCmd(a))
	rootCmd.AddCommand(newInitConfigCmd(a))
	rootCmd.AddCommand(newShowConfigCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))
	return rootCmd
}

func setupColor(mode string) error {
	switch strings.ToLower(mode) {
	case "auto":
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return erruser.New("Invalid --color value; use auto, on or off.", fmt.Errorf("unknown color mode %q", mode))
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig loads the configuration file, then applies the flags the user
// actually set on the command line.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg  *config.Config
		used string
		err  error
	)
	if a.configFile != "" {
		used = a.configFile
		cfg, err = config.LoadConfigFromFile(a.configFile)
	} else {
		cfg, used, err = config.LoadConfig()
	}
	if err != nil {
		return nil, erruser.New("Could not load configuration.", err)
	}
	if used != "" {
		a.log.Debug("loaded config", "file", used)
	}

	var o config.Overrides
	if cmd.Flags().Changed("ancestor-depth") {
		o.AncestorDepth = &a.ancestorDepth
	}
	if cmd.Flags().Changed("base") {
		o.Base = &a.base
	}
	if f := cmd.Flags().Lookup("export"); f != nil && f.Changed {
		dir := f.Value.String()
		o.ExportDir = &dir
	}
	if err := cfg.Apply(o); err != nil {
		return nil, erruser.New("Invalid command-line option.", err)
	}
	return cfg, nil
}

// relativeTo returns a path rewriter that shortens paths below dir.
func relativeTo(dir string) func(string) string {
	return func(path string) string {
		if dir == "" {
			return path
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return path
		}
		return rel
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion(a.stdout)
			return nil
		},
	}
}

//nolint:errcheck // terminal output
func showLogo(w io.Writer) {
	fmt.Fprint(w, color.CyanString(LOGO_ART))
	fmt.Fprintln(w, color.New(color.Bold).Sprint("xmlannotator v"+VERSION))
	fmt.Fprintln(w, "Checkstyle reports, right where the code is")
}

//nolint:errcheck // terminal output
func showVersion(w io.Writer) {
	fmt.Fprintf(w, "%s %s v%s\n", color.RedString(MINI_MARK), PROJECT_NAME, VERSION)
	fmt.Fprintf(w, "Highlights the lines of a checkstyle XML report in the files it names\n")
}
