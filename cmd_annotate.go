package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"xmlannotator/internal/annotator"
	"xmlannotator/internal/config"
	"xmlannotator/internal/console"
	"xmlannotator/internal/erruser"
	"xmlannotator/internal/git"
	"xmlannotator/internal/history"
	"xmlannotator/internal/host"
	"xmlannotator/internal/summary"
)

type annotateOptions struct {
	summary bool
	json    bool
	export  string
	top     int
}

func newAnnotateCmd(a *app) *cobra.Command {
	var opts annotateOptions
	cmd := &cobra.Command{
		Use:   "annotate REPORT",
		Short: "Highlight every line a report points at and print them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnnotate(cmd, args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "print a per-file summary table")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print highlights as JSON")
	cmd.Flags().StringVar(&opts.export, "export", "", "write CSV exports to this directory")
	cmd.Flags().IntVar(&opts.top, "top", 0, "rows in the summary table (0 = config summary_top)")
	return cmd
}

//nolint:errcheck // terminal output
func (a *app) runAnnotate(cmd *cobra.Command, reportPath string, opts annotateOptions) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	quiet := a.quiet || opts.json
	h := console.New(a.stdout, a.stderr,
		console.WithQuiet(quiet),
		console.WithWidth(console.TerminalWidth(os.Stdout)))
	if _, err := h.Open(reportPath); err != nil {
		return erruser.New(fmt.Sprintf("Could not open %s.", reportPath), err)
	}
	if cfg.Resolve.Base == config.BaseGit {
		if err := git.ValidateRepository(filepath.Dir(reportPath)); err != nil {
			a.log.Debug("git base unavailable", "err", err)
			h.Notify(host.LevelWarning, fmt.Sprintf(
				"%s is not inside a git work tree; resolving files %d directories above it.",
				reportPath, cfg.Resolve.AncestorDepth))
		}
	}

	ctrlOpts := []annotator.Option{annotator.WithLogger(a.log)}
	var finish func()
	if cfg.ShowProgress && !quiet && console.IsTerminal(os.Stderr) {
		var progress annotator.ProgressFunc
		progress, finish = console.Progress(a.stderr)
		ctrlOpts = append(ctrlOpts, annotator.WithProgress(progress))
		h.HoldNotices(true)
	}

	ctrl, err := annotator.New(h, cfg, ctrlOpts...)
	if err != nil {
		return erruser.New("Invalid style configuration.", err)
	}
	res, err := ctrl.AnnotateFiles(ctx)
	if finish != nil {
		finish()
		h.HoldNotices(false)
		h.FlushNotices()
	}
	switch {
	case err != nil && ctx.Err() != nil:
		a.log.Debug("annotate interrupted", "err", err)
		return erruser.New("Interrupted.", err)
	case err != nil:
		return errExit(1)
	}

	cwd, _ := os.Getwd()
	rel := relativeTo(cwd)
	if opts.json {
		if err := h.WriteJSON(rel); err != nil {
			return erruser.New("Could not write JSON output.", err)
		}
	} else {
		h.PrintRegions(rel)
	}

	top := cfg.SummaryTop
	if opts.top > 0 {
		top = opts.top
	}
	entries := summary.GenerateFileSummary(summary.CollectStats(ctrl.Store()), top)
	for i := range entries {
		entries[i].Path = rel(entries[i].Path)
	}
	if opts.summary && !opts.json {
		fmt.Fprintln(a.stdout)
		summary.PrintFileSummary(a.stdout, entries, nil)
	}

	if cfg.ExportDir != "" {
		now := time.Now()
		path, err := history.WriteAnnotationsCSV(cfg.ExportDir, h.Annotations(rel), now)
		if err != nil {
			return erruser.New("Could not export annotations.", err)
		}
		if _, err := history.WriteFileSummaryCSV(cfg.ExportDir, entries, now); err != nil {
			return erruser.New("Could not export the file summary.", err)
		}
		if !quiet {
			fmt.Fprintf(a.stderr, "%s Annotations exported to %s\n", color.GreenString("✓"), path)
		}
	}

	if len(res.Failed()) > 0 {
		return errExit(1)
	}
	return nil
}
