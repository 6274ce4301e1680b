package main

import (
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"xmlannotator/internal/erruser"
	"xmlannotator/internal/tui"
)

func newViewCmd(a *app) *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "view [FILES...]",
		Short: "Open files in the interactive viewer",
		Long: `Open files in a terminal editor. Focus a report and press ctrl+a to
highlight the files it names; ctrl+x removes the highlights of the focused file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runView(cmd, args, logFile)
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while the viewer runs")
	return cmd
}

func (a *app) runView(cmd *cobra.Command, paths []string, logFile string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	var logOut io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return erruser.New("Could not open the log file.", err)
		}
		defer f.Close()
		logOut = f
	}
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	m, err := tui.New(cmd.Context(), cfg, log)
	if err != nil {
		return erruser.New("Invalid style configuration.", err)
	}
	if err := m.Open(paths...); err != nil {
		return erruser.New("Could not open a file.", err)
	}

	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil {
		return erruser.New("The viewer stopped unexpectedly.", err)
	}
	return nil
}
