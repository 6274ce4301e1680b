// Package annotator wires report parsing, path resolution and highlight
// computation to a host, and keeps the decoration store in step with the
// host's focus and edit events.
package annotator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"xmlannotator/internal/config"
	"xmlannotator/internal/decor"
	"xmlannotator/internal/erruser"
	"xmlannotator/internal/highlight"
	"xmlannotator/internal/host"
	"xmlannotator/internal/report"
	"xmlannotator/internal/resolve"
	"xmlannotator/internal/types"
)

// ErrNoActiveDocument is returned by commands invoked with nothing focused.
var ErrNoActiveDocument = errors.New("no active document")

// FileResult describes what happened to one report entry.
type FileResult struct {
	Name    string
	Path    string
	Regions int
	// Skipped counts records pointing past the end of the file.
	Skipped int
	// Invalid counts report entries dropped for an unusable line attribute.
	Invalid int
	Ignored bool
	Err     error
}

// Result is the outcome of one AnnotateFiles run.
type Result struct {
	Report *report.Report
	Files  []FileResult
}

// Applied returns the entries whose regions were stored.
func (r *Result) Applied() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err == nil && !f.Ignored {
			out = append(out, f)
		}
	}
	return out
}

// Failed returns the entries that could not be processed.
func (r *Result) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// ProgressFunc is called after each report entry with its 1-based position.
type ProgressFunc func(done, total int, res FileResult)

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func WithResolver(r *resolve.Resolver) Option {
	return func(c *Controller) { c.resolver = r }
}

func WithProgress(fn ProgressFunc) Option {
	return func(c *Controller) { c.progress = fn }
}

// Controller owns the decoration store of one host. Its methods must be
// called from the host's event goroutine.
type Controller struct {
	host     host.Host
	cfg      *config.Config
	store    *decor.Store
	resolver *resolve.Resolver
	palette  highlight.Palette
	progress ProgressFunc
	log      *slog.Logger
}

// New builds a controller for h. It fails when cfg carries invalid style overrides.
func New(h host.Host, cfg *config.Config, opts ...Option) (*Controller, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	palette, err := paletteFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	c := &Controller{
		host:    h,
		cfg:     cfg,
		store:   decor.New(h, h),
		palette: palette,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.resolver == nil {
		c.resolver = resolve.New(cfg.Resolve)
	}
	return c, nil
}

func paletteFromConfig(cfg *config.Config) (highlight.Palette, error) {
	p := highlight.DefaultPalette()
	for name, sc := range cfg.Styles {
		var err error
		p, err = p.Override(types.ParseSeverity(name), types.Style{Fill: sc.Fill, Border: sc.Border})
		if err != nil {
			return p, fmt.Errorf("styles.%s: %w", name, err)
		}
	}
	return p, nil
}

// Store exposes the decoration store for summaries and exports.
func (c *Controller) Store() *decor.Store {
	return c.store
}

// AnnotateFiles treats the focused document as a report and highlights every
// file it lists. Parse failures abort the command; a file that cannot be
// opened or placed is reported and skipped.
func (c *Controller) AnnotateFiles(ctx context.Context) (*Result, error) {
	doc := c.host.ActiveDocument()
	if doc == nil {
		return nil, c.fail(erruser.New("No active editor detected.", ErrNoActiveDocument))
	}
	reportPath := doc.Path()

	data, err := c.host.ReadFile(reportPath)
	if err != nil {
		return nil, c.fail(erruser.New(fmt.Sprintf("Failed to read %s.", reportPath), err))
	}
	rep, err := report.Parse(data)
	switch {
	case errors.Is(err, report.ErrEmptyReport):
		return nil, c.fail(erruser.New("No files found in XML.", err))
	case err != nil:
		return nil, c.fail(erruser.New("Failed to parse XML.", err))
	}
	rep.Path = reportPath
	for _, w := range rep.Warnings {
		c.log.Warn("skipping report entry", "report", reportPath, "detail", w)
	}

	res := &Result{Report: rep, Files: make([]FileResult, 0, len(rep.Files))}
	for i, entry := range rep.Files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		fr := c.annotateEntry(ctx, reportPath, entry)
		res.Files = append(res.Files, fr)
		if c.progress != nil {
			c.progress(i+1, len(rep.Files), fr)
		}
	}

	applied, failed := len(res.Applied()), len(res.Failed())
	dropped := 0
	for _, f := range res.Applied() {
		dropped += f.Skipped + f.Invalid
	}
	c.log.Info("annotated report", "report", reportPath, "records", rep.ErrorCount(),
		"applied", applied, "failed", failed, "dropped", dropped)

	msg := fmt.Sprintf("Annotated %d file(s)", applied)
	if failed > 0 {
		msg += fmt.Sprintf(", %d failed", failed)
	}
	if dropped > 0 {
		msg += fmt.Sprintf(", %d error entries not shown", dropped)
	}
	if failed == 0 && dropped == 0 {
		c.host.Notify(host.LevelInfo, msg+".")
	} else {
		c.host.Notify(host.LevelWarning, msg+".")
	}
	return res, nil
}

func (c *Controller) annotateEntry(ctx context.Context, reportPath string, entry types.FileEntry) FileResult {
	fr := FileResult{Name: entry.Name, Path: c.resolver.Resolve(reportPath, entry.Name)}
	if c.cfg.ShouldIgnoreFile(entry.Name) {
		fr.Ignored = true
		c.log.Debug("ignoring report entry", "file", entry.Name)
		return fr
	}

	doc, err := c.resolver.Open(ctx, c.host, reportPath, entry.Name, fr.Path)
	if err != nil {
		fr.Err = err
		c.notifyFileError(entry.Name, err)
		return fr
	}
	fr.Path = doc.Path()

	if entry.InvalidLines > 0 {
		fr.Invalid = entry.InvalidLines
		c.host.Notify(host.LevelWarning, invalidLinesNotice(entry.Name, entry.InvalidLines))
	}

	regions, errs := highlight.ComputeAll(entry, doc, c.palette)
	for _, e := range errs {
		c.log.Warn("record not placed", "file", entry.Name, "err", e)
	}
	if len(errs) > 0 {
		c.host.Notify(host.LevelWarning,
			fmt.Sprintf("%s: %d of %d errors point past the end of the file.", entry.Name, len(errs), len(entry.Errors)))
	}
	fr.Regions = len(regions)
	fr.Skipped = len(errs)

	c.store.Apply(doc.ID(), regions)
	return fr
}

func invalidLinesNotice(name string, n int) string {
	if n == 1 {
		return fmt.Sprintf("%s: 1 error entry has an invalid line.", name)
	}
	return fmt.Sprintf("%s: %d error entries have an invalid line.", name, n)
}

func (c *Controller) notifyFileError(name string, err error) {
	cause := err
	var rerr *resolve.FileResolutionError
	if errors.As(err, &rerr) {
		cause = rerr.Err
	}
	msg := fmt.Sprintf("Failed to process file: %s. Error: %v", name, cause)
	if rerr != nil && rerr.Suggestion != "" {
		msg += fmt.Sprintf(" Did you mean %s?", rerr.Suggestion)
	}
	c.log.Warn("file not annotated", "file", name, "err", err)
	c.host.Notify(host.LevelError, msg)
}

// RemoveDecorations clears the highlights of the focused document.
func (c *Controller) RemoveDecorations() error {
	doc := c.host.ActiveDocument()
	if doc == nil {
		return c.fail(erruser.New("No active editor detected.", ErrNoActiveDocument))
	}
	if c.store.Clear(doc.ID()) {
		c.host.Notify(host.LevelInfo, "Decorations removed.")
	} else {
		c.host.Notify(host.LevelInfo, "No decorations to remove.")
	}
	return nil
}

// OnActiveDocumentChanged redraws the stored highlights of a newly focused document.
func (c *Controller) OnActiveDocumentChanged(doc host.Document) {
	if doc == nil {
		return
	}
	if c.store.Reapply(doc.ID()) {
		c.log.Debug("reapplied highlights", "file", doc.Path())
	}
}

// OnDocumentChanged drops the highlights of the focused document on any
// edit: line positions cannot be trusted once the text moved.
func (c *Controller) OnDocumentChanged(doc host.Document) {
	active := c.host.ActiveDocument()
	if doc == nil || active == nil || active.ID() != doc.ID() {
		return
	}
	if c.store.Clear(doc.ID()) {
		c.log.Debug("highlights invalidated by edit", "file", doc.Path())
	}
}

func (c *Controller) fail(err error) error {
	c.log.Warn(erruser.Message(err), "err", errors.Unwrap(err))
	c.host.Notify(host.LevelError, erruser.Message(err))
	return err
}
