// Package console is a headless host that opens documents from disk and
// prints the highlighted lines once a command has finished.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"xmlannotator/internal/annotator"
	"xmlannotator/internal/highlight"
	"xmlannotator/internal/host"
	"xmlannotator/internal/types"
)

const defaultWidth = 120

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	otherColor   = color.New(color.FgBlue, color.Bold)
	pathColor    = color.New(color.FgCyan)
	sourceColor  = color.New(color.Faint)
)

type drawing struct {
	doc     host.Document
	regions []types.HighlightRegion
}

// Host implements host.Host for one non-interactive run. Unlike an editor it
// keeps every drawing when focus moves on, so the whole run can be printed.
type Host struct {
	out    io.Writer
	errOut io.Writer
	quiet  bool
	width  int

	docs   map[string]*host.Buffer
	active *host.Buffer
	drawn  map[string]drawing
	order  []string
	styles int

	holdNotices bool
	held        []string
}

type Option func(*Host)

// WithQuiet hides info notices.
func WithQuiet(q bool) Option {
	return func(h *Host) { h.quiet = q }
}

// WithWidth sets the column limit for printed source lines.
func WithWidth(w int) Option {
	return func(h *Host) {
		if w > 0 {
			h.width = w
		}
	}
}

func New(out, errOut io.Writer, opts ...Option) *Host {
	h := &Host{
		out:    out,
		errOut: errOut,
		width:  defaultWidth,
		docs:   make(map[string]*host.Buffer),
		drawn:  make(map[string]drawing),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of f, or 0 when it is not a terminal.
func TerminalWidth(f *os.File) int {
	if !IsTerminal(f) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// Open loads path and focuses it.
func (h *Host) Open(path string) (host.Document, error) {
	return h.OpenDocument(context.Background(), path)
}

func (h *Host) ActiveDocument() host.Document {
	if h.active == nil {
		return nil
	}
	return h.active
}

func (h *Host) OpenDocument(ctx context.Context, path string) (host.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := host.FileID(path)
	b, ok := h.docs[id]
	if !ok {
		loaded, err := host.LoadBuffer(path)
		if err != nil {
			return nil, err
		}
		b = loaded
		h.docs[id] = b
	}
	h.active = b
	return b, nil
}

func (h *Host) ReadFile(path string) ([]byte, error) {
	if b, ok := h.docs[host.FileID(path)]; ok {
		return []byte(b.Text()), nil
	}
	return os.ReadFile(path)
}

func (h *Host) CreateStyle() *host.StyleHandle {
	h.styles++
	return &host.StyleHandle{ID: h.styles}
}

func (h *Host) Render(doc host.Document, _ *host.StyleHandle, regions []types.HighlightRegion) {
	id := doc.ID()
	if len(regions) == 0 {
		if _, ok := h.drawn[id]; ok {
			delete(h.drawn, id)
			h.order = remove(h.order, id)
		}
		return
	}
	if _, ok := h.drawn[id]; !ok {
		h.order = append(h.order, id)
	}
	h.drawn[id] = drawing{doc: doc, regions: append([]types.HighlightRegion(nil), regions...)}
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// HoldNotices queues notices until FlushNotices, so they do not tear a
// progress bar apart.
func (h *Host) HoldNotices(hold bool) {
	h.holdNotices = hold
}

//nolint:errcheck // terminal output
func (h *Host) FlushNotices() {
	for _, line := range h.held {
		fmt.Fprintln(h.errOut, line)
	}
	h.held = nil
}

func (h *Host) Notify(level host.Level, msg string) {
	var line string
	switch level {
	case host.LevelError:
		line = color.RedString("✗ %s", msg)
	case host.LevelWarning:
		line = color.YellowString("! %s", msg)
	default:
		if h.quiet {
			return
		}
		line = color.GreenString("✓ %s", msg)
	}
	if h.holdNotices {
		h.held = append(h.held, line)
		return
	}
	fmt.Fprintln(h.errOut, line) //nolint:errcheck
}

// Progress returns a progress callback drawing a bar on w. The bar is sized
// on the first call, once the number of report entries is known.
func Progress(w io.Writer) (annotator.ProgressFunc, func()) {
	var bar *progressbar.ProgressBar
	fn := func(done, total int, res annotator.FileResult) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetDescription("Annotating"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		bar.Describe(filepath.Base(res.Name))
		_ = bar.Set(done)
	}
	finish := func() {
		if bar != nil {
			_ = bar.Finish()
		}
	}
	return fn, finish
}

func severityColor(sev types.Severity) *color.Color {
	switch sev {
	case types.SeverityError:
		return errorColor
	case types.SeverityWarning:
		return warningColor
	default:
		return otherColor
	}
}

// Annotations lists every drawn region in drawing order. rel rewrites paths
// for display and may be nil.
func (h *Host) Annotations(rel func(string) string) []types.AnnotationRow {
	var rows []types.AnnotationRow
	for _, id := range h.order {
		d := h.drawn[id]
		path := d.doc.Path()
		if rel != nil {
			path = rel(path)
		}
		for _, r := range d.regions {
			rows = append(rows, types.AnnotationRow{
				Path:     path,
				Line:     r.Line(),
				Severity: r.Label(),
				Message:  r.Message,
				Source:   r.Source,
			})
		}
	}
	return rows
}

// PrintRegions writes each drawn region as "path:line  SEVERITY  message"
// followed by its source line.
//
//nolint:errcheck // terminal output
func (h *Host) PrintRegions(rel func(string) string) int {
	n := 0
	for _, id := range h.order {
		d := h.drawn[id]
		path := d.doc.Path()
		if rel != nil {
			path = rel(path)
		}
		buf, _ := d.doc.(*host.Buffer)
		for _, r := range d.regions {
			c := severityColor(r.Severity)
			fmt.Fprintf(h.out, "%s  %s  %s\n",
				pathColor.Sprintf("%s:%d", path, r.Line()),
				c.Sprint(strings.ToUpper(r.Label())),
				r.Message)
			if buf != nil {
				src := strings.TrimRight(buf.Line(r.LineIndex), " \t")
				src = strings.ReplaceAll(src, "\t", "    ")
				fmt.Fprintf(h.out, "    %s\n", sourceColor.Sprint(runewidth.Truncate(src, h.width-4, "…")))
			}
			n++
		}
	}
	return n
}

type jsonRegion struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Column   int    `json:"end_column"`
	Severity string `json:"severity"`
	Class    string `json:"class"`
	Message  string `json:"message"`
	Source   string `json:"source,omitempty"`
	Fill     string `json:"fill"`
	Border   string `json:"border"`
	Tooltip  string `json:"tooltip"`
}

// WriteJSON writes every drawn region as a JSON array.
func (h *Host) WriteJSON(rel func(string) string) error {
	out := make([]jsonRegion, 0)
	for _, id := range h.order {
		d := h.drawn[id]
		path := d.doc.Path()
		if rel != nil {
			path = rel(path)
		}
		for _, r := range d.regions {
			out = append(out, jsonRegion{
				Path:     path,
				Line:     r.Line(),
				Column:   r.EndColumn,
				Severity: r.Label(),
				Class:    r.Severity.String(),
				Message:  r.Message,
				Source:   r.Source,
				Fill:     r.Style.Fill,
				Border:   r.Style.Border,
				Tooltip:  highlight.PlainTooltip(r.Tooltip),
			})
		}
	}
	enc := json.NewEncoder(h.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
