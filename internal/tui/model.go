// Package tui is an interactive terminal host: a minimal multi-file editor
// that shows highlights, reacts to focus changes and invalidates them on edits.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"xmlannotator/internal/annotator"
	"xmlannotator/internal/config"
	"xmlannotator/internal/host"
	"xmlannotator/internal/types"
)

type tab struct {
	buf  *host.Buffer
	line int
	col  int
	top  int
}

// Model is both the Bubble Tea model and the host the controller drives.
// Controller calls happen inside Update, so they never race with rendering.
type Model struct {
	ctx  context.Context
	ctrl *annotator.Controller
	log  *slog.Logger

	tabs     []*tab
	active   int
	rendered []types.HighlightRegion
	styles   int

	notice      string
	noticeLevel host.Level
	insert      bool

	keys   keyMap
	help   help.Model
	width  int
	height int
}

// New builds a model with no open documents.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Model, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &Model{
		ctx:    ctx,
		log:    log,
		active: -1,
		keys:   defaultKeys(),
		help:   help.New(),
		width:  80,
		height: 24,
	}
	ctrl, err := annotator.New(m, cfg, annotator.WithLogger(log))
	if err != nil {
		return nil, err
	}
	m.ctrl = ctrl
	return m, nil
}

// Controller returns the controller bound to this model.
func (m *Model) Controller() *annotator.Controller {
	return m.ctrl
}

// Open opens each path in a tab. The first path ends up focused.
func (m *Model) Open(paths ...string) error {
	for _, p := range paths {
		if _, err := m.OpenDocument(m.ctx, p); err != nil {
			return err
		}
	}
	if len(paths) > 1 {
		_, err := m.OpenDocument(m.ctx, paths[0])
		return err
	}
	return nil
}

func (m *Model) current() *tab {
	if m.active < 0 || m.active >= len(m.tabs) {
		return nil
	}
	return m.tabs[m.active]
}

func (m *Model) ActiveDocument() host.Document {
	if t := m.current(); t != nil {
		return t.buf
	}
	return nil
}

func (m *Model) OpenDocument(ctx context.Context, path string) (host.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := host.FileID(path)
	for i, t := range m.tabs {
		if t.buf.ID() == id {
			m.focus(i)
			return t.buf, nil
		}
	}
	b, err := host.LoadBuffer(path)
	if err != nil {
		return nil, err
	}
	m.tabs = append(m.tabs, &tab{buf: b})
	m.focus(len(m.tabs) - 1)
	return b, nil
}

func (m *Model) ReadFile(path string) ([]byte, error) {
	id := host.FileID(path)
	for _, t := range m.tabs {
		if t.buf.ID() == id {
			return []byte(t.buf.Text()), nil
		}
	}
	return os.ReadFile(path)
}

func (m *Model) CreateStyle() *host.StyleHandle {
	m.styles++
	return &host.StyleHandle{ID: m.styles}
}

// Render draws regions on doc. Only the focused document is visible, so
// drawing on any other document is dropped.
func (m *Model) Render(doc host.Document, _ *host.StyleHandle, regions []types.HighlightRegion) {
	t := m.current()
	if t == nil || t.buf.ID() != doc.ID() {
		return
	}
	if len(regions) == 0 {
		m.rendered = nil
		return
	}
	m.rendered = append([]types.HighlightRegion(nil), regions...)
}

func (m *Model) Notify(level host.Level, msg string) {
	m.notice = msg
	m.noticeLevel = level
	m.log.Debug("notice", "level", level.String(), "msg", msg)
}

// focus switches tabs. The old document's drawing is dropped and the
// controller gets the chance to redraw the new one.
func (m *Model) focus(i int) {
	if i == m.active {
		return
	}
	m.active = i
	m.rendered = nil
	if t := m.current(); t != nil && m.ctrl != nil {
		m.ctrl.OnActiveDocumentChanged(t.buf)
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.SetWindowTitle("xmlannotator")
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.help.Width = msg.Width
		}
		if msg.Height > 0 {
			m.height = msg.Height
		}
		m.scroll()
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Save) {
			m.save()
			return m, nil
		}
		if m.insert {
			m.updateInsert(msg)
			return m, nil
		}
		return m, m.updateNormal(msg)
	}
	return m, nil
}

func (m *Model) updateNormal(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Next):
		if len(m.tabs) > 0 {
			m.focus((m.active + 1) % len(m.tabs))
		}
	case key.Matches(msg, m.keys.Prev):
		if len(m.tabs) > 0 {
			m.focus((m.active - 1 + len(m.tabs)) % len(m.tabs))
		}
	case key.Matches(msg, m.keys.Annotate):
		if _, err := m.ctrl.AnnotateFiles(m.ctx); err != nil {
			m.log.Debug("annotate failed", "err", err)
		}
	case key.Matches(msg, m.keys.Remove):
		_ = m.ctrl.RemoveDecorations()
	case key.Matches(msg, m.keys.NextMark):
		m.nextMark()
	case key.Matches(msg, m.keys.Insert):
		if m.current() != nil {
			m.insert = true
		}
	default:
		m.move(msg)
	}
	m.scroll()
	return nil
}

func (m *Model) updateInsert(msg tea.KeyMsg) {
	t := m.current()
	if t == nil {
		m.insert = false
		return
	}
	changed := false
	switch msg.Type {
	case tea.KeyEsc:
		m.insert = false
	case tea.KeyEnter:
		t.line, t.col = t.buf.InsertNewline(t.line, t.col)
		changed = true
	case tea.KeyBackspace:
		t.line, t.col, changed = t.buf.DeleteBack(t.line, t.col)
	case tea.KeyTab:
		t.line, t.col = t.buf.InsertRune(t.line, t.col, '\t')
		changed = true
	case tea.KeySpace:
		t.line, t.col = t.buf.InsertRune(t.line, t.col, ' ')
		changed = true
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			t.line, t.col = t.buf.InsertRune(t.line, t.col, r)
		}
		changed = len(msg.Runes) > 0
	case tea.KeyCtrlC:
		m.insert = false
	default:
		m.move(msg)
	}
	if changed {
		m.ctrl.OnDocumentChanged(t.buf)
	}
	m.scroll()
}

func (m *Model) move(msg tea.KeyMsg) {
	t := m.current()
	if t == nil {
		return
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		t.line--
	case key.Matches(msg, m.keys.Down):
		t.line++
	case key.Matches(msg, m.keys.Left):
		t.col--
	case key.Matches(msg, m.keys.Right):
		t.col++
	case key.Matches(msg, m.keys.PageUp):
		t.line -= m.bodyHeight()
	case key.Matches(msg, m.keys.PageDown):
		t.line += m.bodyHeight()
	default:
		return
	}
	t.line = clamp(t.line, 0, t.buf.LineCount()-1)
	t.col = clamp(t.col, 0, t.buf.LineLength(t.line))
}

func (m *Model) nextMark() {
	t := m.current()
	if t == nil || len(m.rendered) == 0 {
		return
	}
	best := -1
	for _, r := range m.rendered {
		if r.LineIndex > t.line && (best < 0 || r.LineIndex < best) {
			best = r.LineIndex
		}
	}
	if best < 0 {
		for _, r := range m.rendered {
			if best < 0 || r.LineIndex < best {
				best = r.LineIndex
			}
		}
	}
	t.line, t.col = best, 0
}

func (m *Model) save() {
	t := m.current()
	if t == nil {
		return
	}
	if err := t.buf.Save(); err != nil {
		m.log.Warn("save failed", "file", t.buf.Path(), "err", err)
		m.Notify(host.LevelError, err.Error())
		return
	}
	m.Notify(host.LevelInfo, fmt.Sprintf("Saved %s.", filepath.Base(t.buf.Path())))
}

func (m *Model) bodyHeight() int {
	h := m.height - 5
	if m.help.ShowAll {
		h -= 4
	}
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) scroll() {
	t := m.current()
	if t == nil {
		return
	}
	h := m.bodyHeight()
	if t.line < t.top {
		t.top = t.line
	}
	if t.line >= t.top+h {
		t.top = t.line - h + 1
	}
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
