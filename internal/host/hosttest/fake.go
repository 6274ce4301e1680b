// Package hosttest provides an in-memory Host for tests.
package hosttest

import (
	"context"
	"fmt"
	"os"

	"xmlannotator/internal/host"
	"xmlannotator/internal/types"
)

// Notice is a recorded user notice.
type Notice struct {
	Level host.Level
	Msg   string
}

// Host keeps documents in memory and records every call the annotator makes.
// Files not registered with Add are loaded from disk on open.
type Host struct {
	Docs     map[string]*host.Buffer
	Active   *host.Buffer
	Drawn    map[string][]types.HighlightRegion
	Renders  int
	Styles   int
	Notices  []Notice
	Opened   []string
	FailOpen map[string]error
}

func New() *Host {
	return &Host{
		Docs:     make(map[string]*host.Buffer),
		Drawn:    make(map[string][]types.HighlightRegion),
		FailOpen: make(map[string]error),
	}
}

// Add registers an in-memory document and returns it.
func (h *Host) Add(path, text string) *host.Buffer {
	b := host.NewBuffer(path, text)
	h.Docs[b.ID()] = b
	return b
}

// Focus makes b the active document. Like an editor tab switch it discards
// what the previously focused document had drawn.
func (h *Host) Focus(b *host.Buffer) {
	if h.Active != nil && (b == nil || h.Active.ID() != b.ID()) {
		delete(h.Drawn, h.Active.ID())
	}
	h.Active = b
}

func (h *Host) ActiveDocument() host.Document {
	if h.Active == nil {
		return nil
	}
	return h.Active
}

func (h *Host) OpenDocument(ctx context.Context, path string) (host.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := host.FileID(path)
	h.Opened = append(h.Opened, id)
	if err, ok := h.FailOpen[id]; ok {
		return nil, err
	}
	b, ok := h.Docs[id]
	if !ok {
		loaded, err := host.LoadBuffer(path)
		if err != nil {
			return nil, fmt.Errorf("cannot open %s: %w", path, err)
		}
		b = loaded
		h.Docs[id] = b
	}
	h.Focus(b)
	return b, nil
}

func (h *Host) ReadFile(path string) ([]byte, error) {
	if b, ok := h.Docs[host.FileID(path)]; ok {
		return []byte(b.Text()), nil
	}
	return os.ReadFile(path)
}

func (h *Host) CreateStyle() *host.StyleHandle {
	h.Styles++
	return &host.StyleHandle{ID: h.Styles}
}

func (h *Host) Render(doc host.Document, style *host.StyleHandle, regions []types.HighlightRegion) {
	h.Renders++
	if len(regions) == 0 {
		delete(h.Drawn, doc.ID())
		return
	}
	h.Drawn[doc.ID()] = append([]types.HighlightRegion(nil), regions...)
}

func (h *Host) Notify(level host.Level, msg string) {
	h.Notices = append(h.Notices, Notice{Level: level, Msg: msg})
}

// Last returns the most recent notice.
func (h *Host) Last() Notice {
	if len(h.Notices) == 0 {
		return Notice{}
	}
	return h.Notices[len(h.Notices)-1]
}
