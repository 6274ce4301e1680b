// Package host describes the editing environment the annotator runs inside:
// documents, focus, styled line rendering and user notices.
package host

import (
	"context"
	"path/filepath"

	"xmlannotator/internal/types"
)

// Level is the kind of a user notice.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// LineSource exposes the line metadata highlight ranges are bounded by.
type LineSource interface {
	LineCount() int
	// LineLength returns the rune length of line i (0-based), or 0 when i
	// is out of range.
	LineLength(i int) int
}

// Document is an open text document.
type Document interface {
	LineSource
	ID() string
	Path() string
	Text() string
}

// StyleHandle is a host-created visual style token. Regions carry their own
// colours; the handle identifies the decoration layer they are drawn on.
type StyleHandle struct {
	ID int
}

// Renderer draws and removes highlighted regions.
type Renderer interface {
	CreateStyle() *StyleHandle
	// Render replaces everything drawn with style on doc. An empty regions
	// slice removes the drawing.
	Render(doc Document, style *StyleHandle, regions []types.HighlightRegion)
}

// Host is the editing environment.
type Host interface {
	Renderer
	// ActiveDocument returns the focused document or nil.
	ActiveDocument() Document
	// OpenDocument opens path and focuses it.
	OpenDocument(ctx context.Context, path string) (Document, error)
	ReadFile(path string) ([]byte, error)
	Notify(level Level, msg string)
}

// FileID canonicalises a path into a document identity.
func FileID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Clean(path)
}
