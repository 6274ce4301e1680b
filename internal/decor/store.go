// Package decor keeps the highlight regions applied to each file and redraws
// them when their file is focused again.
package decor

import (
	"sort"

	"xmlannotator/internal/host"
	"xmlannotator/internal/types"
)

// Focus reports the focused document.
type Focus interface {
	ActiveDocument() host.Document
}

// Store maps file identities to their region sets. It is not safe for
// concurrent use; hosts call it from their event goroutine.
type Store struct {
	renderer host.Renderer
	focus    Focus
	sets     map[string][]types.HighlightRegion
	handle   *host.StyleHandle
}

func New(renderer host.Renderer, focus Focus) *Store {
	return &Store{
		renderer: renderer,
		focus:    focus,
		sets:     make(map[string][]types.HighlightRegion),
	}
}

// Apply replaces the set stored for fileID and draws it when the file is focused.
func (s *Store) Apply(fileID string, regions []types.HighlightRegion) {
	if s.handle == nil {
		s.handle = s.renderer.CreateStyle()
	}
	set := make([]types.HighlightRegion, len(regions))
	copy(set, regions)
	s.sets[fileID] = set
	if doc := s.focused(fileID); doc != nil {
		s.renderer.Render(doc, s.handle, set)
	}
}

// Reapply redraws the stored set of fileID. It reports whether one existed.
func (s *Store) Reapply(fileID string) bool {
	set, ok := s.sets[fileID]
	if !ok {
		return false
	}
	if doc := s.focused(fileID); doc != nil {
		s.renderer.Render(doc, s.handle, set)
	}
	return true
}

// Clear drops the set of fileID and erases it when focused. It reports
// whether a set existed.
func (s *Store) Clear(fileID string) bool {
	if _, ok := s.sets[fileID]; !ok {
		return false
	}
	delete(s.sets, fileID)
	if doc := s.focused(fileID); doc != nil && s.handle != nil {
		s.renderer.Render(doc, s.handle, nil)
	}
	return true
}

// Regions returns a copy of the set stored for fileID.
func (s *Store) Regions(fileID string) ([]types.HighlightRegion, bool) {
	set, ok := s.sets[fileID]
	if !ok {
		return nil, false
	}
	out := make([]types.HighlightRegion, len(set))
	copy(out, set)
	return out, true
}

func (s *Store) Has(fileID string) bool {
	_, ok := s.sets[fileID]
	return ok
}

// Files returns the identities with a stored set, sorted.
func (s *Store) Files() []string {
	files := make([]string, 0, len(s.sets))
	for id := range s.sets {
		files = append(files, id)
	}
	sort.Strings(files)
	return files
}

// Handle returns the shared style, nil until the first Apply.
func (s *Store) Handle() *host.StyleHandle {
	return s.handle
}

func (s *Store) focused(fileID string) host.Document {
	if s.focus == nil {
		return nil
	}
	doc := s.focus.ActiveDocument()
	if doc == nil || doc.ID() != fileID {
		return nil
	}
	return doc
}
