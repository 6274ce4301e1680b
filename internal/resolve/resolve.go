// Package resolve turns report-relative file names into paths and opens them.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sajari/fuzzy"

	"xmlannotator/internal/config"
	"xmlannotator/internal/git"
	"xmlannotator/internal/host"
)

// maxSuggestionFiles bounds the directory walk behind "did you mean" hints.
const maxSuggestionFiles = 2000

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
}

// FileResolutionError reports a report entry whose file could not be opened.
type FileResolutionError struct {
	Name       string
	Path       string
	Suggestion string
	Err        error
}

func (e *FileResolutionError) Error() string {
	msg := fmt.Sprintf("cannot open %s (%s): %v", e.Name, e.Path, e.Err)
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean %s?", e.Suggestion)
	}
	return msg
}

func (e *FileResolutionError) Unwrap() error { return e.Err }

// Opener opens a document by path.
type Opener interface {
	OpenDocument(ctx context.Context, path string) (host.Document, error)
}

type Resolver struct {
	Base          string
	AncestorDepth int

	topLevel func(dir string) (string, error)
	tracked  func(dir string) ([]string, error)
	// tops caches work-tree roots per report directory; "" marks no repository.
	tops map[string]string
}

func New(cfg config.ResolveConfig) *Resolver {
	return &Resolver{
		Base:          cfg.Base,
		AncestorDepth: cfg.AncestorDepth,
		topLevel:      git.TopLevel,
		tracked:       git.TrackedFiles,
		tops:          make(map[string]string),
	}
}

// BaseDir returns the directory report entries of reportPath are relative to.
func (r *Resolver) BaseDir(reportPath string) string {
	dir := filepath.Dir(host.FileID(reportPath))
	switch r.Base {
	case config.BaseReport:
		return dir
	case config.BaseGit:
		if top := r.gitTop(dir); top != "" {
			return top
		}
	}
	return ancestor(dir, r.AncestorDepth)
}

func (r *Resolver) gitTop(dir string) string {
	if r.topLevel == nil {
		return ""
	}
	if top, ok := r.tops[dir]; ok {
		return top
	}
	top, err := r.topLevel(dir)
	if err != nil {
		top = ""
	}
	if r.tops == nil {
		r.tops = make(map[string]string)
	}
	r.tops[dir] = top
	return top
}

func ancestor(dir string, depth int) string {
	for i := 0; i < depth; i++ {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return dir
}

// Resolve returns the absolute path of name as listed in the report at reportPath.
func (r *Resolver) Resolve(reportPath, name string) string {
	native := filepath.FromSlash(name)
	if filepath.IsAbs(native) {
		return filepath.Clean(native)
	}
	return filepath.Join(r.BaseDir(reportPath), native)
}

// Open opens path, the result of Resolve(reportPath, name), through o.
// Failures are returned as *FileResolutionError.
func (r *Resolver) Open(ctx context.Context, o Opener, reportPath, name, path string) (host.Document, error) {
	doc, err := o.OpenDocument(ctx, path)
	if err == nil {
		return doc, nil
	}
	rerr := &FileResolutionError{Name: name, Path: path, Err: err}
	if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
		rerr.Suggestion = r.Suggest(reportPath, name)
	}
	return nil, rerr
}

// Suggest returns the closest existing file to name below the base
// directory, relative to it, or "" when nothing is close.
func (r *Resolver) Suggest(reportPath, name string) string {
	base := r.BaseDir(reportPath)
	candidates := r.candidates(base)
	if len(candidates) == 0 {
		return ""
	}

	model := fuzzy.NewModel()
	model.SetThreshold(1)
	model.SetDepth(2)
	model.Train(candidates)

	target := filepath.ToSlash(name)
	if s := model.SpellCheck(target); s != "" && s != target {
		return s
	}

	// Same base name in another directory.
	want := filepath.Base(target)
	for _, c := range candidates {
		if filepath.Base(c) == want && c != target {
			return c
		}
	}
	return ""
}

func (r *Resolver) candidates(base string) []string {
	if r.Base == config.BaseGit && r.tracked != nil {
		if files, err := r.tracked(base); err == nil && len(files) > 0 {
			return files
		}
	}
	var files []string
	_ = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != base && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if rel, err := filepath.Rel(base, path); err == nil {
			files = append(files, filepath.ToSlash(rel))
		}
		if len(files) >= maxSuggestionFiles {
			return filepath.SkipAll
		}
		return nil
	})
	return files
}
