package annotator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xmlannotator/internal/config"
	"xmlannotator/internal/highlight"
	"xmlannotator/internal/host"
	"xmlannotator/internal/host/hosttest"
	"xmlannotator/internal/report"
	"xmlannotator/internal/resolve"
	"xmlannotator/internal/types"
)

type fixture struct {
	root   string
	report *host.Buffer
	host   *hosttest.Host
	ctrl   *Controller
}

func numbered(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return strings.Join(lines, "\n")
}

// newFixture writes files under a temp project root and focuses a report
// holding xml, placed so that the default ancestor depth resolves to root.
func newFixture(t *testing.T, xml string, files map[string]string) *fixture {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	reportPath := filepath.Join(root, "build", "reports", "checkstyle", "main", "lint", "report.xml")

	h := hosttest.New()
	rep := h.Add(reportPath, xml)
	h.Focus(rep)

	ctrl, err := New(h, config.NewConfig())
	require.NoError(t, err)
	return &fixture{root: root, report: rep, host: h, ctrl: ctrl}
}

func (f *fixture) id(name string) string {
	return host.FileID(filepath.Join(f.root, filepath.FromSlash(name)))
}

func (f *fixture) focus(t *testing.T, name string) *host.Buffer {
	t.Helper()
	b, ok := f.host.Docs[f.id(name)]
	require.True(t, ok, "document %s not open", name)
	f.host.Focus(b)
	f.ctrl.OnActiveDocumentChanged(b)
	return b
}

const exampleReport = `<?xml version="1.0"?>
<checkstyle version="8.0">
  <file name="src/a.txt">
    <error line="3" severity="error" message="Unused variable"/>
    <error line="10" severity="warning" message="Line too long"/>
  </file>
</checkstyle>`

func TestAnnotateExample(t *testing.T) {
	f := newFixture(t, exampleReport, map[string]string{"src/a.txt": numbered(12)})

	res, err := f.ctrl.AnnotateFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Applied(), 1)
	assert.Empty(t, res.Failed())

	id := f.id("src/a.txt")
	assert.Equal(t, id, f.host.Active.ID())
	drawn := f.host.Drawn[id]
	require.Len(t, drawn, 2)
	assert.Equal(t, 2, drawn[0].LineIndex)
	assert.Equal(t, highlight.ErrorStyle, drawn[0].Style)
	assert.Equal(t, 9, drawn[1].LineIndex)
	assert.Equal(t, highlight.WarningStyle, drawn[1].Style)
	assert.Contains(t, drawn[0].Tooltip, "**Severity**: ERROR")
	assert.Contains(t, drawn[0].Tooltip, "**Line**: 3")
	assert.Equal(t, host.LevelInfo, f.host.Last().Level)

	require.NoError(t, f.ctrl.RemoveDecorations())
	assert.Empty(t, f.host.Drawn[id])
	assert.False(t, f.ctrl.Store().Has(id))
	assert.Equal(t, hosttest.Notice{Level: host.LevelInfo, Msg: "Decorations removed."}, f.host.Last())
}

func TestAnnotateMissingFileIsIsolated(t *testing.T) {
	xml := `<checkstyle>
  <file name="src/missing.txt"><error line="1" severity="error" message="x"/></file>
  <file name="src/a.txt"><error line="2" severity="info" message="y"/></file>
</checkstyle>`
	f := newFixture(t, xml, map[string]string{"src/a.txt": numbered(3)})

	res, err := f.ctrl.AnnotateFiles(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Failed(), 1)
	failed := res.Failed()[0]
	assert.Equal(t, "src/missing.txt", failed.Name)
	var rerr *resolve.FileResolutionError
	assert.ErrorAs(t, failed.Err, &rerr)

	var fileNotice string
	for _, n := range f.host.Notices {
		if n.Level == host.LevelError {
			fileNotice = n.Msg
		}
	}
	assert.Contains(t, fileNotice, "Failed to process file: src/missing.txt.")

	drawn := f.host.Drawn[f.id("src/a.txt")]
	require.Len(t, drawn, 1)
	assert.Equal(t, 1, drawn[0].LineIndex)
	assert.Equal(t, highlight.OtherStyle, drawn[0].Style)
	assert.Equal(t, host.LevelWarning, f.host.Last().Level)
}

func TestAnnotateSingleEntryEqualsList(t *testing.T) {
	single := `<checkstyle><file name="src/a.txt"><error line="2" severity="error" message="m"/></file></checkstyle>`
	listed := `<checkstyle>
  <file name="src/a.txt">
    <error line="2" severity="error" message="m"></error>
  </file>
</checkstyle>`

	var got [][]types.HighlightRegion
	for _, xml := range []string{single, listed} {
		f := newFixture(t, xml, map[string]string{"src/a.txt": numbered(3)})
		_, err := f.ctrl.AnnotateFiles(context.Background())
		require.NoError(t, err)
		regions, ok := f.ctrl.Store().Regions(f.id("src/a.txt"))
		require.True(t, ok)
		got = append(got, regions)
	}
	assert.Equal(t, got[0], got[1])
}

func TestAnnotateReplacesPreviousSet(t *testing.T) {
	f := newFixture(t, exampleReport, map[string]string{"src/a.txt": numbered(12)})
	_, err := f.ctrl.AnnotateFiles(context.Background())
	require.NoError(t, err)

	second := `<checkstyle><file name="src/a.txt"><error line="5" severity="warning" message="again"/></file></checkstyle>`
	f.host.Docs[f.report.ID()] = host.NewBuffer(f.report.Path(), second)
	f.host.Focus(f.host.Docs[f.report.ID()])

	_, err = f.ctrl.AnnotateFiles(context.Background())
	require.NoError(t, err)

	regions, _ := f.ctrl.Store().Regions(f.id("src/a.txt"))
	require.Len(t, regions, 1)
	assert.Equal(t, 4, regions[0].LineIndex)
	assert.Equal(t, 1, f.host.Styles)
}

func TestEditInvalidatesFocusedFile(t *testing.T) {
	f := newFixture(t, exampleReport, map[string]string{"src/a.txt": numbered(12)})
	_, err := f.ctrl.AnnotateFiles(context.Background())
	require.NoError(t, err)

	doc := f.host.Active
	doc.InsertRune(11, 0, 'x')
	f.ctrl.OnDocumentChanged(doc)

	assert.False(t, f.ctrl.Store().Has(doc.ID()))
	assert.Empty(t, f.host.Drawn[doc.ID()])
}

func TestEditOfUnfocusedFileKeepsSet(t *testing.T) {
	f := newFixture(t, exampleReport, map[string]string{"src/a.txt": numbered(12)})
	_, err := f.ctrl.AnnotateFiles(context.Background())
	require.NoError(t, err)

	doc := f.host.Active
	f.host.Focus(f.report)
	f.ctrl.OnDocumentChanged(doc)

	assert.True(t, f.ctrl.Store().Has(doc.ID()))
}

func TestFocusChangeReappliesStoredSet(t *testing.T) {
	xml := `<checkstyle>
  <file name="src/a.txt"><error line="1" severity="error" message="a"/></file>
  <file name="src/b.txt"><error line="2" severity="warning" message="b"/></file>
</checkstyle>`
	f := newFixture(t, xml, map[string]string{"src/a.txt": numbered(2), "src/b.txt": numbered(2)})
	_, err := f.ctrl.AnnotateFiles(context.Background())
	require.NoError(t, err)

	// b was opened last, so a's drawing was discarded by the tab switch.
	assert.NotContains(t, f.host.Drawn, f.id("src/a.txt"))

	stored, _ := f.ctrl.Store().Regions(f.id("src/a.txt"))
	f.focus(t, "src/a.txt")
	assert.Equal(t, stored, f.host.Drawn[f.id("src/a.txt")])
	assert.NotContains(t, f.host.Drawn, f.id("src/b.txt"))

	f.ctrl.OnActiveDocumentChanged(f.report)
	assert.NotContains(t, f.host.Drawn, f.report.ID())
}

func TestCommandsWithoutFocus(t *testing.T) {
	h := hosttest.New()
	ctrl, err := New(h, nil)
	require.NoError(t, err)

	_, err = ctrl.AnnotateFiles(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveDocument)
	assert.Equal(t, hosttest.Notice{Level: host.LevelError, Msg: "No active editor detected."}, h.Last())

	err = ctrl.RemoveDecorations()
	assert.ErrorIs(t, err, ErrNoActiveDocument)
	assert.Len(t, h.Notices, 2)
}

func TestRemoveWithoutDecorations(t *testing.T) {
	f := newFixture(t, exampleReport, nil)
	require.NoError(t, f.ctrl.RemoveDecorations())
	assert.Equal(t, "No decorations to remove.", f.host.Last().Msg)
}

func TestAnnotateParseFailures(t *testing.T) {
	cases := []struct {
		xml    string
		notice string
		target error
	}{
		{"<checkstyle><file", "Failed to parse XML.", report.ErrMalformedReport},
		{"<checkstyle></checkstyle>", "No files found in XML.", report.ErrEmptyReport},
	}
	for _, tc := range cases {
		f := newFixture(t, tc.xml, nil)
		_, err := f.ctrl.AnnotateFiles(context.Background())
		assert.ErrorIs(t, err, tc.target)
		assert.Equal(t, hosttest.Notice{Level: host.LevelError, Msg: tc.notice}, f.host.Last())
		assert.Empty(t, f.host.Opened)
	}
}

func TestAnnotateLinePastEnd(t *testing.T) {
	xml := `<checkstyle><file name="src/a.txt">
  <error line="2" severity="error" message="ok"/>
  <error line="40" severity="error" message="stale"/>
</file></checkstyle>`
	f := newFixture(t, xml, map[string]string{"src/a.txt": numbered(3)})

	res, err := f.ctrl.AnnotateFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Applied(), 1)
	assert.Equal(t, 1, res.Applied()[0].Regions)
	assert.Equal(t, 1, res.Applied()[0].Skipped)
	assert.Len(t, f.host.Drawn[f.id("src/a.txt")], 1)
	assert.Equal(t, "Annotated 1 file(s), 1 error entries not shown.", f.host.Last().Msg)
}

func TestAnnotateIgnoredFiles(t *testing.T) {
	xml := `<checkstyle>
  <file name="vendor/lib.go"><error line="1" severity="error" message="x"/></file>
  <file name="src/a.txt"><error line="1" severity="error" message="y"/></file>
</checkstyle>`
	f := newFixture(t, xml, map[string]string{"src/a.txt": numbered(1)})
	cfg := config.NewConfig()
	cfg.IgnoredPaths = []string{"vendor/"}
	ctrl, err := New(f.host, cfg)
	require.NoError(t, err)

	res, err := ctrl.AnnotateFiles(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Files[0].Ignored)
	assert.Len(t, res.Applied(), 1)
	assert.Empty(t, res.Failed())
	assert.Len(t, f.host.Opened, 1)
}

func TestAnnotateCancelled(t *testing.T) {
	f := newFixture(t, exampleReport, map[string]string{"src/a.txt": numbered(12)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.ctrl.AnnotateFiles(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, res)
	assert.Empty(t, res.Files)
}

func TestProgressAndStyleOverrides(t *testing.T) {
	xml := `<checkstyle>
  <file name="src/a.txt"><error line="1" severity="error" message="a"/></file>
  <file name="src/b.txt"><error line="1" severity="error" message="b"/></file>
</checkstyle>`
	f := newFixture(t, xml, map[string]string{"src/a.txt": "a", "src/b.txt": "b"})
	cfg := config.NewConfig()
	cfg.Styles["error"] = config.StyleConfig{Fill: "#000000"}

	var seen []int
	ctrl, err := New(f.host, cfg, WithProgress(func(done, total int, _ FileResult) {
		assert.Equal(t, 2, total)
		seen = append(seen, done)
	}))
	require.NoError(t, err)

	_, err = ctrl.AnnotateFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seen)
	regions, _ := ctrl.Store().Regions(f.id("src/b.txt"))
	assert.Equal(t, types.Style{Fill: "#000000", Border: highlight.ErrorStyle.Border}, regions[0].Style)

	cfg.Styles["error"] = config.StyleConfig{Fill: "nope"}
	_, err = New(f.host, cfg)
	assert.Error(t, err)
}

func TestAnnotateReportsInvalidLines(t *testing.T) {
	xml := `<checkstyle><file name="src/a.txt">
  <error line="abc" severity="error" message="bad"/>
  <error line="2" severity="error" message="ok"/>
</file></checkstyle>`
	f := newFixture(t, xml, map[string]string{"src/a.txt": numbered(3)})

	res, err := f.ctrl.AnnotateFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Applied(), 1)
	assert.Equal(t, 1, res.Applied()[0].Invalid)
	assert.Len(t, f.host.Drawn[f.id("src/a.txt")], 1)

	assert.Contains(t, f.host.Notices, hosttest.Notice{
		Level: host.LevelWarning,
		Msg:   "src/a.txt: 1 error entry has an invalid line.",
	})
	assert.Equal(t, hosttest.Notice{
		Level: host.LevelWarning,
		Msg:   "Annotated 1 file(s), 1 error entries not shown.",
	}, f.host.Last())
}

func TestAnnotateWithInjectedResolver(t *testing.T) {
	files := map[string]string{
		"build/reports/checkstyle/main/lint/src/a.txt": numbered(12),
		"src/a.txt": numbered(1),
	}
	f := newFixture(t, exampleReport, files)
	ctrl, err := New(f.host, config.NewConfig(),
		WithResolver(resolve.New(config.ResolveConfig{Base: config.BaseReport})))
	require.NoError(t, err)

	res, err := ctrl.AnnotateFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Applied(), 1)

	id := f.id("build/reports/checkstyle/main/lint/src/a.txt")
	assert.Equal(t, id, res.Applied()[0].Path)
	assert.Len(t, f.host.Drawn[id], 2)
	assert.False(t, ctrl.Store().Has(f.id("src/a.txt")))
}
