package highlight

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xmlannotator/internal/host"
	"xmlannotator/internal/types"
)

func tenLines() *host.Buffer {
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d %s", i+1, strings.Repeat("x", i))
	}
	return host.NewBuffer("a.txt", strings.Join(lines, "\n"))
}

func TestStyleForIsTotal(t *testing.T) {
	p := DefaultPalette()
	for _, raw := range []string{"", "info", "ERROR", "Warning", "fatal", "ignore"} {
		assert.Equal(t, OtherStyle, p.StyleFor(types.ParseSeverity(raw)), raw)
	}
	assert.Equal(t, ErrorStyle, p.StyleFor(types.ParseSeverity("error")))
	assert.Equal(t, WarningStyle, p.StyleFor(types.ParseSeverity("warning")))
}

func TestComputeLineRoundTrip(t *testing.T) {
	doc := tenLines()
	p := DefaultPalette()
	for line := 1; line <= doc.LineCount(); line++ {
		rec := types.ErrorRecord{Line: line, Severity: types.SeverityWarning, RawSeverity: "warning", Message: "m"}
		r, err := Compute(rec, doc, p)
		require.NoError(t, err)
		assert.Equal(t, line-1, r.LineIndex)
		assert.Equal(t, line, r.Line())
		assert.Equal(t, doc.LineLength(line-1), r.EndColumn)
		assert.True(t, strings.HasSuffix(r.Tooltip, fmt.Sprintf("**Line**: %d", line)))
	}
}

func TestComputeExample(t *testing.T) {
	entry := types.FileEntry{Name: "src/a.txt", Errors: []types.ErrorRecord{
		{FilePath: "src/a.txt", Line: 3, Severity: types.SeverityError, RawSeverity: "error", Message: "bad"},
		{FilePath: "src/a.txt", Line: 10, Severity: types.SeverityWarning, RawSeverity: "warning", Message: "meh"},
	}}
	regions, errs := ComputeAll(entry, tenLines(), DefaultPalette())
	require.Empty(t, errs)
	require.Len(t, regions, 2)

	assert.Equal(t, 2, regions[0].LineIndex)
	assert.Equal(t, ErrorStyle, regions[0].Style)
	assert.Equal(t, 9, regions[1].LineIndex)
	assert.Equal(t, WarningStyle, regions[1].Style)
}

func TestComputeOutOfRange(t *testing.T) {
	entry := types.FileEntry{Errors: []types.ErrorRecord{
		{Line: 11, RawSeverity: "error", Severity: types.SeverityError},
		{Line: 1, RawSeverity: "error", Severity: types.SeverityError},
	}}
	regions, errs := ComputeAll(entry, tenLines(), DefaultPalette())
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrLineOutOfRange)
	require.Len(t, regions, 1)
	assert.Equal(t, 0, regions[0].LineIndex)
}

func TestTooltip(t *testing.T) {
	rec := types.ErrorRecord{RawSeverity: "warning", Message: "Line is longer than 100 characters"}
	assert.Equal(t,
		"**Severity**: WARNING  \n**Message**: Line is longer than 100 characters  \n**Line**: 42",
		Tooltip(rec, 41))
	assert.Equal(t,
		"Severity: WARNING · Message: Line is longer than 100 characters · Line: 42",
		PlainTooltip(Tooltip(rec, 41)))
}

func TestOverride(t *testing.T) {
	p, err := DefaultPalette().Override(types.SeverityWarning, types.Style{Border: "#123456"})
	require.NoError(t, err)
	assert.Equal(t, types.Style{Fill: WarningStyle.Fill, Border: "#123456"}, p.Warning)
	assert.Equal(t, ErrorStyle, p.Error)

	_, err = DefaultPalette().Override(types.SeverityError, types.Style{Fill: "red"})
	assert.Error(t, err)
}
