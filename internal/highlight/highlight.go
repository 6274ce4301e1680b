// Package highlight turns report records into highlighted line regions.
package highlight

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"xmlannotator/internal/host"
	"xmlannotator/internal/types"
)

// ErrLineOutOfRange is returned for records pointing past the end of a document.
var ErrLineOutOfRange = errors.New("line out of range")

var (
	ErrorStyle   = types.Style{Fill: "#ffdddd", Border: "#ff0000"}
	WarningStyle = types.Style{Fill: "#fff3cd", Border: "#ff9900"}
	OtherStyle   = types.Style{Fill: "#cce5ff", Border: "#0056b3"}
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Palette maps each severity to its style.
type Palette struct {
	Error   types.Style
	Warning types.Style
	Other   types.Style
}

// DefaultPalette returns red for errors, yellow for warnings and blue for the rest.
func DefaultPalette() Palette {
	return Palette{Error: ErrorStyle, Warning: WarningStyle, Other: OtherStyle}
}

// StyleFor returns the style of sev.
func (p Palette) StyleFor(sev types.Severity) types.Style {
	switch sev {
	case types.SeverityError:
		return p.Error
	case types.SeverityWarning:
		return p.Warning
	default:
		return p.Other
	}
}

// Override replaces the colours for sev with the non-empty fields of s.
func (p Palette) Override(sev types.Severity, s types.Style) (Palette, error) {
	cur := p.StyleFor(sev)
	if s.Fill != "" {
		if !hexColor.MatchString(s.Fill) {
			return p, fmt.Errorf("invalid fill colour %q for %s", s.Fill, sev)
		}
		cur.Fill = s.Fill
	}
	if s.Border != "" {
		if !hexColor.MatchString(s.Border) {
			return p, fmt.Errorf("invalid border colour %q for %s", s.Border, sev)
		}
		cur.Border = s.Border
	}
	switch sev {
	case types.SeverityError:
		p.Error = cur
	case types.SeverityWarning:
		p.Warning = cur
	default:
		p.Other = cur
	}
	return p, nil
}

// Tooltip formats the hover text of a record shown on lineIndex.
func Tooltip(rec types.ErrorRecord, lineIndex int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Severity**: %s  \n", strings.ToUpper(rec.RawSeverity))
	fmt.Fprintf(&b, "**Message**: %s  \n", rec.Message)
	fmt.Fprintf(&b, "**Line**: %d", lineIndex+1)
	return b.String()
}

// Compute returns the region covering the whole reported line.
func Compute(rec types.ErrorRecord, lines host.LineSource, p Palette) (types.HighlightRegion, error) {
	idx := rec.Line - 1
	if idx < 0 || idx >= lines.LineCount() {
		return types.HighlightRegion{}, fmt.Errorf("%w: line %d of %d", ErrLineOutOfRange, rec.Line, lines.LineCount())
	}
	return types.HighlightRegion{
		LineIndex:   idx,
		EndColumn:   lines.LineLength(idx),
		Severity:    rec.Severity,
		RawSeverity: rec.RawSeverity,
		Style:       p.StyleFor(rec.Severity),
		Message:     rec.Message,
		Source:      rec.Source,
		Tooltip:     Tooltip(rec, idx),
	}, nil
}

// ComputeAll maps every record of entry. Records that cannot be placed are
// reported in errs and left out of the regions.
func ComputeAll(entry types.FileEntry, lines host.LineSource, p Palette) (regions []types.HighlightRegion, errs []error) {
	regions = make([]types.HighlightRegion, 0, len(entry.Errors))
	for _, rec := range entry.Errors {
		r, err := Compute(rec, lines, p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		regions = append(regions, r)
	}
	return regions, errs
}

// PlainTooltip flattens a tooltip to one line for status bars and terminals.
func PlainTooltip(tooltip string) string {
	parts := strings.Split(tooltip, "\n")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		parts[i] = strings.ReplaceAll(part, "**", "")
	}
	return strings.Join(parts, " · ")
}
