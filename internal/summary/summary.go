// Package summary ranks annotated files by how many regions they carry.
package summary

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"xmlannotator/internal/types"
)

// RegionSource is the read side of the decoration store.
type RegionSource interface {
	Files() []string
	Regions(fileID string) ([]types.HighlightRegion, bool)
}

// CollectStats counts the stored regions of every file, keyed by file id.
func CollectStats(src RegionSource) map[string]*types.FileStats {
	stats := make(map[string]*types.FileStats)
	for _, id := range src.Files() {
		regions, _ := src.Regions(id)
		s := &types.FileStats{Path: id}
		for _, r := range regions {
			s.Add(r.Severity)
		}
		stats[id] = s
	}
	return stats
}

// GenerateFileSummary ranks files by region count, then errors, then path.
func GenerateFileSummary(fileStats map[string]*types.FileStats, topN int) []types.FileSummaryEntry {
	entries := make([]types.FileSummaryEntry, 0, len(fileStats))
	for _, s := range fileStats {
		entries = append(entries, types.FileSummaryEntry{
			Path:     s.Path,
			Count:    s.Count,
			Errors:   s.Errors,
			Warnings: s.Warnings,
			Other:    s.Other,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		if entries[i].Errors != entries[j].Errors {
			return entries[i].Errors > entries[j].Errors
		}
		return entries[i].Path < entries[j].Path
	})

	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5d5d5d")).
			PaddingLeft(1).
			PaddingRight(1)

	cellStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			PaddingRight(1)

	rankStyle = cellStyle.Copy().
			Foreground(lipgloss.Color("#878787"))

	pathStyle = cellStyle.Copy().
			Foreground(lipgloss.Color("#d75f00"))

	errorStyle = cellStyle.Copy().
			Foreground(lipgloss.Color("#ff0000"))

	warningStyle = cellStyle.Copy().
			Foreground(lipgloss.Color("#ff9900"))

	otherStyle = cellStyle.Copy().
			Foreground(lipgloss.Color("#0056b3"))
)

// PrintFileSummary writes the ranking followed by totals.
//
//nolint:errcheck // terminal output
func PrintFileSummary(w io.Writer, entries []types.FileSummaryEntry, rel func(string) string) {
	fmt.Fprintln(w, titleStyle.Render("Annotated Files"))
	if len(entries) == 0 {
		fmt.Fprintln(w, "  No highlights applied.")
		return
	}

	total := types.FileStats{}
	for _, e := range entries {
		path := e.Path
		if rel != nil {
			path = rel(path)
		}
		fmt.Fprintf(w, "%s. %s – %d highlights:%s%s%s\n",
			rankStyle.Render(fmt.Sprintf("%2d", e.Rank)),
			pathStyle.Render(path),
			e.Count,
			errorStyle.Render(fmt.Sprintf("%d errors", e.Errors)),
			warningStyle.Render(fmt.Sprintf("%d warnings", e.Warnings)),
			otherStyle.Render(fmt.Sprintf("%d other", e.Other)))
		total.Count += e.Count
		total.Errors += e.Errors
		total.Warnings += e.Warnings
		total.Other += e.Other
	}

	fmt.Fprintf(w, "  • Files: %s\n", cellStyle.Render(fmt.Sprintf("%d", len(entries))))
	fmt.Fprintf(w, "  • Highlights: %s\n", cellStyle.Render(fmt.Sprintf("%d", total.Count)))
	fmt.Fprintf(w, "  • Errors: %s, Warnings: %s, Other: %s\n",
		errorStyle.Render(fmt.Sprintf("%d", total.Errors)),
		warningStyle.Render(fmt.Sprintf("%d", total.Warnings)),
		otherStyle.Render(fmt.Sprintf("%d", total.Other)))
	fmt.Fprintf(w, "  • Average highlights per file: %s\n",
		cellStyle.Render(fmt.Sprintf("%.1f", float64(total.Count)/float64(len(entries)))))
}
