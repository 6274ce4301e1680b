// Package history exports annotation runs as timestamped CSV files.
package history

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"xmlannotator/internal/types"
)

const stampLayout = "20060102_150405"

// WriteCSV writes header and rows to dir/filename, creating dir as needed.
func WriteCSV(dir, filename string, header []string, data [][]string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("export directory not specified")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory %s: %w", dir, err)
	}

	filePath := filepath.Join(dir, filename)
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file %s: %w", filePath, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writer.WriteAll(data); err != nil {
		return "", fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return filePath, nil
}

// WriteAnnotationsCSV writes one row per highlighted line.
func WriteAnnotationsCSV(dir string, rows []types.AnnotationRow, now time.Time) (string, error) {
	filename := fmt.Sprintf("annotations_%s.csv", now.Format(stampLayout))
	header := []string{"Path", "Line", "Severity", "Message", "Source"}
	data := make([][]string, len(rows))
	for i, row := range rows {
		data[i] = []string{
			row.Path,
			strconv.Itoa(row.Line),
			row.Severity,
			row.Message,
			row.Source,
		}
	}
	return WriteCSV(dir, filename, header, data)
}

// WriteFileSummaryCSV writes the per-file ranking.
func WriteFileSummaryCSV(dir string, entries []types.FileSummaryEntry, now time.Time) (string, error) {
	filename := fmt.Sprintf("file_summary_%s.csv", now.Format(stampLayout))
	header := []string{"Rank", "Path", "Highlights", "Errors", "Warnings", "Other"}
	data := make([][]string, len(entries))
	for i, entry := range entries {
		data[i] = []string{
			strconv.Itoa(entry.Rank),
			entry.Path,
			strconv.Itoa(entry.Count),
			strconv.Itoa(entry.Errors),
			strconv.Itoa(entry.Warnings),
			strconv.Itoa(entry.Other),
		}
	}
	return WriteCSV(dir, filename, header, data)
}
