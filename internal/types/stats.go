package types

// FileStats counts the regions applied to one file, split by severity.
type FileStats struct {
	Path     string
	Count    int
	Errors   int
	Warnings int
	Other    int
}

// Add counts one region of the given severity.
func (s *FileStats) Add(sev Severity) {
	s.Count++
	switch sev {
	case SeverityError:
		s.Errors++
	case SeverityWarning:
		s.Warnings++
	default:
		s.Other++
	}
}

type FileSummaryEntry struct {
	Rank     int
	Path     string
	Count    int
	Errors   int
	Warnings int
	Other    int
}

// AnnotationRow is one exported annotation.
type AnnotationRow struct {
	Path     string
	Line     int
	Severity string
	Message  string
	Source   string
}
