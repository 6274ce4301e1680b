package types

// Severity classifies a reported issue. The set is closed: anything a report
// calls neither "error" nor "warning" is SeverityOther.
type Severity int

const (
	SeverityOther Severity = iota
	SeverityWarning
	SeverityError
)

// ParseSeverity maps a report severity attribute onto the closed set.
// Matching is exact, so "ERROR" or "info" land in SeverityOther.
func ParseSeverity(s string) Severity {
	switch s {
	case "error":
		return SeverityError
	case "warning":
		return SeverityWarning
	default:
		return SeverityOther
	}
}

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "other"
	}
}

// ErrorRecord is one <error> entry of a report.
type ErrorRecord struct {
	FilePath    string
	Line        int
	Column      int
	Severity    Severity
	RawSeverity string
	Message     string
	Source      string
}

// FileEntry groups the records reported for one file, in report order.
type FileEntry struct {
	Name   string
	Errors []ErrorRecord
	// InvalidLines counts <error> entries dropped for an unusable line attribute.
	InvalidLines int
}

// Style is the fill and border colour of a highlighted line.
type Style struct {
	Fill   string
	Border string
}

// HighlightRegion is one highlighted line of a document.
type HighlightRegion struct {
	LineIndex   int
	EndColumn   int
	Severity    Severity
	RawSeverity string
	Style       Style
	Message     string
	Source      string
	Tooltip     string
}

// Line returns the 1-based line number of the region.
func (r HighlightRegion) Line() int {
	return r.LineIndex + 1
}

// Label returns the severity as the report spelled it, falling back to the
// severity class when the report left it empty.
func (r HighlightRegion) Label() string {
	if r.RawSeverity != "" {
		return r.RawSeverity
	}
	return r.Severity.String()
}
