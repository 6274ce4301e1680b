// Package report reads Checkstyle-style XML reports into per-file error records.
package report

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"xmlannotator/internal/types"
)

var (
	// ErrMalformedReport is returned when the document is not a checkstyle report.
	ErrMalformedReport = errors.New("malformed report")
	// ErrEmptyReport is returned when the report lists no files.
	ErrEmptyReport = errors.New("no files found in report")
)

type checkstyleXML struct {
	XMLName xml.Name  `xml:"checkstyle"`
	Version string    `xml:"version,attr"`
	Files   []fileXML `xml:"file"`
}

type fileXML struct {
	Name   string     `xml:"name,attr"`
	Errors []errorXML `xml:"error"`
}

type errorXML struct {
	Line     string `xml:"line,attr"`
	Column   string `xml:"column,attr"`
	Severity string `xml:"severity,attr"`
	Message  string `xml:"message,attr"`
	Source   string `xml:"source,attr"`
}

// Report is a parsed report. Files keep document order.
type Report struct {
	Path     string
	Version  string
	Files    []types.FileEntry
	Warnings []string
}

// ErrorCount returns the number of records across all files.
func (r *Report) ErrorCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Errors)
	}
	return n
}

// Parse decodes a report. A lone <file> or <error> element is treated like a
// one-element list. Entries with an unusable line attribute are dropped and
// described in Warnings.
func Parse(data []byte) (*Report, error) {
	var doc checkstyleXML
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}
	if err := checkTrailer(dec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}
	if len(doc.Files) == 0 {
		return nil, ErrEmptyReport
	}

	rep := &Report{
		Version: doc.Version,
		Files:   make([]types.FileEntry, 0, len(doc.Files)),
	}
	for _, f := range doc.Files {
		entry := types.FileEntry{
			Name:   f.Name,
			Errors: make([]types.ErrorRecord, 0, len(f.Errors)),
		}
		for i, e := range f.Errors {
			line, err := strconv.Atoi(strings.TrimSpace(e.Line))
			if err != nil || line < 1 {
				entry.InvalidLines++
				rep.Warnings = append(rep.Warnings,
					fmt.Sprintf("%s: error #%d has invalid line %q", f.Name, i+1, e.Line))
				continue
			}
			col, _ := strconv.Atoi(strings.TrimSpace(e.Column))
			entry.Errors = append(entry.Errors, types.ErrorRecord{
				FilePath:    f.Name,
				Line:        line,
				Column:      col,
				Severity:    types.ParseSeverity(e.Severity),
				RawSeverity: e.Severity,
				Message:     e.Message,
				Source:      e.Source,
			})
		}
		rep.Files = append(rep.Files, entry)
	}
	return rep, nil
}

// checkTrailer reads past the root element. Only whitespace, comments and
// processing instructions may follow it.
func checkTrailer(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return fmt.Errorf("unexpected text %q after root element", bytes.TrimSpace(t))
			}
		case xml.StartElement:
			return fmt.Errorf("unexpected element <%s> after root element", t.Name.Local)
		default:
			return fmt.Errorf("unexpected %T after root element", tok)
		}
	}
}

// charsetReader accepts the single-byte encodings some report writers still
// declare. UTF-8 never reaches here.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	case "us-ascii", "ascii":
		return input, nil
	}
	return nil, fmt.Errorf("unsupported charset %q", label)
}
