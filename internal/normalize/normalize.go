// Package normalize converts uploaded delimited text, CSV, JSON and XML
// bytes into the canonical tabular dataset.
package normalize

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/dbroute/internal/dataset"
)

// SourceKind is the declared or detected format of an uploaded file.
type SourceKind string

const (
	KindText SourceKind = "txt"
	KindCSV  SourceKind = "csv"
	KindJSON SourceKind = "json"
	KindXML  SourceKind = "xml"
)

// Kinds lists every supported source kind.
func Kinds() []SourceKind {
	return []SourceKind{KindCSV, KindText, KindJSON, KindXML}
}

// FormatError reports malformed or unsupported input.
type FormatError struct {
	Kind   SourceKind
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("format error")
	if e.Kind != "" {
		b.WriteString(" (")
		b.WriteString(string(e.Kind))
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FormatError) Unwrap() error { return e.Err }

func formatErr(kind SourceKind, reason string, err error) *FormatError {
	return &FormatError{Kind: kind, Reason: reason, Err: err}
}

// ParseSourceKind maps a user supplied kind ("JSON", ".xml") to a SourceKind.
func ParseSourceKind(s string) (SourceKind, error) {
	k := SourceKind(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", formatErr("", fmt.Sprintf("unsupported file format %q", s), nil)
}

// DetectSourceKind picks the source kind from a file name's extension.
func DetectSourceKind(fileName string) (SourceKind, error) {
	ext := filepath.Ext(fileName)
	if ext == "" {
		return "", formatErr("", fmt.Sprintf("unsupported file format: %q has no extension", fileName), nil)
	}
	return ParseSourceKind(ext)
}

// Normalize parses src according to kind. It performs no I/O.
func Normalize(src []byte, kind SourceKind) (*dataset.Dataset, error) {
	src = trimBOM(sanitizeUTF8(src))

	switch kind {
	case KindText:
		return fromText(src), nil
	case KindCSV:
		return fromCSV(src)
	case KindJSON:
		return fromJSON(src)
	case KindXML:
		return fromXML(src)
	default:
		return nil, formatErr(kind, "unsupported file format", nil)
	}
}

// columnName is the generated name for the 1-based column position i.
func columnName(i int) string {
	return fmt.Sprintf("column_%d", i)
}
