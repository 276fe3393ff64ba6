// Package export serializes parsed tracks as CSV or newline-delimited JSON.
package export

import (
	"fmt"
	"strings"
)

// Format is an export file format.
type Format string

const (
	CSV    Format = "csv"
	NDJSON Format = "ndjson"
)

// ParseFormat returns the format named s, ignoring case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, NDJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv or ndjson)", s)
	}
}

// FileName is the suggested download name for the format.
func (f Format) FileName() string {
	return "collection_analysis." + string(f)
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	if f == NDJSON {
		return "application/x-ndjson"
	}
	return "text/csv; charset=utf-8"
}
