package export

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Format names an export file type.
type Format string

const (
	FormatCSV        Format = "csv"
	FormatCSVCompact Format = "csv-compact"
	FormatPDF        Format = "pdf"
	FormatXLSX       Format = "xlsx"
	FormatParquet    Format = "parquet"
	FormatText       Format = "txt"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatCSV, FormatCSVCompact, FormatPDF, FormatXLSX, FormatParquet, FormatText}
}

// ParseFormat is case-insensitive.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext is the file extension, without the dot.
func (f Format) Ext() string {
	if f == FormatCSVCompact {
		return "csv"
	}
	return string(f)
}

// ContentType is the MIME type served for downloads.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV, FormatCSVCompact:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	case FormatText:
		return "text/plain; charset=utf-8"
	}
	return "application/octet-stream"
}
