// Package export talks to the external export service that turns the
// displayed data into a downloadable file.
package export

import (
	"fmt"
	"strings"

	clierrors "github.com/salmonumbrella/apiform/internal/errors"
)

// Format is the export file-format tag.
type Format string

const (
	FormatCSV  Format = "CSV"
	FormatPDF  Format = "PDF"
	FormatJPG  Format = "JPG"
	FormatPNG  Format = "PNG"
	FormatJSON Format = "JSON"
)

// Formats lists every format in menu order.
func Formats() []Format {
	return []Format{FormatCSV, FormatPDF, FormatJPG, FormatPNG, FormatJSON}
}

// ParseFormat accepts a tag in any case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	names := make([]string, 0, len(Formats()))
	for _, known := range Formats() {
		names = append(names, string(known))
	}
	return "", &clierrors.ValidationError{
		Field:   "format",
		Message: fmt.Sprintf("%q is not one of %s", s, strings.Join(names, ", ")),
	}
}

// Extension is the lower-cased tag.
func (f Format) Extension() string {
	return strings.ToLower(string(f))
}

// Filename is the name the downloaded file is saved under.
func (f Format) Filename() string {
	return "data." + f.Extension()
}

func (f Format) String() string {
	return string(f)
}
