// Package view holds the form state shared by the browser surface and the
// reducer that advances it.
package view

import (
	"github.com/salmonumbrella/apiform/internal/dataset"
	"github.com/salmonumbrella/apiform/internal/export"
	"github.com/salmonumbrella/apiform/internal/source"
)

// State is a snapshot of the form. Values are never mutated in place;
// Reduce returns a new State.
type State struct {
	URL     string
	Headers source.HeaderPairs
	Data    *dataset.Dataset
	Columns dataset.Visibility
	Format  export.Format
	Err     string
	Status  string
}

// Initial returns the form as first shown: the given URL, one empty header
// row, no data, CSV selected.
func Initial(url string) State {
	if url == "" {
		url = source.DefaultURL
	}
	return State{
		URL:     url,
		Headers: source.HeaderPairs{{}},
		Data:    dataset.Empty(),
		Columns: dataset.NewVisibility(nil),
		Format:  export.FormatCSV,
	}
}

// Table projects the data through the live column state.
func (s State) Table() dataset.Table {
	return dataset.Project(s.Data, s.Columns)
}

// ExportRequest builds the export body from the live column state.
func (s State) ExportRequest() export.Request {
	return export.NewRequest(s.Data, s.Columns, s.URL)
}

// HasData reports whether a dataset with at least one field is loaded.
func (s State) HasData() bool {
	return s.Columns.Len() > 0
}
