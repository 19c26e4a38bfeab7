package export

import (
	"github.com/salmonumbrella/apiform/internal/dataset"
)

// Request is the body sent to POST /api/<format>.
type Request struct {
	Columns         []string          `json:"columns"`
	URL             string            `json:"url"`
	ExcludedColumns map[string]bool   `json:"excludedColumns"`
	APIKeys         map[string]string `json:"apiKeys"`
	Filters         map[string]any    `json:"filters"`
}

// NewRequest builds the body from the current dataset and the live column
// state. Columns lists every field of the first row; ExcludedColumns marks
// the hidden ones with true.
func NewRequest(ds *dataset.Dataset, vis dataset.Visibility, sourceURL string) Request {
	excluded := vis.Excluded()
	// Columns the map does not know about are exported.
	for _, col := range ds.Columns() {
		if _, ok := excluded[col]; !ok {
			excluded[col] = false
		}
	}
	return Request{
		Columns:         ds.Columns(),
		URL:             sourceURL,
		ExcludedColumns: excluded,
		APIKeys:         map[string]string{},
		Filters:         map[string]any{},
	}
}
