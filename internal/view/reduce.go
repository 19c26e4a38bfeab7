package view

import (
	"github.com/salmonumbrella/apiform/internal/dataset"
	"github.com/salmonumbrella/apiform/internal/export"
	"github.com/salmonumbrella/apiform/internal/source"
)

// Action is a discrete event applied by Reduce.
type Action interface {
	isAction()
}

// Field names accepted by EditHeader.
const (
	HeaderKey   = "key"
	HeaderValue = "value"
)

type (
	SetURL     struct{ URL string }
	AddHeader  struct{}
	EditHeader struct {
		Index int
		Field string
		Value string
	}
	RemoveHeader  struct{ Index int }
	Loaded        struct{ Dataset *dataset.Dataset }
	LoadFailed    struct{ Err error }
	ToggleColumn  struct{ Name string }
	InvertColumns struct{}
	SelectFormat  struct{ Format export.Format }
	ExportFailed  struct{ Err error }
	Exported      struct{ Filename string }
	Dismiss       struct{}
)

func (SetURL) isAction()        {}
func (AddHeader) isAction()     {}
func (EditHeader) isAction()    {}
func (RemoveHeader) isAction()  {}
func (Loaded) isAction()        {}
func (LoadFailed) isAction()    {}
func (ToggleColumn) isAction()  {}
func (InvertColumns) isAction() {}
func (SelectFormat) isAction()  {}
func (ExportFailed) isAction()  {}
func (Exported) isAction()      {}
func (Dismiss) isAction()       {}

// Reduce applies a to s and returns the next state. s is left untouched.
func Reduce(s State, a Action) State {
	next := s
	switch a := a.(type) {
	case SetURL:
		next.URL = a.URL

	case AddHeader:
		next.Headers = s.Headers.Append(source.HeaderPair{})

	case EditHeader:
		if a.Index < 0 || a.Index >= len(s.Headers) {
			return s
		}
		headers := s.Headers.Append()
		switch a.Field {
		case HeaderKey:
			headers[a.Index].Key = a.Value
		case HeaderValue:
			headers[a.Index].Value = a.Value
		default:
			return s
		}
		next.Headers = headers

	case RemoveHeader:
		if a.Index < 0 || a.Index >= len(s.Headers) {
			return s
		}
		headers := make(source.HeaderPairs, 0, len(s.Headers)-1)
		headers = append(headers, s.Headers[:a.Index]...)
		headers = append(headers, s.Headers[a.Index+1:]...)
		next.Headers = headers

	case Loaded:
		ds := a.Dataset
		if ds == nil {
			ds = dataset.Empty()
		}
		next.Data = ds
		next.Columns = dataset.ForDataset(ds)
		next.Err = ""
		next.Status = ""

	case LoadFailed:
		next.Data = dataset.Empty()
		next.Columns = dataset.NewVisibility(nil)
		next.Err = errorText(a.Err)
		next.Status = ""

	case ToggleColumn:
		next.Columns = s.Columns.Toggle(a.Name)

	case InvertColumns:
		next.Columns = s.Columns.InvertAll()

	case SelectFormat:
		next.Format = a.Format

	case ExportFailed:
		next.Err = errorText(a.Err)
		next.Status = ""

	case Exported:
		next.Err = ""
		next.Status = "Exported " + a.Filename

	case Dismiss:
		next.Err = ""
		next.Status = ""
	}
	return next
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
