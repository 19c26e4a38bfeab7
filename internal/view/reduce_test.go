package view

import (
	"errors"
	"reflect"
	"testing"

	"github.com/salmonumbrella/apiform/internal/dataset"
	"github.com/salmonumbrella/apiform/internal/export"
	"github.com/salmonumbrella/apiform/internal/source"
)

func mustParse(t *testing.T, body string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse(%s) error = %v", body, err)
	}
	return ds
}

func TestInitial(t *testing.T) {
	s := Initial("")
	if s.URL != source.DefaultURL {
		t.Errorf("URL = %q", s.URL)
	}
	if len(s.Headers) != 1 || s.Headers[0] != (source.HeaderPair{}) {
		t.Errorf("Headers = %#v, want one empty row", s.Headers)
	}
	if s.Format != export.FormatCSV {
		t.Errorf("Format = %q", s.Format)
	}
	if s.HasData() {
		t.Error("initial state should have no data")
	}
	if got := Initial("https://x").URL; got != "https://x" {
		t.Errorf("URL = %q", got)
	}
}

func TestReduce_Headers(t *testing.T) {
	s := Initial("")
	s = Reduce(s, EditHeader{Index: 0, Field: HeaderKey, Value: "X-Key"})
	s = Reduce(s, EditHeader{Index: 0, Field: HeaderValue, Value: "abc"})
	s = Reduce(s, AddHeader{})
	s = Reduce(s, EditHeader{Index: 1, Field: HeaderKey, Value: "X-Other"})

	want := source.HeaderPairs{{Key: "X-Key", Value: "abc"}, {Key: "X-Other"}}
	if !reflect.DeepEqual(s.Headers, want) {
		t.Fatalf("Headers = %#v, want %#v", s.Headers, want)
	}
	if got := s.Headers.Map(); !reflect.DeepEqual(got, map[string]string{"X-Key": "abc"}) {
		t.Errorf("Map() = %v", got)
	}

	s = Reduce(s, RemoveHeader{Index: 0})
	if !reflect.DeepEqual(s.Headers, source.HeaderPairs{{Key: "X-Other"}}) {
		t.Errorf("after remove Headers = %#v", s.Headers)
	}
}

func TestReduce_HeaderOutOfRangeIsNoop(t *testing.T) {
	s := Initial("")
	for _, a := range []Action{
		EditHeader{Index: 5, Field: HeaderKey, Value: "k"},
		EditHeader{Index: 0, Field: "bogus", Value: "k"},
		RemoveHeader{Index: -1},
		RemoveHeader{Index: 3},
	} {
		got := Reduce(s, a)
		if !reflect.DeepEqual(got.Headers, s.Headers) {
			t.Errorf("%#v changed headers to %#v", a, got.Headers)
		}
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	s := Initial("")
	s = Reduce(s, EditHeader{Index: 0, Field: HeaderKey, Value: "A"})
	s = Reduce(s, Loaded{Dataset: mustParse(t, `[{"a":1,"b":2}]`)})

	before := s
	headersBefore := s.Headers.Append()

	_ = Reduce(s, EditHeader{Index: 0, Field: HeaderKey, Value: "B"})
	_ = Reduce(s, RemoveHeader{Index: 0})
	_ = Reduce(s, ToggleColumn{Name: "a"})
	_ = Reduce(s, InvertColumns{})

	if !reflect.DeepEqual(s.Headers, headersBefore) {
		t.Errorf("headers mutated: %#v", s.Headers)
	}
	if !s.Columns.Equal(before.Columns) {
		t.Error("columns mutated")
	}
}

func TestReduce_LoadedResetsColumns(t *testing.T) {
	s := Reduce(Initial(""), Loaded{Dataset: mustParse(t, `[{"a":1,"b":2}]`)})
	s = Reduce(s, ToggleColumn{Name: "a"})
	if s.Columns.Visible("a") {
		t.Fatal("a should be hidden after toggle")
	}

	s = Reduce(s, Loaded{Dataset: mustParse(t, `{"a":3,"c":4}`)})
	if got := s.Columns.Names(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("Names() = %v", got)
	}
	if got := s.Columns.VisibleColumns(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("VisibleColumns() = %v, want all visible", got)
	}
}

func TestReduce_LoadFailedClears(t *testing.T) {
	s := Reduce(Initial(""), Loaded{Dataset: mustParse(t, `[{"a":1}]`)})
	s = Reduce(s, LoadFailed{Err: errors.New("error fetching data: HTTP error! Status: 500")})

	if s.Data.Len() != 0 || s.Columns.Len() != 0 {
		t.Errorf("data not cleared: rows=%d cols=%d", s.Data.Len(), s.Columns.Len())
	}
	if s.Err != "error fetching data: HTTP error! Status: 500" {
		t.Errorf("Err = %q", s.Err)
	}

	s = Reduce(s, Dismiss{})
	if s.Err != "" {
		t.Errorf("Err = %q after dismiss", s.Err)
	}
}

func TestReduce_InvertTwiceRestores(t *testing.T) {
	s := Reduce(Initial(""), Loaded{Dataset: mustParse(t, `[{"a":1,"b":2,"c":3}]`)})
	s = Reduce(s, ToggleColumn{Name: "b"})
	once := Reduce(s, InvertColumns{})
	if got := once.Columns.VisibleColumns(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("after invert VisibleColumns() = %v", got)
	}
	twice := Reduce(once, InvertColumns{})
	if !twice.Columns.Equal(s.Columns) {
		t.Error("invert twice should restore the original map")
	}
}

func TestState_ExportRequestUsesLiveColumns(t *testing.T) {
	s := Reduce(Initial("https://src"), Loaded{Dataset: mustParse(t, `[{"a":1,"b":2}]`)})
	s = Reduce(s, InvertColumns{})
	// Toggle after the invert must still be reflected.
	s = Reduce(s, ToggleColumn{Name: "a"})

	req := s.ExportRequest()
	want := map[string]bool{"a": false, "b": true}
	if !reflect.DeepEqual(req.ExcludedColumns, want) {
		t.Errorf("ExcludedColumns = %v, want %v", req.ExcludedColumns, want)
	}
	if req.URL != "https://src" {
		t.Errorf("URL = %q", req.URL)
	}
}

func TestReduce_ExportOutcome(t *testing.T) {
	s := Reduce(Initial(""), SelectFormat{Format: export.FormatPNG})
	if s.Format != export.FormatPNG {
		t.Errorf("Format = %q", s.Format)
	}

	s = Reduce(s, ExportFailed{Err: errors.New("boom")})
	if s.Err != "boom" {
		t.Errorf("Err = %q", s.Err)
	}
	s = Reduce(s, Exported{Filename: "data.png"})
	if s.Err != "" || s.Status != "Exported data.png" {
		t.Errorf("Err = %q, Status = %q", s.Err, s.Status)
	}
}

func TestState_Table(t *testing.T) {
	s := Reduce(Initial(""), Loaded{Dataset: mustParse(t, `[{"a":1,"b":null}]`)})
	s = Reduce(s, ToggleColumn{Name: "a"})

	tbl := s.Table()
	if !reflect.DeepEqual(tbl.Headers, []string{"b"}) {
		t.Errorf("Headers = %v", tbl.Headers)
	}
	if !reflect.DeepEqual(tbl.Rows, [][]string{{""}}) {
		t.Errorf("Rows = %v", tbl.Rows)
	}
}
