package export

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/salmonumbrella/apiform/internal/dataset"
	clierrors "github.com/salmonumbrella/apiform/internal/errors"
	"github.com/salmonumbrella/apiform/internal/testutil"
)

func sampleDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Parse([]byte(`[{"id":1,"joke":"x","lang":"de"}]`))
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestNewRequest_UsesLiveVisibility(t *testing.T) {
	ds := sampleDataset(t)
	vis := dataset.ForDataset(ds).InvertAll().Toggle("joke")

	req := NewRequest(ds, vis, "https://example.com/joke")

	if want := []string{"id", "joke", "lang"}; !reflect.DeepEqual(req.Columns, want) {
		t.Errorf("Columns = %v, want %v", req.Columns, want)
	}
	want := map[string]bool{"id": true, "joke": false, "lang": true}
	if !reflect.DeepEqual(req.ExcludedColumns, want) {
		t.Errorf("ExcludedColumns = %v, want %v", req.ExcludedColumns, want)
	}
	if req.URL != "https://example.com/joke" {
		t.Errorf("URL = %q", req.URL)
	}
}

func TestRequest_WireShape(t *testing.T) {
	ds := sampleDataset(t)
	raw, err := json.Marshal(NewRequest(ds, dataset.ForDataset(ds), "u"))
	if err != nil {
		t.Fatal(err)
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"columns", "url", "excludedColumns", "apiKeys", "filters"} {
		if _, ok := body[key]; !ok {
			t.Errorf("missing %q in %s", key, raw)
		}
	}
	if apiKeys, ok := body["apiKeys"].(map[string]any); !ok || len(apiKeys) != 0 {
		t.Errorf("apiKeys should be an empty object, got %#v", body["apiKeys"])
	}
	if filters, ok := body["filters"].(map[string]any); !ok || len(filters) != 0 {
		t.Errorf("filters should be an empty object, got %#v", body["filters"])
	}
}

func TestNewRequest_EmptyDataset(t *testing.T) {
	req := NewRequest(dataset.Empty(), dataset.NewVisibility(nil), "u")
	if req.Columns == nil || len(req.Columns) != 0 {
		t.Errorf("Columns = %#v, want empty slice", req.Columns)
	}
	if len(req.ExcludedColumns) != 0 {
		t.Errorf("ExcludedColumns = %v", req.ExcludedColumns)
	}
}

func TestExport_Success(t *testing.T) {
	ms := testutil.NewMockServer()
	defer ms.Close()
	ms.HandleExport("PDF", "application/pdf", []byte("%PDF-1.7"))

	ds := sampleDataset(t)
	client := NewClient(ms.URL() + "/")
	dl, err := client.Export(context.Background(), FormatPDF, NewRequest(ds, dataset.ForDataset(ds), "https://src"))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if dl.Filename != "data.pdf" {
		t.Errorf("Filename = %q", dl.Filename)
	}
	if string(dl.Body) != "%PDF-1.7" {
		t.Errorf("Body = %q", dl.Body)
	}

	last, ok := ms.LastRequest()
	if !ok {
		t.Fatal("no request recorded")
	}
	if last.Method != http.MethodPost || last.Path != "/api/PDF" {
		t.Errorf("request = %s %s", last.Method, last.Path)
	}
	if ct := last.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var sent Request
	if err := json.Unmarshal(last.Body, &sent); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if sent.URL != "https://src" || len(sent.Columns) != 3 {
		t.Errorf("sent = %+v", sent)
	}
}

func TestExport_ContentTypeFallback(t *testing.T) {
	ms := testutil.NewMockServer()
	defer ms.Close()
	ms.Handle(http.MethodPost, "/api/CSV", func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte("a,b\n"))
	})

	dl, err := NewClient(ms.URL()).Export(context.Background(), FormatCSV, Request{})
	if err != nil {
		t.Fatal(err)
	}
	if dl.ContentType == "" {
		t.Error("expected a content type derived from the extension")
	}
}

func TestExport_Failures(t *testing.T) {
	ms := testutil.NewMockServer()
	defer ms.Close()
	ms.HandleRaw(http.MethodPost, "/api/PNG", http.StatusBadGateway, "text/plain", "upstream down")

	_, err := NewClient(ms.URL()).Export(context.Background(), FormatPNG, Request{})
	if !clierrors.IsExportError(err) {
		t.Fatalf("expected ExportError, got %v", err)
	}
	if got := clierrors.StatusCode(err); got != http.StatusBadGateway {
		t.Errorf("status = %d", got)
	}

	// No handler registered: 404.
	_, err = NewClient(ms.URL()).Export(context.Background(), FormatJPG, Request{})
	if got := clierrors.StatusCode(err); got != http.StatusNotFound {
		t.Errorf("status = %d, want 404", got)
	}

	if got := len(ms.Requests()); got != 2 {
		t.Errorf("expected exactly one attempt per export (no retry), got %d requests", got)
	}
}

func TestExport_NetworkError(t *testing.T) {
	ms := testutil.NewMockServer()
	base := ms.URL()
	ms.Close()

	_, err := NewClient(base).Export(context.Background(), FormatCSV, Request{})
	if !clierrors.IsExportError(err) {
		t.Fatalf("expected ExportError, got %v", err)
	}
	if !clierrors.IsContextualError(err) {
		t.Error("expected request context on network failure")
	}
}

func TestDownload_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	dl := &Download{Format: FormatJSON, Filename: FormatJSON.Filename(), Body: []byte(`[]`)}

	path, err := dl.Save(dir)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Base(path) != "data.json" {
		t.Errorf("path = %q", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `[]` {
		t.Errorf("file content = %q", got)
	}
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	c := NewClient("")
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL() = %q", c.BaseURL())
	}
	if got := c.Endpoint(FormatCSV); got != "http://localhost:3001/api/CSV" {
		t.Errorf("Endpoint() = %q", got)
	}
}
