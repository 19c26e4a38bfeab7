package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/salmonumbrella/apiform/internal/export"
	"github.com/salmonumbrella/apiform/internal/source"
	"github.com/salmonumbrella/apiform/internal/testutil"
	"github.com/salmonumbrella/apiform/internal/view"
)

type fixture struct {
	srv     *Server
	handler http.Handler
	api     *testutil.MockServer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := testutil.NewMockServer()
	t.Cleanup(api.Close)

	srv, err := New(Config{
		URL:      api.URL() + "/items",
		Fetcher:  source.NewClient(),
		Exporter: export.NewClient(api.URL()),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{srv: srv, handler: srv.Handler(), api: api}
}

func (f *fixture) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(Config{Exporter: export.NewClient("")}); err == nil {
		t.Error("expected error without fetcher")
	}
	if _, err := New(Config{Fetcher: source.NewClient()}); err == nil {
		t.Error("expected error without exporter")
	}
}

func TestIndex_InitialForm(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Add API Key", "Fetch Data", "Export Data", f.api.URL() + "/items"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	for _, format := range export.Formats() {
		if !strings.Contains(body, "/export?format="+string(format)) {
			t.Errorf("export menu missing %s", format)
		}
	}
	if strings.Contains(body, "Invert Selection") {
		t.Error("column controls should be hidden before a fetch")
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request ID header")
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestHeaders_EditAndFetch(t *testing.T) {
	f := newFixture(t)
	f.api.HandleRaw(http.MethodGet, "/items", http.StatusOK, "application/json", `[{"id":1,"joke":"ha"}]`)

	f.post(t, "/headers/edit", url.Values{"index": {"0"}, "field": {"key"}, "value": {"X-Api-Key"}})
	f.post(t, "/headers/edit", url.Values{"index": {"0"}, "field": {"value"}, "value": {"secret"}})
	f.post(t, "/headers/add", nil)

	rec := f.post(t, "/fetch", nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("fetch response = %d %s", rec.Code, rec.Header().Get("Location"))
	}

	last, ok := f.api.LastRequest()
	if !ok {
		t.Fatal("no upstream request")
	}
	if got := last.Header.Get("X-Api-Key"); got != "secret" {
		t.Errorf("X-Api-Key = %q", got)
	}

	st := f.srv.State()
	if st.Data.Len() != 1 || len(st.Headers) != 2 {
		t.Errorf("state = rows %d headers %d", st.Data.Len(), len(st.Headers))
	}

	body := f.get(t, "/").Body.String()
	for _, want := range []string{"Invert Selection", "<th>id</th>", "<td>ha</td>"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestFetch_FailureShowsAlertAndClears(t *testing.T) {
	f := newFixture(t)
	f.api.HandleRaw(http.MethodGet, "/items", http.StatusOK, "application/json", `[{"id":1}]`)
	f.post(t, "/fetch", nil)

	f.api.HandleRaw(http.MethodGet, "/items", http.StatusInternalServerError, "text/plain", "boom")
	f.post(t, "/fetch", nil)

	st := f.srv.State()
	if st.Err != "error fetching data: HTTP error! Status: 500" {
		t.Errorf("Err = %q", st.Err)
	}
	if st.HasData() {
		t.Error("failed fetch should clear the table")
	}

	body := f.get(t, "/").Body.String()
	if !strings.Contains(body, `role="alert"`) || !strings.Contains(body, "window.alert(") {
		t.Error("expected alert banner and window.alert")
	}

	f.post(t, "/dismiss", nil)
	if f.srv.State().Err != "" {
		t.Error("dismiss should clear the error")
	}
}

func TestFetch_URLFromForm(t *testing.T) {
	f := newFixture(t)
	f.api.HandleRaw(http.MethodGet, "/other", http.StatusOK, "application/json", `{"a":1}`)

	f.post(t, "/fetch", url.Values{"url": {f.api.URL() + "/other"}})
	st := f.srv.State()
	if st.URL != f.api.URL()+"/other" || st.Data.Len() != 1 {
		t.Errorf("URL = %q rows = %d", st.URL, st.Data.Len())
	}
}

func TestColumns_ToggleInvertAndExport(t *testing.T) {
	f := newFixture(t)
	f.api.HandleRaw(http.MethodGet, "/items", http.StatusOK, "application/json", `[{"a":1,"b":2,"c":3}]`)
	f.api.HandleExport("PDF", "application/pdf", []byte("%PDF"))

	f.post(t, "/fetch", nil)
	f.post(t, "/columns/toggle", url.Values{"name": {"a"}})
	f.post(t, "/columns/invert", nil)
	f.post(t, "/columns/toggle", url.Values{"name": {"b"}})

	rec := f.post(t, "/export?format=PDF", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="data.pdf"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rec.Body.String() != "%PDF" {
		t.Errorf("body = %q", rec.Body.String())
	}

	last, _ := f.api.LastRequest()
	var sent export.Request
	if err := json.Unmarshal(last.Body, &sent); err != nil {
		t.Fatal(err)
	}
	// a hidden, inverted -> visible; b, c visible, inverted -> hidden; b toggled back.
	want := map[string]bool{"a": false, "b": false, "c": true}
	for k, v := range want {
		if sent.ExcludedColumns[k] != v {
			t.Errorf("excludedColumns[%s] = %v, want %v", k, sent.ExcludedColumns[k], v)
		}
	}

	st := f.srv.State()
	if st.Format != export.FormatPDF || st.Status != "Exported data.pdf" {
		t.Errorf("format = %s status = %q", st.Format, st.Status)
	}
}

func TestExport_FailureAlerts(t *testing.T) {
	f := newFixture(t)
	rec := f.post(t, "/export?format=csv", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := f.srv.State().Err; got != "error exporting data as CSV: HTTP error! Status: 404" {
		t.Errorf("Err = %q", got)
	}
}

func TestExport_BadFormat(t *testing.T) {
	f := newFixture(t)
	if rec := f.post(t, "/export?format=docx", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHeaders_BadInput(t *testing.T) {
	f := newFixture(t)
	if rec := f.post(t, "/headers/edit", url.Values{"index": {"x"}}); rec.Code != http.StatusBadRequest {
		t.Errorf("bad index status = %d", rec.Code)
	}
	if rec := f.post(t, "/headers/edit", url.Values{"index": {"0"}, "field": {"nope"}}); rec.Code != http.StatusBadRequest {
		t.Errorf("bad field status = %d", rec.Code)
	}
	if rec := f.post(t, "/headers/remove", url.Values{"index": {""}}); rec.Code != http.StatusBadRequest {
		t.Errorf("bad remove status = %d", rec.Code)
	}

	f.post(t, "/headers/remove", url.Values{"index": {"0"}})
	if n := len(f.srv.State().Headers); n != 0 {
		t.Errorf("headers = %d after remove", n)
	}
}

func TestSetURL(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/url", url.Values{"url": {"https://example.com/x"}})
	if got := f.srv.State().URL; got != "https://example.com/x" {
		t.Errorf("URL = %q", got)
	}
}

func TestProfileHeadersSentFirst(t *testing.T) {
	api := testutil.NewMockServer()
	defer api.Close()
	api.HandleRaw(http.MethodGet, "/items", http.StatusOK, "application/json", `[]`)

	srv, err := New(Config{
		URL:      api.URL() + "/items",
		Fetcher:  source.NewClient(),
		Exporter: export.NewClient(api.URL()),
		Profile:  source.HeaderPairs{{Key: "X-Key", Value: "from-profile"}, {Key: "X-Team", Value: "t1"}},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	srv.Dispatch(view.EditHeader{Index: 0, Field: view.HeaderKey, Value: "X-Key"})
	srv.Dispatch(view.EditHeader{Index: 0, Field: view.HeaderValue, Value: "from-form"})

	req := httptest.NewRequest(http.MethodPost, "/fetch", nil)
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

	last, _ := api.LastRequest()
	if got := last.Header.Get("X-Key"); got != "from-form" {
		t.Errorf("X-Key = %q, form pair should win", got)
	}
	if got := last.Header.Get("X-Team"); got != "t1" {
		t.Errorf("X-Team = %q", got)
	}
}

func TestRequestID_ReusesIncoming(t *testing.T) {
	var logs bytes.Buffer
	srv, err := New(Config{
		Fetcher:  source.NewClient(),
		Exporter: export.NewClient(""),
		Logger:   slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	if err != nil {
		t.Fatal(err)
	}

	const id = "3f1c2a9e-8d4b-4c6f-9a2e-1b7d5e0f4a3c"
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != id {
		t.Errorf("request ID = %q, want %q", got, id)
	}
	if !strings.Contains(logs.String(), "request_id="+id) {
		t.Errorf("log missing request id: %s", logs.String())
	}
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("ListenAndServe() error = %v", err)
	}
}
