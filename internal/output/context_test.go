package output

import (
	"context"
	"testing"
)

func TestContextDefaults(t *testing.T) {
	ctx := context.Background()
	if FormatFromContext(ctx) != FormatText {
		t.Error("default format should be text")
	}
	if QueryFromContext(ctx) != "" || JSONPathFromContext(ctx) != "" {
		t.Error("query and jsonpath should default to empty")
	}
	if QuietFromContext(ctx) || FailEmptyFromContext(ctx) || CompactJSONFromContext(ctx) {
		t.Error("flags should default to false")
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithFormat(context.Background(), FormatYAML)
	ctx = WithQuery(ctx, ".a")
	ctx = WithJSONPath(ctx, "$.b")
	ctx = WithQuiet(ctx, true)
	ctx = WithFailEmpty(ctx, true)
	ctx = WithCompactJSON(ctx, true)

	if FormatFromContext(ctx) != FormatYAML {
		t.Error("format")
	}
	if QueryFromContext(ctx) != ".a" || JSONPathFromContext(ctx) != "$.b" {
		t.Error("query/jsonpath")
	}
	if !QuietFromContext(ctx) || !FailEmptyFromContext(ctx) || !CompactJSONFromContext(ctx) {
		t.Error("flags")
	}
}
