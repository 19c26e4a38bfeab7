package output

import "context"

type (
	formatKey      struct{}
	queryKey       struct{}
	jsonPathKey    struct{}
	quietKey       struct{}
	failEmptyKey   struct{}
	compactJSONKey struct{}
)

// fromContext returns the value stored under key, or the zero value.
func fromContext[T any](ctx context.Context, key any) T {
	v, _ := ctx.Value(key).(T)
	return v
}

// WithFormat attaches the output format resolved from flags, env and config.
func WithFormat(ctx context.Context, format Format) context.Context {
	return context.WithValue(ctx, formatKey{}, format)
}

// FormatFromContext returns the output format, FormatText when unset.
func FormatFromContext(ctx context.Context) Format {
	if f := fromContext[Format](ctx, formatKey{}); f != "" {
		return f
	}
	return FormatText
}

// WithQuery attaches a gojq expression applied before printing.
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey{}, query)
}

func QueryFromContext(ctx context.Context) string {
	return fromContext[string](ctx, queryKey{})
}

// WithJSONPath attaches a JSONPath expression applied before printing.
func WithJSONPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, jsonPathKey{}, path)
}

func JSONPathFromContext(ctx context.Context) string {
	return fromContext[string](ctx, jsonPathKey{})
}

// WithQuiet suppresses status lines.
func WithQuiet(ctx context.Context, quiet bool) context.Context {
	return context.WithValue(ctx, quietKey{}, quiet)
}

func QuietFromContext(ctx context.Context) bool {
	return fromContext[bool](ctx, quietKey{})
}

// WithFailEmpty makes Print fail with a user error on an empty result.
func WithFailEmpty(ctx context.Context, fail bool) context.Context {
	return context.WithValue(ctx, failEmptyKey{}, fail)
}

func FailEmptyFromContext(ctx context.Context) bool {
	return fromContext[bool](ctx, failEmptyKey{})
}

// WithCompactJSON prints JSON on one line instead of indented.
func WithCompactJSON(ctx context.Context, compact bool) context.Context {
	return context.WithValue(ctx, compactJSONKey{}, compact)
}

func CompactJSONFromContext(ctx context.Context) bool {
	return fromContext[bool](ctx, compactJSONKey{})
}
