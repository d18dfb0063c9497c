package tracker

import "context"

type metaKey struct{}

// ContextWithMeta attaches request metadata to ctx.
func ContextWithMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFromContext extracts request metadata, returning the zero value
// when none was attached.
func MetaFromContext(ctx context.Context) RequestMeta {
	if meta, ok := ctx.Value(metaKey{}).(RequestMeta); ok {
		return meta
	}

	return RequestMeta{}
}
