package trace

import "context"

// ctxKey is the key type for storing Tracer in context.
type ctxKey struct{}

// FromContext extracts the Tracer from context.
// If not found, returns Nop tracer.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches a Tracer to context.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

type ringKey struct{}

// RingFromContext returns the crash ring stored in ctx, or nil.
func RingFromContext(ctx context.Context) *Ring {
	if ctx == nil {
		return nil
	}
	r, _ := ctx.Value(ringKey{}).(*Ring)
	return r
}

// WithRing attaches the crash ring to context.
func WithRing(ctx context.Context, r *Ring) context.Context {
	return context.WithValue(ctx, ringKey{}, r)
}
