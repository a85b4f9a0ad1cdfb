package authkit

import "context"

type requestIDContextKey struct{}

// WithRequestID attaches a correlation identifier to ctx. The gateway and the
// auth flows copy it into audit events; when absent, a fresh identifier is
// generated per outgoing request instead.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	requestID, _ := ctx.Value(requestIDContextKey{}).(string)
	return requestID
}
