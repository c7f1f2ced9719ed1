package goAccount

import "context"

type contextKey uint8

const (
	clientIPKey contextKey = iota + 1
	userAgentKey
)

// WithClientIP attaches the caller's IP address to ctx. It ends up in audit
// events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// WithUserAgent attaches the HTTP User-Agent to ctx for audit metadata.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentKey, userAgent)
}

func contextString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

func clientIPFromContext(ctx context.Context) string  { return contextString(ctx, clientIPKey) }
func userAgentFromContext(ctx context.Context) string { return contextString(ctx, userAgentKey) }
