package domain

import "context"

type callerKey struct{}

// Caller is the identity a request is made on behalf of. An empty token
// is an anonymous caller.
type Caller struct {
	Token string
}

func (c Caller) Anonymous() bool { return c.Token == "" }

// WithCaller returns a new context carrying the caller
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext extracts the caller, anonymous if none is set
func CallerFromContext(ctx context.Context) Caller {
	if c, ok := ctx.Value(callerKey{}).(Caller); ok {
		return c
	}
	return Caller{}
}
