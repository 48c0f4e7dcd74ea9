package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithOperationID attaches an op_id field to the contextual logger so every
// trace event from one acquisition or renewal can be correlated.
func WithOperationID(ctx context.Context, opID string) context.Context {
	l := FromContext(ctx)
	return WithContext(ctx, l.With("op_id", opID))
}
