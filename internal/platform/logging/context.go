package logging

import (
	"context"

	"go.uber.org/zap"
)

type operationCtxKey struct{}
type subjectCtxKey struct{}

func WithOperation(ctx context.Context, id, name string) context.Context {
	return context.WithValue(ctx, operationCtxKey{}, operation{id: id, name: name})
}

func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectCtxKey{}, subject)
}

type operation struct {
	id   string
	name string
}

// ContextFields extracts correlation data from ctx.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 3)
	if ctx == nil {
		return fields
	}
	if op, ok := ctx.Value(operationCtxKey{}).(operation); ok {
		fields = append(fields, zap.String("op.id", op.id), zap.String("op.name", op.name))
	}
	if subject, ok := ctx.Value(subjectCtxKey{}).(string); ok && subject != "" {
		fields = append(fields, zap.String("subject", subject))
	}
	return fields
}
