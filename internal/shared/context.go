package shared

import "context"

type subjectContextKey struct{}

// ContextWithSubject stores the authenticated subject (normalized email) in context.
func ContextWithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, subject)
}

// SubjectFromContext extracts the authenticated subject from context.
func SubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(subjectContextKey{}).(string)
	return subject
}
