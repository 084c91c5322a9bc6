package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
)

// ErrFmtHandler decorates a slog handler: every error-valued attribute of
// a record gets a sibling "<key>.stacktrace" attribute, and the one stored
// under ErrAttrKey gets StacktraceAttrKey.
type ErrFmtHandler struct {
	next slog.Handler
}

// WrapByErrFmtHandler wraps next with stack trace extraction.
func WrapByErrFmtHandler(next slog.Handler) slog.Handler {
	return &ErrFmtHandler{next: next}
}

func (h *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var traces []slog.Attr
	r.Attrs(func(attr slog.Attr) bool {
		err, ok := attr.Value.Any().(error)
		if !ok {
			return true
		}
		st := extractStacktrace(err)
		if st == "" {
			return true
		}
		key := attr.Key + "." + StacktraceAttrKey
		if attr.Key == ErrAttrKey {
			key = StacktraceAttrKey
		}
		traces = append(traces, slog.String(key, st))
		return true
	})
	r.AddAttrs(traces...)
	return h.next.Handle(ctx, r)
}

func (h *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ErrFmtHandler) WithGroup(name string) slog.Handler {
	return &ErrFmtHandler{next: h.next.WithGroup(name)}
}

// extractStacktrace returns the first safe detail cockroachdb/errors
// recorded for err, which holds the stack captured by WithStack.
func extractStacktrace(err error) string {
	details := errors.GetSafeDetails(err).SafeDetails
	if len(details) == 0 {
		return ""
	}
	return details[0]
}
