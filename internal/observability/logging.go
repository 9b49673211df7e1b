// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

type correlationKey struct{}

var (
	repoOut     atomic.Pointer[slog.Logger]
	repoEnabled atomic.Bool
)

func init() {
	SetRepoOutput(os.Stdout)
	repoEnabled.Store(true)
}

// SetRepoOutput redirects repository audit records to w as JSON lines.
func SetRepoOutput(w io.Writer) {
	repoOut.Store(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// EnableRepoLogging toggles repository audit records.
func EnableRepoLogging(on bool) {
	repoEnabled.Store(on)
}

// WithCorrelationID tags ctx with the id that links a request to the
// repository records it produces.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// ExtractCorrelationID returns the id set by WithCorrelationID, or "".
func ExtractCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// RepoLogger writes one audit record per multi-row repository mutation.
type RepoLogger struct {
	table string
}

// NewRepoLogger returns a RepoLogger for table.
func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table}
}

func (l *RepoLogger) emit(ctx context.Context, level slog.Level, op string, attrs []slog.Attr) {
	if !repoEnabled.Load() {
		return
	}
	base := []slog.Attr{
		slog.String("table", l.table),
		slog.String("op", op),
	}
	if cid := ExtractCorrelationID(ctx); cid != "" {
		base = append(base, slog.String("correlation_id", cid))
	}
	repoOut.Load().LogAttrs(ctx, level, "repository "+op, append(base, attrs...)...)
}

// Mutation records a committed write.
func (l *RepoLogger) Mutation(ctx context.Context, op string, attrs ...slog.Attr) {
	l.emit(ctx, slog.LevelInfo, op, attrs)
}

// Failure records a write that was rolled back.
func (l *RepoLogger) Failure(ctx context.Context, op string, err error) {
	l.emit(ctx, slog.LevelError, op, []slog.Attr{slog.String("error", err.Error())})
}
