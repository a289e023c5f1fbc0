package audit

import (
	"context"
	"time"
)

// Logger defines the logging interface used by the Recorder.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

type sourceKey struct{}

// WithSource tags ctx with the origin of the commands dispatched under it.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFrom returns the origin stored by WithSource, or SourceAPI.
func SourceFrom(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey{}).(string); ok && s != "" {
		return s
	}
	return SourceAPI
}

// Recorder writes one entry per item command. It satisfies item.Recorder.
//
// A failed insert is logged and never reaches the dispatcher.
type Recorder struct {
	repo   Repository
	logger Logger
	now    func() time.Time
}

// NewRecorder creates a Recorder writing to repo.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo, logger: noopLogger{}, now: time.Now}
}

// SetLogger sets the logger for insert failures.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// RecordCommand stores the outcome of one item command.
func (r *Recorder) RecordCommand(ctx context.Context, name, command string, err error) {
	entry := &Entry{
		Item:      name,
		Command:   command,
		Outcome:   OutcomeDelivered,
		Source:    SourceFrom(ctx),
		CreatedAt: r.now().UTC(),
	}
	if err != nil {
		entry.Outcome = OutcomeFailed
		entry.Error = err.Error()
	}

	// The command already happened; a cancelled request must not lose its record.
	if createErr := r.repo.Create(context.WithoutCancel(ctx), entry); createErr != nil {
		r.logger.Warn("command log write failed", "item", name, "error", createErr)
	}
}
