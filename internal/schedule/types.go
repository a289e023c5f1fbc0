package schedule

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// jobNamespace seeds the name-based UUIDs used as job IDs.
var jobNamespace = uuid.MustParse("6f1c2a52-9d0e-4f7b-8a51-3c7d2e4b9a10")

// Job is a command waiting to be sent to a set of items.
type Job struct {
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	Items     []string  `json:"items"`
	DueAt     time.Time `json:"due_at"`
	SiteID    string    `json:"site_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// JobID returns the deterministic ID for command on items.
//
// Item order and repeated names do not matter.
func JobID(command string, items []string) string {
	key := command + "\x00" + strings.Join(uniqueItems(items), "\x00")
	return uuid.NewSHA1(jobNamespace, []byte(key)).String()
}

// uniqueItems returns a sorted copy of items without repeats.
func uniqueItems(items []string) []string {
	out := slices.Clone(items)
	slices.Sort(out)
	return slices.Compact(out)
}

// Repository persists pending jobs.
type Repository interface {
	// Save inserts the job or replaces the job with the same ID.
	Save(ctx context.Context, job *Job) error
	// Delete removes a job. Returns ErrJobNotFound if no job has the ID.
	Delete(ctx context.Context, id string) error
	// List returns all pending jobs ordered by due time.
	List(ctx context.Context) ([]Job, error)
}

// Dispatcher sends a due command to its items.
type Dispatcher interface {
	Dispatch(ctx context.Context, command string, items []string) error
}

// Logger defines the logging interface used by the Scheduler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
