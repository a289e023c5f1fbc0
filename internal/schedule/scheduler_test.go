package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-voice/migrations"
)

type dispatched struct {
	command string
	items   []string
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatched
	fired chan dispatched
	err   error
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{fired: make(chan dispatched, 16)}
}

func (f *fakeDispatcher) Dispatch(_ context.Context, command string, items []string) error {
	d := dispatched{command: command, items: items}
	f.mu.Lock()
	f.calls = append(f.calls, d)
	f.mu.Unlock()
	f.fired <- d
	return f.err
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func openRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if _, err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func waitFired(t *testing.T, f *fakeDispatcher) dispatched {
	t.Helper()
	select {
	case d := <-f.fired:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("job did not fire")
		return dispatched{}
	}
}

func TestJobID(t *testing.T) {
	a := JobID("OFF", []string{"Lampe_Bett", "Lampe_Vitrine"})
	b := JobID("OFF", []string{"Lampe_Vitrine", "Lampe_Bett"})
	if a != b {
		t.Errorf("JobID depends on item order: %s != %s", a, b)
	}
	if c := JobID("ON", []string{"Lampe_Bett", "Lampe_Vitrine"}); c == a {
		t.Error("JobID should differ per command")
	}
	if d := JobID("OFF", []string{"Lampe_Bett"}); d == a {
		t.Error("JobID should differ per item set")
	}
	if e := JobID("OFF", []string{"Lampe_Bett", "Lampe_Bett"}); e != JobID("OFF", []string{"Lampe_Bett"}) {
		t.Error("JobID depends on repeated item names")
	}
}

func TestSchedule_RepeatedItemsReplaceJob(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)
	s := New(repo, newFakeDispatcher(), nil)
	defer s.Stop()

	if _, err := s.Schedule(ctx, "OFF", []string{"Lampe_Bett"}, time.Hour, ""); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	job, err := s.Schedule(ctx, "OFF", []string{"Lampe_Bett", "Lampe_Bett"}, time.Hour, "")
	if err != nil {
		t.Fatalf("Schedule(repeated) error = %v", err)
	}
	if len(job.Items) != 1 || job.Items[0] != "Lampe_Bett" {
		t.Errorf("job.Items = %v, want [Lampe_Bett]", job.Items)
	}

	jobs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("List() = %d jobs, want 1", len(jobs))
	}
}

func TestSchedule_FiresAndRemovesJob(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)
	disp := newFakeDispatcher()
	s := New(repo, disp, nil)
	defer s.Stop()

	job, err := s.Schedule(ctx, "OFF", []string{"Lampe_Bett"}, 20*time.Millisecond, "schlafzimmer")
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if job.SiteID != "schlafzimmer" || job.ID != JobID("OFF", []string{"Lampe_Bett"}) {
		t.Errorf("Schedule() job = %+v", job)
	}

	got := waitFired(t, disp)
	if got.command != "OFF" || len(got.items) != 1 || got.items[0] != "Lampe_Bett" {
		t.Errorf("dispatched %+v", got)
	}

	jobs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("List() after firing = %d jobs, want 0", len(jobs))
	}
}

func TestSchedule_ReplacesPendingJob(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)
	disp := newFakeDispatcher()
	s := New(repo, disp, nil)
	defer s.Stop()

	first, err := s.Schedule(ctx, "OFF", []string{"Lampe_Bett", "Lampe_Vitrine"}, time.Hour, "")
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	second, err := s.Schedule(ctx, "OFF", []string{"Lampe_Vitrine", "Lampe_Bett"}, 2*time.Hour, "")
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("rescheduled job got new ID %s, want %s", second.ID, first.ID)
	}

	jobs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("List() = %d jobs, want 1", len(jobs))
	}
	if !jobs[0].DueAt.Equal(second.DueAt) {
		t.Errorf("DueAt = %v, want %v", jobs[0].DueAt, second.DueAt)
	}
}

func TestSchedule_ReplacedTimerDoesNotFire(t *testing.T) {
	ctx := context.Background()
	disp := newFakeDispatcher()
	s := New(openRepo(t), disp, nil)
	defer s.Stop()

	if _, err := s.Schedule(ctx, "ON", []string{"Anlage"}, 10*time.Millisecond, ""); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if _, err := s.Schedule(ctx, "ON", []string{"Anlage"}, time.Hour, ""); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	if n := disp.count(); n != 0 {
		t.Errorf("dispatch count = %d, want 0", n)
	}
}

func TestSchedule_Invalid(t *testing.T) {
	s := New(openRepo(t), newFakeDispatcher(), nil)
	defer s.Stop()

	tests := []struct {
		name    string
		command string
		items   []string
		delay   time.Duration
	}{
		{"no command", "", []string{"Anlage"}, time.Minute},
		{"no items", "ON", nil, time.Minute},
		{"negative delay", "ON", []string{"Anlage"}, -time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Schedule(context.Background(), tt.command, tt.items, tt.delay, "")
			if !errors.Is(err, ErrInvalidJob) {
				t.Errorf("Schedule() error = %v, want ErrInvalidJob", err)
			}
		})
	}
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	disp := newFakeDispatcher()
	s := New(openRepo(t), disp, nil)
	defer s.Stop()

	job, err := s.Schedule(ctx, "OFF", []string{"Fernseher"}, 30*time.Millisecond, "")
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if err := s.Cancel(ctx, job.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if err := s.Cancel(ctx, job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("second Cancel() error = %v, want ErrJobNotFound", err)
	}

	time.Sleep(80 * time.Millisecond)
	if n := disp.count(); n != 0 {
		t.Errorf("cancelled job dispatched %d times", n)
	}
	jobs, _ := s.List(ctx)
	if len(jobs) != 0 {
		t.Errorf("List() after cancel = %d jobs, want 0", len(jobs))
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)

	now := time.Now().UTC()
	overdue := Job{
		ID: JobID("OFF", []string{"Lampe_Bett"}), Command: "OFF", Items: []string{"Lampe_Bett"},
		DueAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour),
	}
	later := Job{
		ID: JobID("ON", []string{"Anlage"}), Command: "ON", Items: []string{"Anlage"},
		DueAt: now.Add(time.Hour), SiteID: "wohnzimmer", CreatedAt: now,
	}
	for _, j := range []Job{overdue, later} {
		if err := repo.Save(ctx, &j); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	disp := newFakeDispatcher()
	s := New(repo, disp, nil)
	defer s.Stop()

	n, err := s.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Restore() = %d, want 2", n)
	}

	got := waitFired(t, disp)
	if got.command != "OFF" {
		t.Errorf("overdue job dispatched %q, want OFF", got.command)
	}

	jobs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != later.ID || jobs[0].SiteID != "wohnzimmer" {
		t.Errorf("List() after restore = %+v", jobs)
	}
}

func TestStop_KeepsPersistedJobs(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)
	s := New(repo, newFakeDispatcher(), nil)

	if _, err := s.Schedule(ctx, "OFF", []string{"Anlage"}, time.Hour, ""); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	s.Stop()

	if _, err := s.Schedule(ctx, "ON", []string{"Anlage"}, time.Hour, ""); !errors.Is(err, ErrStopped) {
		t.Errorf("Schedule() after Stop error = %v, want ErrStopped", err)
	}
	jobs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("persisted jobs = %d, want 1", len(jobs))
	}
}

func TestRepository_DeleteMissing(t *testing.T) {
	if err := openRepo(t).Delete(context.Background(), "nope"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Delete() error = %v, want ErrJobNotFound", err)
	}
}
