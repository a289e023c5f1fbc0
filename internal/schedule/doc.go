// Package schedule runs item commands at a later time.
//
// A voice request such as "schalte das Licht in zehn Minuten aus" becomes a
// Job: a command, the resolved item names and a due time. Jobs are persisted
// in the deferred_commands table so that they survive a restart, and armed as
// timers in memory.
//
// Job IDs are derived from the command and the sorted item names. Scheduling
// the same command for the same items again replaces the pending job instead
// of adding a second one.
//
// Usage:
//
//	sched := schedule.New(schedule.NewSQLiteRepository(db.DB), dispatcher, logger)
//	if _, err := sched.Restore(ctx); err != nil { ... }
//	defer sched.Stop()
//
//	job, err := sched.Schedule(ctx, "OFF", []string{"Lampe_Bett"}, 10*time.Minute, "schlafzimmer")
package schedule
