// Package audit keeps the history of item commands.
//
// Every command the item Store dispatches is passed to its Recorders. The
// Recorder in this package writes one row per item to the command_log table;
// TelemetryRecorder forwards the same outcome to a metrics backend. The
// origin of a command (voice, api, schedule, cli) travels in the context:
//
//	ctx = audit.WithSource(ctx, audit.SourceVoice)
//	store.SendCommand(ctx, items, "ON")
package audit
