package audit

import "context"

// CommandWriter receives one metric per item command.
// influxdb.Client satisfies it.
type CommandWriter interface {
	WriteCommandMetric(item, command, source string, delivered bool)
}

// TelemetryRecorder forwards command outcomes to a metrics backend.
// It satisfies item.Recorder.
type TelemetryRecorder struct {
	Writer CommandWriter
}

// RecordCommand writes one command metric tagged with the context's source.
func (r TelemetryRecorder) RecordCommand(ctx context.Context, name, command string, err error) {
	r.Writer.WriteCommandMetric(name, command, SourceFrom(ctx), err == nil)
}
