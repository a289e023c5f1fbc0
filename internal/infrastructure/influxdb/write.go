package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementCommands = "voice_commands"
	MeasurementIntents  = "voice_intents"
)

// WriteCommandMetric records one item command.
//
// Parameters:
//   - item: openHAB item name
//   - command: Command token, e.g. "ON" or "INCREASE"
//   - source: Who issued it: voice, api, schedule or cli
//   - delivered: Whether openHAB accepted the command
func (c *Client) WriteCommandMetric(item, command, source string, delivered bool) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(commandPoint(item, command, source, delivered, time.Now()))
}

// WriteIntentMetric records one handled voice intent.
func (c *Client) WriteIntentMetric(intent, siteID string, success bool, took time.Duration) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(intentPoint(intent, siteID, success, took, time.Now()))
}

// WritePoint writes a custom point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

func commandPoint(item, command, source string, delivered bool, ts time.Time) *write.Point {
	outcome := "delivered"
	if !delivered {
		outcome = "failed"
	}
	return write.NewPoint(
		MeasurementCommands,
		map[string]string{
			"item":    item,
			"command": command,
			"outcome": outcome,
			"source":  source,
		},
		map[string]any{
			"count": 1,
		},
		ts,
	)
}

func intentPoint(intent, siteID string, success bool, took time.Duration, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementIntents,
		map[string]string{
			"intent":  intent,
			"site_id": siteID,
			"success": boolTag(success),
		},
		map[string]any{
			"count":       1,
			"duration_ms": float64(took.Microseconds()) / 1000, //nolint:mnd // µs to ms
		},
		ts,
	)
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
