// Package influxdb records voice bridge telemetry in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, non-blocking batched writes and health checks.
//
// # Measurements
//
//   - voice_commands: one point per item command, tagged with item, command,
//     outcome and source
//   - voice_intents: one point per handled intent, tagged with intent, site
//     and success, with the handling duration in milliseconds
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteCommandMetric("Lampe_Esszimmer", "ON", "voice", true)
//
// Writes are batched according to batch_size and flush_interval; write
// errors arrive asynchronously through SetOnError.
package influxdb
