// Package influxdb writes light state telemetry to InfluxDB v2.
//
// Every state change accepted by the registry becomes one point:
//
//	light_state,entity_id=mqtt_light_<uuid> on=true,brightness=128i,r=255i,g=0i,b=0i
//
// Writes go through the client library's non-blocking WriteAPI and are
// batched according to influxdb.batch_size and influxdb.flush_interval.
// Failed batches are reported to the SetOnError callback.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	client.SetOnError(func(err error) { log.Warn("influxdb write failed", "error", err) })
package influxdb
