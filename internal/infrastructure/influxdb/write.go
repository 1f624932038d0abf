package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementLightState is the measurement every light snapshot is written to.
const MeasurementLightState = "light_state"

// WriteLightState queues one light_state point tagged with entity_id.
//
// fields normally comes from device.StateFields: "on" always, plus
// "brightness" and "r"/"g"/"b" when known. The write is dropped silently
// once the client is closed.
func (c *Client) WriteLightState(entityID string, fields map[string]any) {
	if !c.IsConnected() || len(fields) == 0 {
		return
	}
	c.writeAPI.WritePoint(lightStatePoint(entityID, fields, time.Now()))
}

func lightStatePoint(entityID string, fields map[string]any, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementLightState,
		map[string]string{"entity_id": entityID},
		fields,
		ts,
	)
}
