// Package light bridges a single MQTT-controlled light fixture to an
// in-memory entity that a host application can read and command.
//
// A Bridge is built from a Config, activated once against a Transport
// (normally *mqtt.Client), and from then on:
//
//   - inbound messages on the configured state topics update the entity
//   - TurnOn and TurnOff publish commands and update the entity optimistically
//   - every local mutation is reported to the Host
//
// # Wire formats
//
//	power       "ON" / "OFF"
//	brightness  decimal integer text, e.g. "128"
//	rgb         {"r":255,"g":128,"b":0}
//
// # State policy
//
// Commands are treated as successful locally the moment they are issued.
// The optimistic update is applied even when the publish fails, and the
// publish error is still returned to the caller. The fixture's own state
// topics are the only source of correction.
//
// Brightness and colour channels are passed through unchanged in both
// directions. Nothing is clamped to 0..255.
//
// # Concurrency
//
// Transport handlers and host calls may run on different goroutines. All
// state lives behind one sync.RWMutex which is never held while calling
// the Transport or the Host.
package light
