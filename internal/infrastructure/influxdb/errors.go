package influxdb

import "errors"

// Sentinel errors for InfluxDB operations.
var (
	// ErrNotConnected is returned after Close.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed is returned when the initial ping fails.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed wraps asynchronous batch write errors.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
