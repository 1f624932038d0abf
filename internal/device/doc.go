// Package device is the host-side entity registry for MQTT lights.
//
// The Registry owns every registered light, activates it against the MQTT
// transport, and acts as the light.Host: each state-change notification is
// snapshotted into an in-memory cache and fanned out to optional sinks.
//
//	light.Bridge ──NotifyStateChanged──▶ Registry ──▶ state cache
//	                                         ├──────▶ StateHistoryRepository (SQLite)
//	                                         ├──────▶ TelemetryWriter (InfluxDB)
//	                                         └──────▶ Broadcaster (WebSocket hub)
//
// Sink failures are logged and never reach the bridge.
//
// Usage:
//
//	registry := device.NewRegistry(device.RegistryOptions{
//	    Transport: mqttClient,
//	    History:   device.NewSQLiteStateHistoryRepository(db.DB),
//	    Logger:    log,
//	})
//	bridge, _ := light.NewBridge(light.BridgeOptions{Config: cfg, Host: registry})
//	if err := registry.Register(bridge); err != nil {
//	    log.Warn("light activation incomplete", "error", err)
//	}
package device
