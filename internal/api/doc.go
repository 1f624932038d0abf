// Package api exposes registered MQTT lights over HTTP and WebSocket.
//
// Routes (all under /api/v1):
//
//	GET  /health                   component health, 503 when degraded
//	GET  /lights                   every registered light with its state
//	GET  /lights/{id}              one light
//	POST /lights/{id}/turn_on      body: {"brightness":128,"rgb_color":[255,0,0]}
//	POST /lights/{id}/turn_off
//	GET  /lights/{id}/history      ?limit=N, newest first
//	GET  /ws                       WebSocket; subscribe to "light.state_changed"
//
// The Hub implements device.Broadcaster, so every state change the
// registry accepts is pushed to subscribed WebSocket clients.
//
// Lifecycle:
//
//	server, err := api.New(deps)
//	registry.SetBroadcaster(server.Hub())
//	server.Start(ctx)
//	defer server.Close()
package api
