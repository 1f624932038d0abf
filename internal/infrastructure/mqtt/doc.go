// Package mqtt provides broker connectivity for the light bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS and topic validation
//   - Subscriptions that are restored after a reconnect
//   - A retained availability topic backed by Last Will and Testament
//
// *Client satisfies the light package's Transport interface directly.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe("home/kitchen/light/state", 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	client.Publish("home/kitchen/light/set", []byte("ON"), 1, false)
package mqtt
