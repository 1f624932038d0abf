package light

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/huangfengdan/hwlight-ha-component/internal/infrastructure/mqtt"
)

// DefaultName is used when Config.Name is empty.
const DefaultName = "MQTT Light"

// uniqueIDPrefix matches the entity id scheme used by the host.
const uniqueIDPrefix = "mqtt_light_"

// Config is the immutable description of one fixture. Empty topics are absent.
type Config struct {
	Name                   string
	CommandTopic           string
	StateTopic             string
	BrightnessCommandTopic string
	BrightnessStateTopic   string
	RGBCommandTopic        string
	RGBStateTopic          string
}

// Validate checks topic syntax. CommandTopic is required; the others are
// checked only when set.
func (c Config) Validate() error {
	if c.CommandTopic == "" {
		return fmt.Errorf("%w: command topic is required", ErrInvalidConfig)
	}

	checks := []struct {
		key      string
		topic    string
		validate func(string) error
	}{
		{"command_topic", c.CommandTopic, mqtt.ValidatePublishTopic},
		{"brightness_command_topic", c.BrightnessCommandTopic, mqtt.ValidatePublishTopic},
		{"rgb_command_topic", c.RGBCommandTopic, mqtt.ValidatePublishTopic},
		{"state_topic", c.StateTopic, mqtt.ValidateSubscribeTopic},
		{"brightness_state_topic", c.BrightnessStateTopic, mqtt.ValidateSubscribeTopic},
		{"rgb_state_topic", c.RGBStateTopic, mqtt.ValidateSubscribeTopic},
	}
	for _, chk := range checks {
		if chk.topic == "" {
			continue
		}
		if err := chk.validate(chk.topic); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, chk.key, err)
		}
	}

	return nil
}

// UniqueID derives a stable entity id from the command topic, so two
// fixtures on different topics never collide and restarts keep the id.
func (c Config) UniqueID() string {
	return uniqueIDPrefix + uuid.NewSHA1(uuid.NameSpaceURL, []byte("mqtt:"+c.CommandTopic)).String()
}

// SupportedFeatures is a pure function of which command topics are set.
func (c Config) SupportedFeatures() Feature {
	var f Feature
	if c.BrightnessCommandTopic != "" {
		f |= SupportBrightness
	}
	if c.RGBCommandTopic != "" {
		f |= SupportColor
	}
	return f
}

// Feature is a capability bitmask compatible with the host's light flags.
type Feature int

// Capability flags.
const (
	SupportBrightness Feature = 1
	SupportColor      Feature = 16
)

// Has reports whether every bit of flag is set.
func (f Feature) Has(flag Feature) bool {
	return f&flag == flag
}
