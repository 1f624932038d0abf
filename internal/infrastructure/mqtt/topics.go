package mqtt

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxTopicLength is the MQTT limit on encoded topic length.
const maxTopicLength = 65535

// Availability payloads published to the availability topic.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// AvailabilityTopic returns the retained topic on which the bridge announces
// whether it is connected.
//
// Example: mqttlight/availability
func AvailabilityTopic(clientID string) string {
	return clientID + "/availability"
}

// ValidatePublishTopic reports whether topic may be used as a publish target.
// Publish topics must be non-empty UTF-8 without wildcards or NUL characters.
func ValidatePublishTopic(topic string) error {
	if err := validateTopicCommon(topic); err != nil {
		return err
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("%w: wildcards not allowed in publish topic %q", ErrInvalidTopic, topic)
	}
	return nil
}

// ValidateSubscribeTopic reports whether topic is a valid subscription filter.
//
// "+" must occupy a whole level and "#" must occupy the whole last level.
//
//	home/+/light     valid
//	home/#           valid
//	home/li+ght      invalid
//	home/#/light     invalid
func ValidateSubscribeTopic(topic string) error {
	if err := validateTopicCommon(topic); err != nil {
		return err
	}

	levels := strings.Split(topic, "/")
	for i, level := range levels {
		if strings.Contains(level, "+") && level != "+" {
			return fmt.Errorf("%w: '+' must occupy an entire level in %q", ErrInvalidTopic, topic)
		}
		if strings.Contains(level, "#") && (level != "#" || i != len(levels)-1) {
			return fmt.Errorf("%w: '#' must be the entire last level in %q", ErrInvalidTopic, topic)
		}
	}
	return nil
}

func validateTopicCommon(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: topic cannot be empty", ErrInvalidTopic)
	}
	if len(topic) > maxTopicLength {
		return fmt.Errorf("%w: topic length %d exceeds %d bytes", ErrInvalidTopic, len(topic), maxTopicLength)
	}
	if !utf8.ValidString(topic) {
		return fmt.Errorf("%w: topic is not valid UTF-8", ErrInvalidTopic)
	}
	if strings.ContainsRune(topic, 0) {
		return fmt.Errorf("%w: topic contains NUL character", ErrInvalidTopic)
	}
	return nil
}
