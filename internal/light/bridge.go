package light

import (
	"errors"
	"fmt"
	"sync"

	"github.com/huangfengdan/hwlight-ha-component/internal/infrastructure/mqtt"
)

// commandQoS is used for every subscription and command publish.
const commandQoS byte = 1

// Transport is the messaging client the bridge publishes and subscribes through.
// *mqtt.Client satisfies it.
type Transport interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// ChangeSource says why an entity's state changed.
type ChangeSource string

// Change sources reported to the Host.
const (
	SourceMQTT    ChangeSource = "mqtt"
	SourceCommand ChangeSource = "command"
)

// Host is notified after every local state mutation so it can re-read the entity.
// It is called without any bridge lock held.
type Host interface {
	NotifyStateChanged(e Entity, source ChangeSource)
}

// Entity is the read and command contract a host uses.
type Entity interface {
	Name() string
	UniqueID() string
	IsOn() bool
	Brightness() (int, bool)
	RGBColor() (RGB, bool)
	SupportedFeatures() Feature
	Snapshot() State
	TurnOn(opts TurnOnOptions) error
	TurnOff() error
}

// Logger is the subset of logging.Logger the bridge uses.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// State is a point-in-time copy of the entity's attributes.
// Nil Brightness or Color means the value has never been known.
type State struct {
	On         bool `json:"on"`
	Brightness *int `json:"brightness,omitempty"`
	Color      *RGB `json:"rgb_color,omitempty"`
}

// TurnOnOptions carries the optional attributes of a turn-on command.
type TurnOnOptions struct {
	Brightness *int
	Color      *RGB
}

// BridgeOptions holds the dependencies for creating a bridge.
type BridgeOptions struct {
	// Config describes the fixture. Name defaults to DefaultName.
	Config Config

	// Host receives state-change notifications. Optional.
	Host Host

	// Logger is an optional structured logger.
	Logger Logger
}

// Bridge maps one MQTT light onto an Entity.
type Bridge struct {
	cfg      Config
	uniqueID string
	features Feature
	host     Host
	logger   Logger

	mu            sync.RWMutex
	transport     Transport
	on            bool
	brightness    int
	hasBrightness bool
	color         RGB
	hasColor      bool
}

// NewBridge validates the configuration and returns an inactive bridge.
// No I/O is performed; call Activate to start receiving state.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	cfg := opts.Config
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Bridge{
		cfg:      cfg,
		uniqueID: cfg.UniqueID(),
		features: cfg.SupportedFeatures(),
		host:     opts.Host,
		logger:   logger,
	}, nil
}

// Activate subscribes to every configured state topic at QoS 1.
//
// Each subscription is attempted even if an earlier one failed. The result
// joins every failure, each wrapping ErrSubscribeFailed. The transport is
// retained for commands whether or not subscriptions succeed.
func (b *Bridge) Activate(t Transport) error {
	if t == nil {
		return fmt.Errorf("%w: transport is required", ErrSubscribeFailed)
	}

	b.mu.Lock()
	b.transport = t
	b.mu.Unlock()

	subs := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{b.cfg.StateTopic, b.onStateMessage},
		{b.cfg.BrightnessStateTopic, b.onBrightnessMessage},
		{b.cfg.RGBStateTopic, b.onRGBMessage},
	}

	var errs []error
	subscribed := 0
	for _, s := range subs {
		if s.topic == "" {
			continue
		}
		if err := t.Subscribe(s.topic, commandQoS, s.handler); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, s.topic, err))
			continue
		}
		subscribed++
	}

	if len(errs) > 0 {
		b.logger.Error("light activation incomplete",
			"entity", b.uniqueID,
			"subscribed", subscribed,
			"failed", len(errs),
		)
		return errors.Join(errs...)
	}

	b.logger.Info("light activated", "entity", b.uniqueID, "name", b.cfg.Name, "subscriptions", subscribed)
	return nil
}

// onStateMessage applies "ON"/"OFF". Any other payload leaves power as is,
// but the host is still asked to refresh.
func (b *Bridge) onStateMessage(topic string, payload []byte) error {
	switch string(payload) {
	case PayloadOn:
		b.setPower(true)
	case PayloadOff:
		b.setPower(false)
	default:
		b.logger.Debug("ignoring unknown power payload", "topic", topic, "payload", string(payload))
	}
	b.notify(SourceMQTT)
	return nil
}

func (b *Bridge) onBrightnessMessage(topic string, payload []byte) error {
	v, err := DecodeBrightness(payload)
	if err != nil {
		b.logger.Warn("dropping malformed brightness payload", "topic", topic, "error", err)
		return nil
	}

	b.setBrightness(v)
	b.notify(SourceMQTT)
	return nil
}

func (b *Bridge) onRGBMessage(topic string, payload []byte) error {
	c, err := DecodeRGB(payload)
	if err != nil {
		b.logger.Warn("dropping malformed rgb payload", "topic", topic, "error", err)
		return nil
	}

	b.setColor(c)
	b.notify(SourceMQTT)
	return nil
}

// TurnOn publishes "ON" and then any supported attribute commands.
//
// Attributes whose command topic is not configured are dropped without
// error. Local state is updated after each publish regardless of its
// outcome; publish failures are joined and returned. The host is notified
// once, after all publishes were attempted.
func (b *Bridge) TurnOn(opts TurnOnOptions) error {
	var errs []error

	if err := b.publish(b.cfg.CommandTopic, []byte(PayloadOn)); err != nil {
		errs = append(errs, err)
	}
	b.setPower(true)

	if opts.Brightness != nil {
		if b.cfg.BrightnessCommandTopic == "" {
			b.logger.Debug("brightness not supported, dropping option", "entity", b.uniqueID)
		} else {
			v := *opts.Brightness
			if err := b.publish(b.cfg.BrightnessCommandTopic, EncodeBrightness(v)); err != nil {
				errs = append(errs, err)
			}
			b.setBrightness(v)
		}
	}

	if opts.Color != nil {
		if b.cfg.RGBCommandTopic == "" {
			b.logger.Debug("colour not supported, dropping option", "entity", b.uniqueID)
		} else {
			c := *opts.Color
			payload, err := EncodeRGB(c)
			if err == nil {
				err = b.publish(b.cfg.RGBCommandTopic, payload)
			}
			if err != nil {
				errs = append(errs, err)
			}
			b.setColor(c)
		}
	}

	b.notify(SourceCommand)
	return errors.Join(errs...)
}

// TurnOff publishes "OFF" and clears power locally regardless of the outcome.
func (b *Bridge) TurnOff() error {
	err := b.publish(b.cfg.CommandTopic, []byte(PayloadOff))
	b.setPower(false)
	b.notify(SourceCommand)
	return err
}

// publish sends a non-retained QoS 1 message. The lock is released before
// the transport is called.
func (b *Bridge) publish(topic string, payload []byte) error {
	b.mu.RLock()
	t := b.transport
	b.mu.RUnlock()

	if t == nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, ErrNotActivated)
	}
	if err := t.Publish(topic, payload, commandQoS, false); err != nil {
		b.logger.Error("light command publish failed", "topic", topic, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return nil
}

func (b *Bridge) notify(source ChangeSource) {
	if b.host != nil {
		b.host.NotifyStateChanged(b, source)
	}
}

func (b *Bridge) setPower(on bool) {
	b.mu.Lock()
	b.on = on
	b.mu.Unlock()
}

func (b *Bridge) setBrightness(v int) {
	b.mu.Lock()
	b.brightness = v
	b.hasBrightness = true
	b.mu.Unlock()
}

func (b *Bridge) setColor(c RGB) {
	b.mu.Lock()
	b.color = c
	b.hasColor = true
	b.mu.Unlock()
}

// Name returns the configured display name.
func (b *Bridge) Name() string { return b.cfg.Name }

// UniqueID returns the stable entity id derived from the command topic.
func (b *Bridge) UniqueID() string { return b.uniqueID }

// SupportedFeatures returns the capability flags fixed at construction.
func (b *Bridge) SupportedFeatures() Feature { return b.features }

// Config returns the bridge configuration with defaults applied.
func (b *Bridge) Config() Config { return b.cfg }

// IsOn reports the current power state.
func (b *Bridge) IsOn() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.on
}

// Brightness returns the last known brightness. ok is false until one is known.
func (b *Bridge) Brightness() (value int, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.brightness, b.hasBrightness
}

// RGBColor returns the last known colour. ok is false until one is known.
func (b *Bridge) RGBColor() (color RGB, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.color, b.hasColor
}

// Snapshot returns all attributes read under a single lock.
func (b *Bridge) Snapshot() State {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := State{On: b.on}
	if b.hasBrightness {
		v := b.brightness
		s.Brightness = &v
	}
	if b.hasColor {
		c := b.color
		s.Color = &c
	}
	return s
}
