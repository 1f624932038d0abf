package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/huangfengdan/hwlight-ha-component/internal/light"
)

// ChannelLightState is the broadcast channel for state-change events.
const ChannelLightState = "light.state_changed"

// sinkTimeout bounds each history write made from a notification.
const sinkTimeout = 5 * time.Second

// Logger is the subset of logging.Logger the registry uses.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Light is an entity the registry can activate.
type Light interface {
	light.Entity
	Activate(t light.Transport) error
}

// TelemetryWriter records a state snapshot as a time-series point.
// *influxdb.Client satisfies it.
type TelemetryWriter interface {
	WriteLightState(entityID string, fields map[string]any)
}

// Broadcaster pushes events to live subscribers.
// The API WebSocket hub satisfies it.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// StateRecord is the registry's cached view of an entity.
type StateRecord struct {
	State     light.State        `json:"state"`
	Source    light.ChangeSource `json:"source,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// StateChangedEvent is the payload broadcast on ChannelLightState.
type StateChangedEvent struct {
	EntityID  string             `json:"entity_id"`
	Name      string             `json:"name"`
	State     light.State        `json:"state"`
	Source    light.ChangeSource `json:"source"`
	Timestamp time.Time          `json:"timestamp"`
}

// RegistryOptions holds registry dependencies. Only Transport is required
// for Register; every sink is optional.
type RegistryOptions struct {
	Transport   light.Transport
	History     StateHistoryRepository
	Telemetry   TelemetryWriter
	Broadcaster Broadcaster
	Logger      Logger
}

// Registry tracks registered lights and implements light.Host.
//
// All public methods are safe for concurrent use.
type Registry struct {
	transport light.Transport
	history   StateHistoryRepository
	telemetry TelemetryWriter
	logger    Logger

	mu       sync.RWMutex
	entities map[string]Light
	order    []string
	states   map[string]StateRecord

	broadcasterMu sync.RWMutex
	broadcaster   Broadcaster
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Registry{
		transport:   opts.Transport,
		history:     opts.History,
		telemetry:   opts.Telemetry,
		broadcaster: opts.Broadcaster,
		logger:      logger,
		entities:    make(map[string]Light),
		states:      make(map[string]StateRecord),
	}
}

// SetBroadcaster sets or replaces the live-update sink. The API server is
// usually built after the registry, so it is wired in late.
func (r *Registry) SetBroadcaster(b Broadcaster) {
	r.broadcasterMu.Lock()
	r.broadcaster = b
	r.broadcasterMu.Unlock()
}

// Register adds an entity and activates it against the transport.
//
// The entity stays registered when activation reports an error, since
// commands still work and some subscriptions may have succeeded.
func (r *Registry) Register(e Light) error {
	id := e.UniqueID()

	r.mu.Lock()
	if _, exists := r.entities[id]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrEntityExists, id)
	}
	r.entities[id] = e
	r.order = append(r.order, id)
	r.states[id] = StateRecord{State: e.Snapshot(), UpdatedAt: time.Now().UTC()}
	r.mu.Unlock()

	r.logger.Info("light registered", "entity", id, "name", e.Name(), "features", int(e.SupportedFeatures()))

	if r.transport == nil {
		return fmt.Errorf("activating %s: %w", id, light.ErrNotActivated)
	}
	if err := e.Activate(r.transport); err != nil {
		return fmt.Errorf("activating %s: %w", id, err)
	}
	return nil
}

// NotifyStateChanged implements light.Host. It caches a snapshot of e and
// forwards it to the configured sinks.
func (r *Registry) NotifyStateChanged(e light.Entity, source light.ChangeSource) {
	id := e.UniqueID()
	snap := e.Snapshot()
	now := time.Now().UTC()

	r.mu.Lock()
	_, known := r.entities[id]
	if known {
		r.states[id] = StateRecord{State: snap, Source: source, UpdatedAt: now}
	}
	r.mu.Unlock()

	if !known {
		r.logger.Warn("state change from unregistered light", "entity", id)
		return
	}

	r.logger.Debug("light state changed", "entity", id, "source", string(source), "on", snap.On)

	if r.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		err := r.history.RecordStateChange(ctx, id, snap, string(source))
		cancel()
		if err != nil {
			r.logger.Error("recording state history failed", "entity", id, "error", err)
		}
	}

	if r.telemetry != nil {
		r.telemetry.WriteLightState(id, StateFields(snap))
	}

	r.broadcasterMu.RLock()
	b := r.broadcaster
	r.broadcasterMu.RUnlock()
	if b != nil {
		b.Broadcast(ChannelLightState, StateChangedEvent{
			EntityID:  id,
			Name:      e.Name(),
			State:     snap,
			Source:    source,
			Timestamp: now,
		})
	}
}

// StateFields flattens a snapshot into time-series fields. Unknown
// attributes are omitted.
func StateFields(s light.State) map[string]any {
	fields := map[string]any{"on": s.On}
	if s.Brightness != nil {
		fields["brightness"] = *s.Brightness
	}
	if s.Color != nil {
		fields["r"] = s.Color.R
		fields["g"] = s.Color.G
		fields["b"] = s.Color.B
	}
	return fields
}

// Get returns the entity with the given id.
func (r *Registry) Get(id string) (Light, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entities[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return e, nil
}

// List returns all entities in registration order.
func (r *Registry) List() []Light {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Light, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entities[id])
	}
	return out
}

// Count returns the number of registered entities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

// GetState returns the last cached state record for an entity.
func (r *Registry) GetState(id string) (StateRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.states[id]
	if !ok {
		return StateRecord{}, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return rec, nil
}

// TurnOn forwards a turn-on command to the entity.
func (r *Registry) TurnOn(id string, opts light.TurnOnOptions) error {
	e, err := r.Get(id)
	if err != nil {
		return err
	}
	return e.TurnOn(opts)
}

// TurnOff forwards a turn-off command to the entity.
func (r *Registry) TurnOff(id string) error {
	e, err := r.Get(id)
	if err != nil {
		return err
	}
	return e.TurnOff()
}

// History returns recorded state changes for a registered entity.
func (r *Registry) History(ctx context.Context, id string, limit int) ([]StateHistoryEntry, error) {
	if _, err := r.Get(id); err != nil {
		return nil, err
	}
	if r.history == nil {
		return nil, ErrHistoryUnavailable
	}
	return r.history.GetHistory(ctx, id, limit)
}

// RunHistoryPruner deletes history older than retention every interval
// until ctx is cancelled. It returns immediately when history is not
// configured or retention is zero.
func (r *Registry) RunHistoryPruner(ctx context.Context, retention, interval time.Duration) {
	if r.history == nil || retention <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.history.PruneHistory(ctx, retention)
			if err != nil {
				r.logger.Error("pruning state history failed", "error", err)
				continue
			}
			if n > 0 {
				r.logger.Info("pruned state history", "rows", n)
			}
		}
	}
}
