package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-dashboard-editor/components/dashboard"
)

// DefaultChannel carries layout events between instances.
const DefaultChannel = "dashboard-layout-events"

type envelope struct {
	Origin string                `json:"origin"`
	Event  dashboard.LayoutEvent `json:"event"`
}

// Relay is a dashboard.LayoutHook that publishes local layout events and replays
// events from other instances into a local hook, so a save on one node reaches
// websocket clients on every node.
type Relay struct {
	bus     Bus
	channel string
	origin  string
	logger  zerolog.Logger
}

var _ dashboard.LayoutHook = (*Relay)(nil)

// NewRelay builds a relay over bus. An empty channel uses DefaultChannel.
func NewRelay(bus Bus, channel string, logger *zerolog.Logger) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "layout_relay").Logger()
	}
	return &Relay{bus: bus, channel: channel, origin: uuid.NewString(), logger: l}
}

// Origin identifies this instance on the channel.
func (r *Relay) Origin() string { return r.origin }

// LayoutChanged implements dashboard.LayoutHook. Load events stay local.
func (r *Relay) LayoutChanged(ctx context.Context, event dashboard.LayoutEvent) error {
	if event.Reason == dashboard.ReasonLoad {
		return nil
	}
	payload, err := json.Marshal(envelope{Origin: r.origin, Event: event})
	if err != nil {
		return fmt.Errorf("relay: encode event: %w", err)
	}
	return r.bus.Publish(ctx, r.channel, payload)
}

// Run forwards remote events to local until ctx ends.
func (r *Relay) Run(ctx context.Context, local dashboard.LayoutHook) error {
	if local == nil {
		return errors.New("relay: local hook is required")
	}
	messages, cleanup, err := r.bus.Subscribe(ctx, r.channel)
	if err != nil {
		return err
	}
	defer cleanup()
	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-messages:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				r.logger.Warn().Err(err).Msg("dropping malformed layout event")
				continue
			}
			if env.Origin == r.origin {
				continue
			}
			if err := local.LayoutChanged(ctx, env.Event); err != nil {
				r.logger.Warn().Err(err).Str("dashboard_type", env.Event.DashboardType).Msg("local hook failed")
			}
		}
	}
}
