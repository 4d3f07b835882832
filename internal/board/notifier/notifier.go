// Package notifier publishes applied vehicle transitions over MQTT so other
// open boards and downstream consumers can react without polling.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leetrental/fleetboard/internal/board/core/service"
	"github.com/leetrental/fleetboard/pkg/log"
	"github.com/leetrental/fleetboard/pkg/mqtt"
	"github.com/leetrental/fleetboard/pkg/options"
)

var _ service.Notifier = (*MQTTNotifier)(nil)

const publishTimeout = 3 * time.Second

// MQTTNotifier publishes one retained message per vehicle on
// {topicRoot}/vehicles/{id}/state, so a subscriber joining late still sees
// the last applied state of every vehicle.
type MQTTNotifier struct {
	client mqtt.Client
	root   string
	log    log.Logger
}

// New builds a notifier from the MQTT options. A nil notifier is returned
// when no broker is configured; callers treat that as "notifications off".
func New(opts *options.MqttOptions, logger log.Logger) (*MQTTNotifier, error) {
	if opts == nil || opts.Broker == "" {
		return nil, nil
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	client, err := mqtt.NewClient(opts.ToClientConfig())
	if err != nil {
		return nil, fmt.Errorf("create mqtt client: %w", err)
	}

	return &MQTTNotifier{
		client: client,
		root:   opts.TopicRoot,
		log:    logger.WithName("notifier"),
	}, nil
}

// Start connects to the broker. The connection is managed in the background;
// publishes before the first connect are dropped with a warning rather than
// blocking a transition.
func (n *MQTTNotifier) Start(ctx context.Context) error {
	return n.client.Start(ctx)
}

func (n *MQTTNotifier) Stop(ctx context.Context) {
	n.client.Disconnect(ctx)
}

// TransitionApplied implements service.Notifier. Delivery is best effort:
// the transition is already committed by the record keeper, so a publish
// failure is logged, never surfaced to the operator.
func (n *MQTTNotifier) TransitionApplied(ctx context.Context, ev service.TransitionEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		n.log.Error(err, "marshal transition event", "vehicle", ev.VehicleID)
		return
	}

	topic := fmt.Sprintf("%s/vehicles/%s/state", n.root, ev.VehicleID)

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := n.client.Publish(pubCtx, topic, 1, true, payload); err != nil {
		n.log.Warn("publish transition event", "topic", topic, "error", err.Error())
		return
	}
	n.log.Debug("published transition event", "topic", topic, "action", ev.Action)
}
