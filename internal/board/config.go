// Package board assembles the gateway: the session over the record keeper,
// the HTTP surface, and the optional MQTT notifier.
package board

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/leetrental/fleetboard/internal/board/core/service"
	"github.com/leetrental/fleetboard/internal/board/notifier"
	"github.com/leetrental/fleetboard/internal/board/server"
	"github.com/leetrental/fleetboard/internal/recordkeeper"
	"github.com/leetrental/fleetboard/pkg/log"
	"github.com/leetrental/fleetboard/pkg/options"
)

// Config carries the validated option groups of the gateway.
type Config struct {
	HttpOptions         *options.HttpOptions
	RecordkeeperOptions *options.RecordkeeperOptions
	MqttOptions         *options.MqttOptions
}

// Gateway is the assembled board service.
type Gateway struct {
	session  *service.Session
	server   *server.Server
	notifier *notifier.MQTTNotifier
	log      log.Logger
}

// NewGateway wires the gateway from its configuration.
func (c *Config) NewGateway() (*Gateway, error) {
	logger := log.Std()

	rk, err := recordkeeper.NewHTTPClient(c.RecordkeeperOptions)
	if err != nil {
		return nil, fmt.Errorf("create record keeper client: %w", err)
	}

	mn, err := notifier.New(c.MqttOptions, logger)
	if err != nil {
		return nil, fmt.Errorf("create notifier: %w", err)
	}

	var session *service.Session
	if mn != nil {
		session = service.NewSession(rk, mn, logger)
	} else {
		session = service.NewSession(rk, nil, logger)
	}

	return &Gateway{
		session:  session,
		server:   server.New(c.HttpOptions, session, logger),
		notifier: mn,
		log:      logger.WithName("gateway"),
	}, nil
}

// Run loads the initial board and serves until ctx is cancelled.
func (g *Gateway) Run(ctx context.Context) error {
	if err := g.session.Load(ctx); err != nil {
		return fmt.Errorf("initial board load: %w", err)
	}
	g.log.Info("board loaded")

	if g.notifier != nil {
		if err := g.notifier.Start(ctx); err != nil {
			return fmt.Errorf("start notifier: %w", err)
		}
		defer g.notifier.Stop(context.Background())
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return g.server.Run(ctx)
	})
	return group.Wait()
}
