// Package app wires configuration, telemetry, the broker feed and the HTTP
// API into a running planning service.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kmrl/induction/api"
	"github.com/kmrl/induction/config"
	"github.com/kmrl/induction/core/engine"
	coremetrics "github.com/kmrl/induction/core/metrics"
	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/core/planlog"
	"github.com/kmrl/induction/core/planner"
	"github.com/kmrl/induction/infra/logger"
	"github.com/kmrl/induction/infra/metrics"
	"github.com/kmrl/induction/infra/mqtt"
	"github.com/kmrl/induction/internal/eventbus"
)

// Service is the assembled planning service.
type Service struct {
	Cfg    *config.Config
	Engine *engine.Engine
	Bus    *eventbus.Bus

	log   logger.Logger
	audit planlog.Store
	api   *api.Server
}

// New assembles the service from configuration.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	log := logger.New("induction")

	audit, err := planlog.NewJSONLStore(cfg.Audit.Path)
	if err != nil {
		return nil, fmt.Errorf("app: open audit log: %w", err)
	}

	sinks := metrics.MultiSink{}
	if cfg.Metrics.Enabled {
		sinks = append(sinks, metrics.NewPromSink(prometheus.DefaultRegisterer))
	}
	if cfg.Influx.Enabled {
		sinks = append(sinks, metrics.NewInfluxSink(ctx, metrics.InfluxConfig{
			URL: cfg.Influx.URL, Token: cfg.Influx.Token,
			Org: cfg.Influx.Org, Bucket: cfg.Influx.Bucket,
		}, log))
	}
	var sink coremetrics.Sink = sinks
	if len(sinks) == 0 {
		sink = coremetrics.NopSink{}
	}

	weights := planner.DefaultWeights()
	weights.Branding = cfg.Planner.BrandingWeight

	bus := eventbus.New()
	eng, err := engine.New(log, engine.Options{
		Weights: weights,
		Audit:   audit,
		Metrics: sink,
		Bus:     bus,
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		Cfg:    cfg,
		Engine: eng,
		Bus:    bus,
		log:    log,
		audit:  audit,
		api:    api.NewServer(cfg.API.Addr, eng, log),
	}, nil
}

// Run starts the metrics endpoint, the withdrawal feed and the API, then
// blocks until the API server stops.
func (s *Service) Run(ctx context.Context) error {
	if s.Cfg.Metrics.Enabled {
		metrics.StartPromServer(ctx, s.Cfg.Metrics.Addr, s.log)
	}
	if s.Cfg.MQTT.Enabled {
		client := mqtt.NewClient(mqtt.Config{
			Broker:   s.Cfg.MQTT.Broker,
			ClientID: s.Cfg.MQTT.ClientID,
			Username: s.Cfg.MQTT.Username,
			Password: s.Cfg.MQTT.Password,
		}, s.log)
		listener := mqtt.NewWithdrawalListener(client, s.onWithdrawal, s.log)
		if err := listener.Start(ctx); err != nil {
			return fmt.Errorf("app: withdrawal feed: %w", err)
		}
	}
	defer s.Close()
	return s.api.Start(ctx)
}

// onWithdrawal feeds broker-reported failures into the engine.
func (s *Service) onWithdrawal(ctx context.Context, w model.Withdrawal) {
	if _, _, err := s.Engine.HandleWithdrawal(ctx, w); err != nil {
		s.log.Errorf("handling withdrawal of %s: %v", w.TrainID, err)
	}
}

// Close releases held resources.
func (s *Service) Close() {
	s.Bus.Close()
	if err := s.audit.Close(); err != nil {
		s.log.Errorf("closing audit log: %v", err)
	}
}
