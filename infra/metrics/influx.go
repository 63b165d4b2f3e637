package metrics

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	coremetrics "github.com/kmrl/induction/core/metrics"
	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/infra/logger"
)

// InfluxConfig holds the InfluxDB connection settings.
type InfluxConfig struct {
	URL    string `koanf:"url"`
	Token  string `koanf:"token"`
	Org    string `koanf:"org"`
	Bucket string `koanf:"bucket"`
}

// InfluxSink writes planning telemetry as InfluxDB points using the
// non-blocking write API.
type InfluxSink struct {
	client influxdb2.Client
	write  api.WriteAPI
	log    logger.Logger
}

// NewInfluxSink connects to InfluxDB. When the health check fails the
// planner keeps running without long-term telemetry, so a NopSink is
// returned instead of an error.
func NewInfluxSink(ctx context.Context, cfg InfluxConfig, log logger.Logger) coremetrics.Sink {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.Health(pingCtx); err != nil {
		log.Warnf("influxdb unreachable at %s, telemetry disabled: %v", cfg.URL, err)
		client.Close()
		return coremetrics.NopSink{}
	}
	return &InfluxSink{
		client: client,
		write:  client.WriteAPI(cfg.Org, cfg.Bucket),
		log:    log,
	}
}

func (s *InfluxSink) RecordPlan(plan *model.InductionPlan, took time.Duration) {
	p := influxdb2.NewPointWithMeasurement("induction_plan").
		AddTag("depot", plan.Depot).
		AddTag("mode", plan.Mode.String()).
		AddField("version", plan.Version).
		AddField("service", plan.Counts.Service).
		AddField("standby", plan.Counts.Standby).
		AddField("ibl", plan.Counts.IBL).
		AddField("out_of_service", plan.Counts.OutOfService).
		AddField("degraded", plan.Degraded).
		AddField("duration_ms", float64(took.Microseconds())/1000).
		SetTime(plan.GeneratedAt)
	s.write.WritePoint(p)
	for _, a := range plan.Assignments {
		s.write.WritePoint(influxdb2.NewPointWithMeasurement("induction_assignment").
			AddTag("depot", plan.Depot).
			AddTag("train", a.TrainID).
			AddTag("role", string(a.Type)).
			AddField("composite", a.Composite).
			AddField("rank", a.Rank).
			SetTime(plan.GeneratedAt))
	}
}

func (s *InfluxSink) RecordOverride(rec model.OverrideRecord) {
	s.write.WritePoint(influxdb2.NewPointWithMeasurement("induction_override").
		AddTag("train", rec.TrainID).
		AddTag("to", string(rec.To)).
		AddField("supervisor", rec.Supervisor).
		SetTime(rec.At))
}

func (s *InfluxSink) RecordReplacement(rp model.ReplacementPlan) {
	p := influxdb2.NewPointWithMeasurement("induction_replacement").
		AddTag("withdrawn", rp.Withdrawal.TrainID).
		AddField("decided_ms", float64(rp.DecidedIn.Microseconds())/1000).
		AddField("candidates", len(rp.Candidates)).
		SetTime(rp.DecidedAt)
	if rp.Chosen != nil {
		p.AddTag("chosen", rp.Chosen.TrainID)
		p.AddField("deployment_min", rp.Chosen.DeploymentEst.Minutes())
	}
	s.write.WritePoint(p)
}

func (s *InfluxSink) RecordAlert(a model.Alert) {
	s.write.WritePoint(influxdb2.NewPointWithMeasurement("induction_alert").
		AddTag("type", string(a.Type)).
		AddTag("severity", string(a.Severity)).
		AddField("train", a.TrainID).
		SetTime(time.Now()))
}

// Close flushes pending writes and releases the client.
func (s *InfluxSink) Close() {
	s.write.Flush()
	s.client.Close()
}
