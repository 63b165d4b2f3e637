// Package metrics provides the concrete telemetry sinks: Prometheus for
// scraping and InfluxDB for long-term series, plus a fan-out combinator.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coremetrics "github.com/kmrl/induction/core/metrics"
	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/infra/logger"
)

// PromSink exports planning telemetry as Prometheus metrics.
type PromSink struct {
	plans        *prometheus.CounterVec
	planDuration prometheus.Histogram
	serviceCount *prometheus.GaugeVec
	standbyCount *prometheus.GaugeVec
	degraded     *prometheus.CounterVec
	overrides    *prometheus.CounterVec
	replacements prometheus.Counter
	replaceTime  prometheus.Histogram
	alerts       *prometheus.CounterVec
}

// NewPromSink registers the planning metrics on the registerer. Metrics
// already registered are reused, so repeated construction is safe.
func NewPromSink(reg prometheus.Registerer) *PromSink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "induction_plans_generated_total",
			Help: "Induction plans generated, by depot and planning mode.",
		}, []string{"depot", "mode"}),
		planDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "induction_plan_duration_seconds",
			Help:    "Time spent producing one induction plan.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		serviceCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "induction_plan_service_trains",
			Help: "Service roster size of the latest plan, by depot.",
		}, []string{"depot"}),
		standbyCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "induction_plan_standby_trains",
			Help: "Standby pool size of the latest plan, by depot.",
		}, []string{"depot"}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "induction_plans_degraded_total",
			Help: "Plans emitted with unmet capacity, by depot.",
		}, []string{"depot"}),
		overrides: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "induction_overrides_total",
			Help: "Manual assignment overrides, by target role.",
		}, []string{"to"}),
		replacements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "induction_replacements_total",
			Help: "Emergency standby replacements decided.",
		}),
		replaceTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "induction_replacement_decision_seconds",
			Help:    "Time to decide an emergency replacement.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "induction_alerts_total",
			Help: "Operator alerts raised during planning, by type.",
		}, []string{"type"}),
	}
	s.plans = registerCounterVec(reg, s.plans)
	s.planDuration = registerHistogram(reg, s.planDuration)
	s.serviceCount = registerGaugeVec(reg, s.serviceCount)
	s.standbyCount = registerGaugeVec(reg, s.standbyCount)
	s.degraded = registerCounterVec(reg, s.degraded)
	s.overrides = registerCounterVec(reg, s.overrides)
	s.replacements = registerCounter(reg, s.replacements)
	s.replaceTime = registerHistogram(reg, s.replaceTime)
	s.alerts = registerCounterVec(reg, s.alerts)
	return s
}

var _ coremetrics.Sink = (*PromSink)(nil)

func (s *PromSink) RecordPlan(plan *model.InductionPlan, took time.Duration) {
	s.plans.WithLabelValues(plan.Depot, plan.Mode.String()).Inc()
	s.planDuration.Observe(took.Seconds())
	s.serviceCount.WithLabelValues(plan.Depot).Set(float64(plan.Counts.Service))
	s.standbyCount.WithLabelValues(plan.Depot).Set(float64(plan.Counts.Standby))
	if plan.Degraded {
		s.degraded.WithLabelValues(plan.Depot).Inc()
	}
}

func (s *PromSink) RecordOverride(rec model.OverrideRecord) {
	s.overrides.WithLabelValues(string(rec.To)).Inc()
}

func (s *PromSink) RecordReplacement(rp model.ReplacementPlan) {
	s.replacements.Inc()
	s.replaceTime.Observe(rp.DecidedIn.Seconds())
}

func (s *PromSink) RecordAlert(a model.Alert) {
	s.alerts.WithLabelValues(string(a.Type)).Inc()
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	return c
}

func registerGaugeVec(reg prometheus.Registerer, g *prometheus.GaugeVec) *prometheus.GaugeVec {
	if err := reg.Register(g); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(*prometheus.GaugeVec)
		}
	}
	return g
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter) prometheus.Counter {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(prometheus.Counter)
		}
	}
	return c
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram) prometheus.Histogram {
	if err := reg.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(prometheus.Histogram)
		}
	}
	return h
}

// StartPromServer serves /metrics until the context is cancelled.
func StartPromServer(ctx context.Context, addr string, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("metrics server shutdown: %v", err)
		}
	}()
	go func() {
		log.Infof("metrics server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server: %v", err)
		}
	}()
}
