package metrics

import (
	"time"

	coremetrics "github.com/kmrl/induction/core/metrics"
	"github.com/kmrl/induction/core/model"
)

// MultiSink fans telemetry out to several sinks.
type MultiSink []coremetrics.Sink

var _ coremetrics.Sink = MultiSink(nil)

func (m MultiSink) RecordPlan(plan *model.InductionPlan, took time.Duration) {
	for _, s := range m {
		s.RecordPlan(plan, took)
	}
}

func (m MultiSink) RecordOverride(rec model.OverrideRecord) {
	for _, s := range m {
		s.RecordOverride(rec)
	}
}

func (m MultiSink) RecordReplacement(rp model.ReplacementPlan) {
	for _, s := range m {
		s.RecordReplacement(rp)
	}
}

func (m MultiSink) RecordAlert(a model.Alert) {
	for _, s := range m {
		s.RecordAlert(a)
	}
}
