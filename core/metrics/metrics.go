// Package metrics defines the sink interface planning components report to.
// Concrete sinks live under infra/metrics.
package metrics

import (
	"time"

	"github.com/kmrl/induction/core/model"
)

// Sink receives planning telemetry. Implementations must be safe for
// concurrent use and must never block the planner.
type Sink interface {
	RecordPlan(plan *model.InductionPlan, took time.Duration)
	RecordOverride(rec model.OverrideRecord)
	RecordReplacement(rp model.ReplacementPlan)
	RecordAlert(a model.Alert)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordPlan(*model.InductionPlan, time.Duration) {}
func (NopSink) RecordOverride(model.OverrideRecord)            {}
func (NopSink) RecordReplacement(model.ReplacementPlan)        {}
func (NopSink) RecordAlert(model.Alert)                        {}
