package otel

import (
	"context"
	"errors"
	"fmt"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goAccount.MetricsSnapshot
	AuditDropped() uint64
}

// bucketSet holds one gauge per cumulative bucket plus the sample count.
type bucketSet struct {
	id     goAccount.MetricID
	gauges [internaldefs.BucketCount]metric.Int64ObservableGauge
	count  metric.Int64ObservableGauge
}

// Exporter owns the callback registration. Close unregisters it.
type Exporter struct {
	source       metricsSource
	registration metric.Registration

	counters     map[goAccount.MetricID]metric.Int64ObservableCounter
	order        []goAccount.MetricID
	histograms   []bucketSet
	auditDropped metric.Int64ObservableCounter
}

// NewExporter registers instruments on meter that read from engine.
func NewExporter(meter metric.Meter, engine *goAccount.Engine) (*Exporter, error) {
	return NewExporterFromSource(meter, engine)
}

func NewExporterFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{
		source:   source,
		counters: make(map[goAccount.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
	}
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		c, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", def.Name, err)
		}
		e.counters[def.ID] = c
		e.order = append(e.order, def.ID)
		observables = append(observables, c)
	}

	for _, def := range internaldefs.HistogramDefs {
		set, obs, err := newBucketSet(meter, def)
		if err != nil {
			return nil, err
		}
		e.histograms = append(e.histograms, set)
		observables = append(observables, obs...)
	}

	dropped, err := meter.Int64ObservableCounter(
		internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp),
	)
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", internaldefs.AuditDroppedName, err)
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func newBucketSet(meter metric.Meter, def internaldefs.HistogramDef) (bucketSet, []metric.Observable, error) {
	set := bucketSet{id: def.ID}
	obs := make([]metric.Observable, 0, internaldefs.BucketCount+1)
	for i, suffix := range internaldefs.HistogramBoundSuffix {
		name := def.Name + "_bucket_le_" + suffix
		g, err := meter.Int64ObservableGauge(name, metric.WithDescription(def.Help+" Cumulative bucket count."))
		if err != nil {
			return set, nil, fmt.Errorf("gauge %s: %w", name, err)
		}
		set.gauges[i] = g
		obs = append(obs, g)
	}
	name := def.Name + "_count"
	g, err := meter.Int64ObservableGauge(name, metric.WithDescription(def.Help+" Sample count."))
	if err != nil {
		return set, nil, fmt.Errorf("gauge %s: %w", name, err)
	}
	set.count = g
	return set, append(obs, g), nil
}

// observe reads one snapshot per collection so all series are consistent.
func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()
	for _, id := range e.order {
		o.ObserveInt64(e.counters[id], int64(snap.Counters[id]))
	}
	for _, set := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snap.Histograms[set.id]))
		for i, g := range set.gauges {
			o.ObserveInt64(g, int64(cumulative[i]))
		}
		o.ObserveInt64(set.count, int64(cumulative[internaldefs.BucketCount-1]))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
