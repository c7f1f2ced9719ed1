package goAccount

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLoginSuccess)
	m.Observe(MetricHashLatency, time.Millisecond)
	if m.Value(MetricLoginSuccess) != 0 {
		t.Fatal("nil metrics should read zero")
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %v", snap.Counters)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricRegistrationStarted)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricRegistrationStarted); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		25 * time.Millisecond,
		26 * time.Millisecond,
		100 * time.Millisecond,
		101 * time.Millisecond,
		400 * time.Millisecond,
		time.Second,
		3 * time.Second,
	}
	for _, d := range observations {
		m.Observe(MetricHashLatency, d)
	}

	buckets := m.Snapshot().Histograms[MetricHashLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsObserveIgnoresCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricLoginSuccess, time.Millisecond)

	snap := m.Snapshot()
	if _, ok := snap.Histograms[MetricLoginSuccess]; ok {
		t.Fatal("counter metric must not carry a histogram")
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginFailure)
	m.Inc(MetricLoginFailure)
	m.Observe(MetricHashLatency, 2*time.Millisecond)

	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("expected MetricLoginSuccess=1 got %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricLoginFailure] != 2 {
		t.Fatalf("expected MetricLoginFailure=2 got %d", snap.Counters[MetricLoginFailure])
	}
	if _, ok := snap.Counters[MetricHashLatency]; ok {
		t.Fatal("histogram id must not appear among counters")
	}
	if _, ok := snap.Histograms[MetricHashLatency]; ok {
		t.Fatal("histograms disabled, expected none")
	}
}

func TestEngineCountsLifecycleOutcomes(t *testing.T) {
	env := newTestEnv(t, func(c *Config, _ *Builder) {
		c.Metrics.Enabled = true
		c.Metrics.EnableLatencyHistograms = true
	})
	ctx := context.Background()

	if _, err := env.engine.StartRegistration(ctx, "a@x.com"); err != nil {
		t.Fatalf("StartRegistration failed: %v", err)
	}
	if _, err := env.engine.StartRegistration(ctx, "a@x.com"); err != nil {
		t.Fatalf("resend failed: %v", err)
	}
	if _, err := env.engine.ConfirmRegistration(ctx, env.notifier.last(t).token, "secret1"); err != nil {
		t.Fatalf("ConfirmRegistration failed: %v", err)
	}
	if _, err := env.engine.Login(ctx, "a@x.com", "secret1"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	_, _ = env.engine.Login(ctx, "a@x.com", "wrong-password")
	_, _ = env.engine.StartRegistration(ctx, "a@x.com")

	snap := env.engine.MetricsSnapshot()
	want := map[MetricID]uint64{
		MetricRegistrationStarted:   1,
		MetricRegistrationResent:    1,
		MetricRegistrationConfirmed: 1,
		MetricRegistrationDuplicate: 1,
		MetricLoginSuccess:          1,
		MetricLoginFailure:          1,
	}
	for id, n := range want {
		if snap.Counters[id] != n {
			t.Fatalf("metric %d: expected %d, got %d", id, n, snap.Counters[id])
		}
	}

	var hashed uint64
	for _, n := range snap.Histograms[MetricHashLatency] {
		hashed += n
	}
	// confirm hashes once and each login verifies once
	if hashed < 3 {
		t.Fatalf("expected at least 3 hash observations, got %d", hashed)
	}
}
