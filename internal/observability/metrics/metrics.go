package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReminderMetrics exposes counters/histograms for reminder generation runs.
type ReminderMetrics struct {
	runsTotal     *prometheus.CounterVec
	draftsCreated prometheus.Counter
	skippedTotal  *prometheus.CounterVec
	itemFailures  prometheus.Counter
	runDuration   prometheus.Histogram
}

func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	m := &ReminderMetrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "reminders",
			Name:      "runs_total",
			Help:      "Total reminder generation runs by outcome",
		}, []string{"outcome"}),
		draftsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "reminders",
			Name:      "drafts_created_total",
			Help:      "Total reminder drafts written",
		}),
		skippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "reminders",
			Name:      "skipped_total",
			Help:      "Appointments excluded by the filter pipeline",
		}, []string{"reason"}),
		itemFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "reminders",
			Name:      "item_failures_total",
			Help:      "Per-appointment processing failures",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "reminders",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of reminder generation runs",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.runsTotal, m.draftsCreated, m.skippedTotal, m.itemFailures, m.runDuration)
	return m
}

func (m *ReminderMetrics) ObserveRun(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(seconds)
}

func (m *ReminderMetrics) AddDrafts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.draftsCreated.Add(float64(n))
}

func (m *ReminderMetrics) ObserveSkipped(reason string) {
	if m == nil {
		return
	}
	m.skippedTotal.WithLabelValues(reason).Inc()
}

func (m *ReminderMetrics) ObserveItemFailure() {
	if m == nil {
		return
	}
	m.itemFailures.Inc()
}
