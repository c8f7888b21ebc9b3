// Package metrics holds the Prometheus collectors behind a StatusResponse's
// MetricsSnapshot (spec §6): search latency, worker resource usage, and
// queue depth. It mirrors aistore's pattern of keeping metrics in a private
// registry (`stats.initProm`) rather than registering against the global
// default registry, so embedding this service doesn't pollute a host
// process's own /metrics output.
package metrics

import (
	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joyshmitz/ultrasearch/internal/ipc"
)

// Metrics is the set of collectors a running service updates as it works
// and reads back into a MetricsSnapshot for status queries.
type Metrics struct {
	Registry *prometheus.Registry

	searchLatencyMS prometheus.Summary
	workerCPUPct    prometheus.Gauge
	workerMemBytes  prometheus.Gauge
	queueDepth      prometheus.Gauge
	activeWorkers   prometheus.Gauge
	contentEnqueued prometheus.Counter
	contentDropped  prometheus.Counter
}

// New builds a Metrics with its own private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		searchLatencyMS: prometheus.NewSummary(prometheus.SummaryOpts{
			Name:       "ultrasearch_search_latency_ms",
			Help:       "Search request latency in milliseconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.95: 0.01},
		}),
		workerCPUPct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ultrasearch_worker_cpu_pct",
			Help: "CPU percent consumed by content-extraction worker processes.",
		}),
		workerMemBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ultrasearch_worker_mem_bytes",
			Help: "RSS bytes consumed by content-extraction worker processes.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ultrasearch_queue_depth",
			Help: "Total jobs queued across all lanes.",
		}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ultrasearch_active_workers",
			Help: "Number of currently running content-extraction worker processes.",
		}),
		contentEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ultrasearch_content_enqueued_total",
			Help: "Content-extraction jobs enqueued.",
		}),
		contentDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ultrasearch_content_dropped_total",
			Help: "Content-extraction jobs dropped (worker cooldown or worker failure).",
		}),
	}

	reg.MustRegister(
		m.searchLatencyMS, m.workerCPUPct, m.workerMemBytes,
		m.queueDepth, m.activeWorkers, m.contentEnqueued, m.contentDropped,
	)
	return m
}

// ObserveSearchLatency records one search request's wall-clock latency.
func (m *Metrics) ObserveSearchLatency(ms float64) { m.searchLatencyMS.Observe(ms) }

// SetWorkerUsage records the aggregate CPU/memory usage sampled across all
// running worker processes.
func (m *Metrics) SetWorkerUsage(cpuPct float64, memBytes uint64) {
	m.workerCPUPct.Set(cpuPct)
	m.workerMemBytes.Set(float64(memBytes))
}

// SetQueueDepth records the total job count across all lanes.
func (m *Metrics) SetQueueDepth(depth int) { m.queueDepth.Set(float64(depth)) }

// SetActiveWorkers records the current worker process count.
func (m *Metrics) SetActiveWorkers(n int) { m.activeWorkers.Set(float64(n)) }

// IncContentEnqueued increments the content-enqueued counter by n.
func (m *Metrics) IncContentEnqueued(n uint64) { m.contentEnqueued.Add(float64(n)) }

// IncContentDropped increments the content-dropped counter by n.
func (m *Metrics) IncContentDropped(n uint64) { m.contentDropped.Add(float64(n)) }

// Snapshot reads the collectors' current values into a wire-ready
// MetricsSnapshot. Summary quantiles and counter/gauge values are read via
// each collector's Write method rather than a separate scrape, since this
// snapshot is served over the IPC protocol, not HTTP.
func (m *Metrics) Snapshot() ipc.MetricsSnapshot {
	var snap ipc.MetricsSnapshot

	var sm dto.Metric
	if err := m.searchLatencyMS.Write(&sm); err == nil {
		for _, q := range sm.GetSummary().GetQuantile() {
			switch q.GetQuantile() {
			case 0.5:
				snap.SearchLatencyMsP50, snap.HasP50 = float32(q.GetValue()), true
			case 0.95:
				snap.SearchLatencyMsP95, snap.HasP95 = float32(q.GetValue()), true
			}
		}
	}

	snap.WorkerCPUPct, snap.HasWorkerCPUPct = float32(readGauge(m.workerCPUPct)), true
	snap.WorkerMemBytes, snap.HasWorkerMemBytes = uint64(readGauge(m.workerMemBytes)), true
	snap.QueueDepth, snap.HasQueueDepth = uint32(readGauge(m.queueDepth)), true
	snap.ActiveWorkers, snap.HasActiveWorkers = uint32(readGauge(m.activeWorkers)), true
	snap.ContentEnqueued, snap.HasContentEnqueued = uint64(readCounter(m.contentEnqueued)), true
	snap.ContentDropped, snap.HasContentDropped = uint64(readCounter(m.contentDropped)), true

	return snap
}

func readGauge(g prometheus.Gauge) float64 {
	var out dto.Metric
	if err := g.Write(&out); err != nil {
		return 0
	}
	return out.GetGauge().GetValue()
}

func readCounter(c prometheus.Counter) float64 {
	var out dto.Metric
	if err := c.Write(&out); err != nil {
		return 0
	}
	return out.GetCounter().GetValue()
}
