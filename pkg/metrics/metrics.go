// Package metrics exports the Stats Registry's counters as Prometheus
// metrics for the duration of a benchmark run. It takes only the
// Prometheus half of the teacher's pkg/telemetry: no OpenTelemetry SDK
// layer, since there is no RPC boundary here for distributed tracing to
// connect spans across.
package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aashcharya1/toydb-storage-engine/core/pfstats"
)

// Server exposes a running Stats Registry's counters plus one summary
// histogram of harness wall-clock time over an HTTP /metrics endpoint.
type Server struct {
	registry   *prometheus.Registry
	httpServer *http.Server
	runTime    prometheus.Histogram
}

// Start registers CounterFuncs against stats's live counters and begins
// serving /metrics on addr. The caller stops the server via Shutdown
// when the harness run completes; a harness that never sets
// --metrics-addr never calls Start.
func Start(addr string, harness string, stats *pfstats.Registry) (*Server, error) {
	reg := prometheus.NewRegistry()

	counter := func(name, help string, read func() uint64) prometheus.CounterFunc {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   "pfdb",
			Subsystem:   "stats",
			Name:        name,
			Help:        help,
			ConstLabels: prometheus.Labels{"harness": harness},
		}, func() float64 { return float64(read()) })
	}

	snap := func(pick func(pfstats.Stats) uint64) func() uint64 {
		return func() uint64 { return pick(stats.Snapshot()) }
	}

	reg.MustRegister(
		counter("logical_reads_total", "logical reads observed at the file API level", snap(func(s pfstats.Stats) uint64 { return s.LogicalReads })),
		counter("logical_writes_total", "logical writes observed at the file API level", snap(func(s pfstats.Stats) uint64 { return s.LogicalWrites })),
		counter("physical_reads_total", "actual disk reads", snap(func(s pfstats.Stats) uint64 { return s.PhysicalReads })),
		counter("physical_writes_total", "actual disk writes", snap(func(s pfstats.Stats) uint64 { return s.PhysicalWrites })),
		counter("input_count_total", "physical read alias", snap(func(s pfstats.Stats) uint64 { return s.InputCount })),
		counter("output_count_total", "physical write alias", snap(func(s pfstats.Stats) uint64 { return s.OutputCount })),
		counter("page_fixes_total", "frame pin count transitions", snap(func(s pfstats.Stats) uint64 { return s.PageFixes })),
		counter("dirty_marks_total", "clean-to-dirty frame transitions", snap(func(s pfstats.Stats) uint64 { return s.DirtyMarks })),
	)

	runTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pfdb",
		Subsystem: "harness",
		Name:      "run_duration_seconds",
		Help:      "wall-clock duration of completed harness runs",
		Buckets:   prometheus.DefBuckets,
	})
	reg.MustRegister(runTime)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	httpServer := &http.Server{Addr: addr, Handler: mux}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: listening on %s: %w", addr, err)
	}
	go httpServer.Serve(ln)

	return &Server{registry: reg, httpServer: httpServer, runTime: runTime}, nil
}

// ObserveRunDuration records one completed harness run's wall-clock time.
func (s *Server) ObserveRunDuration(d time.Duration) {
	s.runTime.Observe(d.Seconds())
}

// Shutdown stops serving /metrics.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
