package mud

import (
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metrics for the game server. Counters are incremented at
// the point of the event; gauges are refreshed on scrape.
var (
	playersConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "smallmud_players_connected",
		Help: "Number of sessions currently in the playing stage.",
	})
	sessionsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "smallmud_sessions_open",
		Help: "Number of open sessions, including those still logging in.",
	})
	connectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smallmud_connections_total",
		Help: "Total connections accepted since server start.",
	})
	connectionsBlocked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smallmud_connections_blocked_total",
		Help: "Connections rejected by the blocked-address list.",
	})
	commandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "smallmud_commands_total",
		Help: "Commands processed since server start, by verb.",
	}, []string{"verb"})
	linesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smallmud_lines_received_total",
		Help: "Input lines received from clients.",
	})
	uptimeSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "smallmud_uptime_seconds",
		Help: "Server uptime in seconds.",
	})
	memoryHeapBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "smallmud_memory_heap_bytes",
		Help: "Go heap memory allocated in bytes.",
	})
	goroutines = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "smallmud_goroutines",
		Help: "Number of active goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		playersConnected,
		sessionsOpen,
		connectionsTotal,
		connectionsBlocked,
		commandsTotal,
		linesReceived,
		uptimeSeconds,
		memoryHeapBytes,
		goroutines,
	)
}

// updateGauges refreshes the snapshot gauges from current state.
func (srv *Server) updateGauges() {
	playing := 0
	for _, s := range srv.reg.All() {
		if s.IsPlaying() {
			playing++
		}
	}
	playersConnected.Set(float64(playing))
	sessionsOpen.Set(float64(srv.reg.Count()))
	uptimeSeconds.Set(time.Since(srv.started).Seconds())

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	memoryHeapBytes.Set(float64(mem.HeapAlloc))
	goroutines.Set(float64(runtime.NumGoroutine()))
}

// serveMetrics exposes /metrics on addr. It runs until the listener
// fails; a dead metrics endpoint never takes the game down.
func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics endpoint failed", "addr", addr, "error", err)
	}
}
