package metrics

import "github.com/prometheus/client_golang/prometheus"

// PrometheusGauges mirrors cmd/server/prometheus.go's promMetrics struct:
// one Prometheus gauge per counter, registered once and Set on every
// Update call rather than implemented as a prometheus.Collector.
type PrometheusGauges struct {
	tick                  prometheus.Gauge
	spikesEmitted         prometheus.Gauge
	packetsSent           prometheus.Gauge
	fabricRetries         prometheus.Gauge
	recorderReallocations prometheus.Gauge
	pauseCount            prometheus.Gauge
}

// NewPrometheusGauges constructs the gauge set without registering it.
func NewPrometheusGauges() *PrometheusGauges {
	return &PrometheusGauges{
		tick: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "poissoncore_tick",
			Help: "Current simulation tick",
		}),
		spikesEmitted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "poissoncore_spikes_emitted_total",
			Help: "Cumulative spikes emitted across all sources",
		}),
		packetsSent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "poissoncore_packets_sent_total",
			Help: "Cumulative fabric packets accepted",
		}),
		fabricRetries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "poissoncore_fabric_retries_total",
			Help: "Cumulative fabric-congestion retry attempts",
		}),
		recorderReallocations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "poissoncore_recorder_reallocations_total",
			Help: "Cumulative recording-buffer growth events",
		}),
		pauseCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "poissoncore_pause_total",
			Help: "Cumulative pause/resume cycles",
		}),
	}
}

// Register registers every gauge with reg.
func (g *PrometheusGauges) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		g.tick, g.spikesEmitted, g.packetsSent,
		g.fabricRetries, g.recorderReallocations, g.pauseCount,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Update pushes a Snapshot's values into the gauges.
func (g *PrometheusGauges) Update(s Snapshot) {
	g.tick.Set(float64(s.Tick))
	g.spikesEmitted.Set(float64(s.SpikesEmitted))
	g.packetsSent.Set(float64(s.PacketsSent))
	g.fabricRetries.Set(float64(s.FabricRetries))
	g.recorderReallocations.Set(float64(s.RecorderReallocations))
	g.pauseCount.Set(float64(s.PauseCount))
}
