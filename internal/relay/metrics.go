package relay

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the relay's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	PacketsSent  prometheus.Counter
	TxErrors     prometheus.Counter
	LinesDropped prometheus.Counter
	TxAttempts   prometheus.Counter
	Sequence     prometheus.Gauge
	LastRSSI     prometheus.Gauge
	TxPower      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PacketsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cansat_relay_packets_sent_total",
			Help: "Packets transmitted successfully.",
		}),
		TxErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cansat_relay_tx_errors_total",
			Help: "Packets lost after exhausting every transmission attempt.",
		}),
		LinesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cansat_relay_lines_dropped_total",
			Help: "Input lines rejected by validation.",
		}),
		TxAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cansat_relay_tx_attempts_total",
			Help: "Transmission attempts, including retries.",
		}),
		Sequence: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cansat_relay_sequence",
			Help: "Sequence number of the next packet.",
		}),
		LastRSSI: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cansat_relay_last_rssi_dbm",
			Help: "Last RSSI reported by the radio.",
		}),
		TxPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cansat_relay_tx_power_dbm",
			Help: "Output power selected for the last attempt.",
		}),
	}

	reg.MustRegister(m.PacketsSent, m.TxErrors, m.LinesDropped, m.TxAttempts, m.Sequence, m.LastRSSI, m.TxPower)
	return m
}

func (m *Metrics) attempt(rssi, power int) {
	if m == nil {
		return
	}
	m.TxAttempts.Inc()
	m.LastRSSI.Set(float64(rssi))
	m.TxPower.Set(float64(power))
}

func (m *Metrics) sent(next uint32) {
	if m == nil {
		return
	}
	m.PacketsSent.Inc()
	m.Sequence.Set(float64(next))
}

func (m *Metrics) failed() {
	if m == nil {
		return
	}
	m.TxErrors.Inc()
}

func (m *Metrics) dropped() {
	if m == nil {
		return
	}
	m.LinesDropped.Inc()
}
