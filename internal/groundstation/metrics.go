package groundstation

import "github.com/prometheus/client_golang/prometheus"

// Discard reasons
const (
	ReasonNoDelimiter = "no_delimiter"
	ReasonFieldCount  = "field_count"
	ReasonChecksum    = "checksum"
	ReasonTooLong     = "too_long"
)

// Metrics are the ground station's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	FramesReceived  prometheus.Counter
	FramesDiscarded *prometheus.CounterVec
	RowsLogged      prometheus.Counter
	LogErrors       prometheus.Counter
	ArchiveErrors   prometheus.Counter
	WindowRows      prometheus.Gauge
	LastRSSI        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cansat_groundstation_frames_received_total",
			Help: "Lines read from the radio input.",
		}),
		FramesDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cansat_groundstation_frames_discarded_total",
			Help: "Frames dropped without a log row, by reason.",
		}, []string{"reason"}),
		RowsLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cansat_groundstation_rows_logged_total",
			Help: "Rows appended to the CSV log.",
		}),
		LogErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cansat_groundstation_log_errors_total",
			Help: "Failed CSV log writes.",
		}),
		ArchiveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cansat_groundstation_archive_errors_total",
			Help: "Failed SQLite archive writes.",
		}),
		WindowRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cansat_groundstation_window_rows",
			Help: "Rows held in the display window.",
		}),
		LastRSSI: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cansat_groundstation_last_rssi_dbm",
			Help: "RSSI reported in the header of the last accepted frame.",
		}),
	}

	reg.MustRegister(m.FramesReceived, m.FramesDiscarded, m.RowsLogged, m.LogErrors, m.ArchiveErrors, m.WindowRows, m.LastRSSI)
	return m
}

func (m *Metrics) received() {
	if m == nil {
		return
	}
	m.FramesReceived.Inc()
}

func (m *Metrics) discarded(reason string) {
	if m == nil {
		return
	}
	m.FramesDiscarded.WithLabelValues(reason).Inc()
}

func (m *Metrics) accepted(f Frame, windowRows int, logged bool) {
	if m == nil {
		return
	}
	if logged {
		m.RowsLogged.Inc()
	} else {
		m.LogErrors.Inc()
	}
	if f.Header.Valid {
		m.LastRSSI.Set(float64(f.Header.RSSI))
	}
	m.WindowRows.Set(float64(windowRows))
}

func (m *Metrics) archiveFailed() {
	if m == nil {
		return
	}
	m.ArchiveErrors.Inc()
}
