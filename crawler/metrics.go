package crawler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for crawl progress.
type Metrics struct {
	GamesTotal    *prometheus.CounterVec
	PlayersTotal  *prometheus.CounterVec
	FailuresTotal *prometheus.CounterVec
	RunDuration   prometheus.Histogram
}

// NewMetrics constructs the crawler collectors and registers them on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	games := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nhl_crawler_games_total",
			Help: "Games processed by outcome.",
		},
		[]string{"status"},
	)
	players := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nhl_crawler_players_total",
			Help: "Player records processed by outcome.",
		},
		[]string{"status"},
	)
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nhl_crawler_failures_total",
			Help: "Crawl failures by category.",
		},
		[]string{"category"},
	)
	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nhl_crawler_run_duration_seconds",
		Help:    "Duration of a crawl window.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	registry.MustRegister(games, players, failures, runDuration)

	return &Metrics{
		GamesTotal:    games,
		PlayersTotal:  players,
		FailuresTotal: failures,
		RunDuration:   runDuration,
	}
}

func (m *Metrics) incGame(status string) {
	if m == nil {
		return
	}
	m.GamesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) addPlayers(status string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.PlayersTotal.WithLabelValues(status).Add(float64(n))
}

func (m *Metrics) addFailures(category string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.FailuresTotal.WithLabelValues(category).Add(float64(n))
}

func (m *Metrics) observeRun(d time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(d.Seconds())
}
