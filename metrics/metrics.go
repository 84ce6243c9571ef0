package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Счётчики жизненного цикла стола. Регистрируются в дефолтном реестре.
var (
	MatchesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "table_matches_started_total",
		Help: "Number of matches that entered the live or seeking state.",
	})

	MatchesEnded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "table_matches_ended_total",
		Help: "Number of matches concluded with a winner (including forfeits).",
	})

	MatchesCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "table_matches_cancelled_total",
		Help: "Number of matches cancelled before conclusion.",
	})

	QueueEntriesAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "table_queue_entries_added_total",
		Help: "Number of teams enqueued for the table.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
