package tasks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsfeed_import_cycles_total",
		Help: "Import cycles by outcome.",
	}, []string{"outcome"})

	pagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsfeed_import_pages_fetched_total",
		Help: "Listing pages fetched.",
	})

	recordsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsfeed_import_records_total",
		Help: "Candidate records by write result.",
	}, []string{"result"})

	lastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "newsfeed_import_last_success_timestamp_seconds",
		Help: "Unix time of the last successful import cycle.",
	})
)
