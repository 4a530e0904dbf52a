package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsOpened = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_sessions_opened_total",
			Help: "Total number of quiz sessions opened",
		},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_sessions_active",
			Help: "Current number of open quiz sessions",
		},
	)

	answersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_answers_total",
			Help: "Scored answers by outcome",
		},
		[]string{"outcome"}, // correct/incorrect
	)

	resultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_results_total",
			Help: "Finished play-throughs by result tier",
		},
		[]string{"tier"},
	)
)
