package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attemptsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_attempts_started_total",
			Help: "Number of quiz attempts started",
		},
	)
	attemptsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_attempts_finished_total",
			Help: "Number of quiz attempts that reached a terminal status",
		},
		[]string{"status"},
	)
	certificatesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_certificates_issued_total",
			Help: "Number of certificates issued",
		},
	)
)
