package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Application metrics, exposed on the debug listener under /metrics.
var (
	ReviewDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lnms",
		Name:      "review_decisions_total",
		Help:      "Lesson review decisions by outcome.",
	}, []string{"decision"})

	AutosaveTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lnms",
		Name:      "autosave_ticks_total",
		Help:      "Auto-save ticks by result (saved, skipped, dropped, failed).",
	}, []string{"result"})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lnms",
		Name:      "login_attempts_total",
		Help:      "Login attempts by result.",
	}, []string{"result"})
)

// EmailsSent counts outgoing emails by template and result (sent, skipped, failed).
var EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lnms",
	Name:      "emails_sent_total",
	Help:      "Outgoing emails by template and result.",
}, []string{"template", "result"})
