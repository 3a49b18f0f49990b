package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scans counts processed scan requests by outcome: ok, unknown, invalid,
// error.
var Scans = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rfid_scans_total",
	Help: "Scan requests processed, labeled by outcome.",
}, []string{"outcome"})

// Notifications counts notification dispatch results: sent, skipped,
// failed.
var Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rfid_notifications_total",
	Help: "Notification jobs, labeled by result.",
}, []string{"result"})
