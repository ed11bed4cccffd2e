// Package metrics exposes Prometheus counters for device polling and
// entity commands.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flux2mqtt",
		Subsystem: "device",
		Name:      "polls_total",
		Help:      "Device state polls attempted",
	}, []string{"entry"})

	pollErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flux2mqtt",
		Subsystem: "device",
		Name:      "poll_errors_total",
		Help:      "Device state polls that failed",
	}, []string{"entry"})

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flux2mqtt",
		Subsystem: "entity",
		Name:      "commands_total",
		Help:      "Commands received from the platform",
	}, []string{"entry", "entity"})

	commandErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flux2mqtt",
		Subsystem: "entity",
		Name:      "command_errors_total",
		Help:      "Commands that failed against the device",
	}, []string{"entry", "entity"})

	deviceOnline = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "flux2mqtt",
		Subsystem: "device",
		Name:      "online",
		Help:      "Whether the entry's device is currently reachable",
	}, []string{"entry"})

	reloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flux2mqtt",
		Subsystem: "bridge",
		Name:      "entry_reloads_total",
		Help:      "Entry reloads performed",
	}, []string{"entry"})
)

// RecordPoll counts a poll attempt and, when err is non-nil, a failure.
func RecordPoll(entry string, err error) {
	pollsTotal.WithLabelValues(entry).Inc()
	if err != nil {
		pollErrorsTotal.WithLabelValues(entry).Inc()
	}
}

// RecordCommand counts a platform command and, when err is non-nil, a
// failure.
func RecordCommand(entry, entity string, err error) {
	commandsTotal.WithLabelValues(entry, entity).Inc()
	if err != nil {
		commandErrorsTotal.WithLabelValues(entry, entity).Inc()
	}
}

// SetOnline records the entry's availability.
func SetOnline(entry string, online bool) {
	v := 0.0
	if online {
		v = 1.0
	}
	deviceOnline.WithLabelValues(entry).Set(v)
}

// RecordReload counts an entry reload.
func RecordReload(entry string) {
	reloadsTotal.WithLabelValues(entry).Inc()
}

// Forget drops an entry's series, for entries removed from the config.
func Forget(entry string) {
	pollsTotal.DeletePartialMatch(prometheus.Labels{"entry": entry})
	pollErrorsTotal.DeletePartialMatch(prometheus.Labels{"entry": entry})
	commandsTotal.DeletePartialMatch(prometheus.Labels{"entry": entry})
	commandErrorsTotal.DeletePartialMatch(prometheus.Labels{"entry": entry})
	deviceOnline.DeletePartialMatch(prometheus.Labels{"entry": entry})
	reloadsTotal.DeletePartialMatch(prometheus.Labels{"entry": entry})
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
