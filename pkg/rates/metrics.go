package rates

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	errorsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rates_source_errors_total",
	}, []string{"source"})
	resolvedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rates_resolved_total",
		Help: "Prices resolved by each stage of the fallback chain",
	}, []string{"stage"})
)
