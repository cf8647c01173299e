package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lineMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Subsystem: "lines",
		Name:      "mutations_total",
		Help:      "Total number of line list actions broken down by kind, action and result.",
	}, []string{"kind", "action", "result"})

	validationViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Subsystem: "validation",
		Name:      "violations_total",
		Help:      "Total number of field violations found on full validation broken down by kind and code.",
	}, []string{"kind", "code"})

	submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Subsystem: "submission",
		Name:      "requests_total",
		Help:      "Total number of submissions broken down by kind, method and result.",
	}, []string{"kind", "method", "result"})
)

func recordMutation(kind, action string, err error) {
	result := "applied"
	if err != nil {
		result = "refused"
	}
	lineMutations.WithLabelValues(kind, action, result).Inc()
}

func recordViolations(kind string, errs ErrorMap) {
	for _, fields := range errs {
		for _, v := range fields {
			validationViolations.WithLabelValues(kind, v.Code).Inc()
		}
	}
}

func recordSubmission(kind, method, result string) {
	if method == "" {
		method = "none"
	}
	submissions.WithLabelValues(kind, method, result).Inc()
}
