package obs

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartMutationsTotal counts cart mutations by operation and outcome.
	CartMutationsTotal *prometheus.CounterVec
	// DiscountEvaluationsTotal counts per-line discount evaluations by outcome.
	DiscountEvaluationsTotal *prometheus.CounterVec
	// PricingQuoteLatency records pricing pipeline latency in milliseconds.
	PricingQuoteLatency prometheus.Histogram
	// SavedCartRestoresTotal counts saved-cart restore attempts by outcome.
	SavedCartRestoresTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers cart engine collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of cart mutations by operation and result.",
		}, []string{"op", "result"})
		DiscountEvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_evaluations_total",
			Help:      "Count of per-line discount evaluations by result.",
		}, []string{"result"})
		PricingQuoteLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_quote_duration_ms",
			Help:      "Latency of cart pricing quotes in milliseconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		})
		SavedCartRestoresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saved_cart_restores_total",
			Help:      "Count of saved cart restore attempts by result.",
		}, []string{"result"})

		mustRegisterCollector(reg, CartMutationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartMutationsTotal = v
			}
		})
		mustRegisterCollector(reg, DiscountEvaluationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DiscountEvaluationsTotal = v
			}
		})
		mustRegisterCollector(reg, PricingQuoteLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				PricingQuoteLatency = v
			}
		})
		mustRegisterCollector(reg, SavedCartRestoresTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SavedCartRestoresTotal = v
			}
		})
	})
}

// CartMutation records the outcome of a cart mutation. It is a no-op before registration.
func CartMutation(op string, err error) {
	if CartMutationsTotal == nil {
		return
	}
	CartMutationsTotal.WithLabelValues(op, result(err)).Inc()
}

// DiscountEvaluation records one per-line discount decision.
func DiscountEvaluation(outcome string) {
	if DiscountEvaluationsTotal == nil {
		return
	}
	DiscountEvaluationsTotal.WithLabelValues(outcome).Inc()
}

// QuoteDuration observes the latency of a pricing quote.
func QuoteDuration(d time.Duration) {
	if PricingQuoteLatency == nil {
		return
	}
	PricingQuoteLatency.Observe(DurationMillis(d))
}

// SavedCartRestore records the outcome of a saved cart restore.
func SavedCartRestore(outcome string) {
	if SavedCartRestoresTotal == nil {
		return
	}
	SavedCartRestoresTotal.WithLabelValues(outcome).Inc()
}

// DurationMillis converts a duration to milliseconds for metric observation.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
