package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	// Lifecycle operations and the state they ended in
	gatewayTransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_transactions_total",
		Help: "Total transaction lifecycle operations by resulting state",
	}, []string{
		"provider",  // authorize_net, manual
		"operation", // authorize, capture, settle, cancel, refund, update
		"state",     // authorized, completed, in-progress, failed, cancel
	})

	gatewayAmountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_amount_total",
		Help: "Total amount moved by completed transactions, in currency units",
	}, []string{
		"provider",
		"currency",
	})

	// Remote API calls
	authorizeNetCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authorizenet_api_calls_total",
		Help: "Total Authorize.net API calls",
	}, []string{
		"request_type", // createTransactionRequest, getCustomerProfileRequest, ...
		"result",       // ok, error, transport_error
	})

	authorizeNetCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "authorizenet_api_call_duration_seconds",
		Help:    "Latency of Authorize.net API calls",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{
		"request_type",
	})

	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "authorizenet_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{
		"endpoint",
	})

	// Resource resolution
	duplicateRecoveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "duplicate_recoveries_total",
		Help: "Duplicate-record recoveries by resource and outcome",
	}, []string{
		"resource", // address, payment_profile
		"outcome",  // recovered, failed
	})

	paymentProfilesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_profiles_created_total",
		Help: "Total payment profiles created (tokenized cards)",
	}, []string{
		"gateway_id",
	})
)

// RecordTransactionOperation records the state a lifecycle operation left a transaction in
func RecordTransactionOperation(provider, operation, state string) {
	gatewayTransactionsTotal.WithLabelValues(provider, operation, state).Inc()
}

// RecordCompletedAmount adds a completed transaction's amount to the running total
func RecordCompletedAmount(provider, currency string, amount decimal.Decimal) {
	gatewayAmountTotal.WithLabelValues(provider, currency).Add(amount.InexactFloat64())
}

// RecordAuthorizeNetCall records one remote call
func RecordAuthorizeNetCall(requestType, result string, seconds float64) {
	authorizeNetCallsTotal.WithLabelValues(requestType, result).Inc()
	authorizeNetCallDuration.WithLabelValues(requestType).Observe(seconds)
}

// SetCircuitBreakerState publishes the breaker state for an endpoint
func SetCircuitBreakerState(endpoint string, state int) {
	circuitBreakerState.WithLabelValues(endpoint).Set(float64(state))
}

// RecordDuplicateRecovery records the outcome of a duplicate-record cleanup and retry
func RecordDuplicateRecovery(resource string, recovered bool) {
	outcome := "failed"
	if recovered {
		outcome = "recovered"
	}
	duplicateRecoveriesTotal.WithLabelValues(resource, outcome).Inc()
}

// RecordPaymentProfileCreated records a newly tokenized card
func RecordPaymentProfileCreated(gatewayID string) {
	paymentProfilesCreated.WithLabelValues(gatewayID).Inc()
}
