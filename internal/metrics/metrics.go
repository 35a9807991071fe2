package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/ErlanBelekov/bloodbank/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Account lifecycle

	RegistrationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bloodbank",
		Name:      "registrations_total",
		Help:      "Pending identities created, by role.",
	}, []string{"role"})

	OTPIssuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bloodbank",
		Name:      "otp_issued_total",
		Help:      "One-time codes issued, by purpose.",
	}, []string{"purpose"})

	OTPValidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bloodbank",
		Name:      "otp_validations_total",
		Help:      "One-time code validation attempts, by purpose and outcome.",
	}, []string{"purpose", "outcome"})

	OTPSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bloodbank",
		Name:      "otp_swept_total",
		Help:      "Expired one-time codes removed by the sweeper.",
	})

	NotificationFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bloodbank",
		Name:      "notification_failures_total",
		Help:      "Emails that could not be delivered.",
	})

	LoginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bloodbank",
		Name:      "logins_total",
		Help:      "Login attempts, by outcome.",
	}, []string{"outcome"})

	// Ledger

	DonationsRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bloodbank",
		Name:      "donations_recorded_total",
		Help:      "Donation records stored, by status.",
	}, []string{"status"})

	DonationQuantityTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bloodbank",
		Name:      "donation_quantity_ml_total",
		Help:      "Summed quantity of stored donation records, by status.",
	}, []string{"status"})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bloodbank",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bloodbank",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		RegistrationsTotal,
		OTPIssuedTotal,
		OTPValidationsTotal,
		OTPSweptTotal,
		NotificationFailuresTotal,
		LoginsTotal,
		DonationsRecordedTotal,
		DonationQuantityTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer serves /metrics plus liveness and readiness probes.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, result health.HealthResult) {
	w.Header().Set("Content-Type", "application/json")
	if result.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(result)
}
