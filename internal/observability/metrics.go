package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application-level counters exposed on /metrics.
type Metrics struct {
	Registry *prometheus.Registry

	CheckoutsCompleted    prometheus.Counter
	NightAuditRuns        *prometheus.CounterVec
	CompanyLedgerPostings prometheus.Counter
	DepositRefunds        prometheus.Counter
	HTTPRequestDuration   *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	// Go and process collectors live on the default registry, which the
	// /metrics handler gathers alongside this one; registering them here
	// too would make every gather fail on duplicates.
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		CheckoutsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frontdesk_checkouts_completed_total",
			Help: "Guest checkouts completed.",
		}),
		NightAuditRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frontdesk_night_audit_runs_total",
			Help: "Night audit run attempts by outcome.",
		}, []string{"outcome"}),
		CompanyLedgerPostings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frontdesk_company_ledger_postings_total",
			Help: "Receivable entries posted to company ledgers.",
		}),
		DepositRefunds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frontdesk_deposit_refunds_total",
			Help: "Room card deposit refunds recorded.",
		}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "frontdesk_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(m.CheckoutsCompleted, m.NightAuditRuns, m.CompanyLedgerPostings,
		m.DepositRefunds, m.HTTPRequestDuration)
	return m
}
