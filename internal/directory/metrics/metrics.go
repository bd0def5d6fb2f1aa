package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the directory module: save
// throughput, reconciliation churn, and caller-ID lookup outcomes.
type Metrics struct {
	ContactsSaved    prometheus.Counter
	SavesRejected    prometheus.Counter
	TagsCreated      prometheus.Counter
	OrphanedTags     prometheus.Counter
	CompaniesCreated prometheus.Counter
	OrphanedCompanies prometheus.Counter

	LookupMatched   prometheus.Counter
	LookupUnknown   prometheus.Counter
	LookupAmbiguous prometheus.Counter

	SaveDuration   prometheus.Histogram
	LookupDuration prometheus.Histogram
}

// New creates a Metrics instance with all directory metrics registered.
func New() *Metrics {
	return &Metrics{
		ContactsSaved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "switchboard_contacts_saved_total",
			Help: "Total number of contact saves committed",
		}),
		SavesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "switchboard_contact_saves_rejected_total",
			Help: "Total number of contact saves rejected by validation",
		}),
		TagsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "switchboard_tags_created_total",
			Help: "Total number of tags created on demand by reconciliation",
		}),
		OrphanedTags: promauto.NewCounter(prometheus.CounterOpts{
			Name: "switchboard_tags_orphan_deleted_total",
			Help: "Total number of tags deleted after losing their last contact",
		}),
		CompaniesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "switchboard_companies_created_total",
			Help: "Total number of companies created on demand by reconciliation",
		}),
		OrphanedCompanies: promauto.NewCounter(prometheus.CounterOpts{
			Name: "switchboard_companies_orphan_deleted_total",
			Help: "Total number of companies deleted after losing their last contact",
		}),
		LookupMatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "switchboard_callerid_lookup_matched_total",
			Help: "Caller-ID lookups that resolved to a contact or company",
		}),
		LookupUnknown: promauto.NewCounter(prometheus.CounterOpts{
			Name: "switchboard_callerid_lookup_unknown_total",
			Help: "Caller-ID lookups with no matching phone number",
		}),
		LookupAmbiguous: promauto.NewCounter(prometheus.CounterOpts{
			Name: "switchboard_callerid_lookup_ambiguous_total",
			Help: "Caller-ID lookups that hit the duplicated-number sentinel",
		}),
		SaveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "switchboard_contact_save_duration_seconds",
			Help:    "Duration of contact save operations including reconciliation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		LookupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "switchboard_callerid_lookup_duration_seconds",
			Help:    "Duration of caller-ID lookups",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveSave records the duration of a save. Call with the start time.
func (m *Metrics) ObserveSave(start time.Time) {
	m.SaveDuration.Observe(time.Since(start).Seconds())
}

// ObserveLookup records the duration of a lookup. Call with the start time.
func (m *Metrics) ObserveLookup(start time.Time) {
	m.LookupDuration.Observe(time.Since(start).Seconds())
}
