package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PassesStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "activitycomb_passes_started_total",
		Help: "Reconciliation passes started, by trigger.",
	}, []string{"trigger"})

	PassesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "activitycomb_passes_completed_total",
		Help: "Reconciliation passes completed successfully.",
	})

	PassesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "activitycomb_passes_failed_total",
		Help: "Reconciliation passes that aborted with an error.",
	})

	PassesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "activitycomb_passes_rejected_total",
		Help: "Reconciliation triggers rejected because a pass was in flight.",
	})

	DuplicatesRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "activitycomb_duplicates_removed_total",
		Help: "Duplicate records eliminated across all passes.",
	})

	IdsRepaired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "activitycomb_ids_repaired_total",
		Help: "Activity numbers assigned or repaired across all passes.",
	})

	DescriptionsChanged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "activitycomb_descriptions_changed_total",
		Help: "Descriptions rewritten by text cleanup across all passes.",
	})

	SheetsImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "activitycomb_sheets_imported_total",
		Help: "Spreadsheet imports processed.",
	})
)
