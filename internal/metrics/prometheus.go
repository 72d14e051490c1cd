package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics
var (
	MessagesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_messages_processed_total",
			Help: "Total number of messages processed by verdict",
		},
		[]string{"verdict"}, // succeeded, failed
	)

	MessageProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "intake_message_processing_duration_seconds",
			Help:    "Duration of single-message processing",
			Buckets: prometheus.DefBuckets,
		},
	)

	PartsClassifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_parts_classified_total",
			Help: "Total number of MIME parts classified by action",
		},
		[]string{"action"}, // container, attachment, html_links, text_links, skip
	)

	DocumentsSavedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_documents_saved_total",
			Help: "Total number of documents saved by source",
		},
		[]string{"source"}, // attachment, html-link, text-link
	)

	DocumentBytesSavedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_document_bytes_saved_total",
			Help: "Total bytes of document payload written to the store",
		},
	)

	LinkFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_link_fetches_total",
			Help: "Total number of remote link fetches by result",
		},
		[]string{"result"}, // ok, http_error, transport_error
	)

	LinkFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "intake_link_fetch_duration_seconds",
			Help:    "Duration of remote link fetches",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Mailbox metrics
var (
	PollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_poll_cycles_total",
			Help: "Total number of mailbox poll cycles by result",
		},
		[]string{"result"}, // ok, error
	)

	UnseenMessagesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_unseen_messages_fetched_total",
			Help: "Total number of unseen messages fetched from the mailbox",
		},
	)

	FlagMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_flag_mutations_total",
			Help: "Total number of mailbox flag mutations by kind",
		},
		[]string{"kind"}, // processed, followup
	)
)

// Ledger metrics
var (
	LedgerRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_ledger_records_total",
			Help: "Total number of ledger record attempts by result",
		},
		[]string{"result"}, // ok, error
	)
)
