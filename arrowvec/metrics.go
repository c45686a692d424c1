package arrowvec

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	batchesConverted  prometheus.Counter
	rowsConverted     prometheus.Counter
	convertDuration   prometheus.Histogram
	dictionaryDecodes prometheus.Counter
	columnsBackfilled prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		batchesConverted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "boreal_arrowvec_batches_converted_total",
			Help: "Number of arrow tables converted to engine blocks.",
		}),
		rowsConverted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "boreal_arrowvec_rows_converted_total",
			Help: "Number of rows converted to engine blocks.",
		}),
		convertDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "boreal_arrowvec_convert_duration_seconds",
			Help:    "Time spent converting one arrow table.",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		dictionaryDecodes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "boreal_arrowvec_dictionary_decodes_total",
			Help: "Number of full dictionary value decodes; cache hits do not count.",
		}),
		columnsBackfilled: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "boreal_arrowvec_columns_backfilled_total",
			Help: "Number of requested columns synthesized with default values.",
		}),
	}
}
