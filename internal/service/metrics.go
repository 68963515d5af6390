package service

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"recordapi/internal/attachment"
)

var (
	recordsSavedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "records_saved_total",
		Help: "Record saves by operation and outcome.",
	}, []string{"operation", "status"})

	historyEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "record_history_entries_total",
		Help: "History entries appended to records.",
	})

	attachmentBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "record_attachment_bytes_total",
		Help: "Attachment bytes written to object storage.",
	}, []string{"kind"})
)

func attachmentKind(a *attachment.Attachment) string {
	switch {
	case a.ParentKey != "":
		return "derivative"
	case strings.HasPrefix(a.Name, "audio-"):
		return "audio"
	default:
		return "photo"
	}
}
