package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classlink",
		Name:      "registrations_total",
		Help:      "Accounts registered, by kind.",
	}, []string{"kind"})

	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classlink",
		Name:      "logins_total",
		Help:      "Login attempts, by kind and result.",
	}, []string{"kind", "result"})

	marks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classlink",
		Name:      "attendance_marks_total",
		Help:      "Attendance marks stored, by status.",
	}, []string{"status"})

	rejectedMarks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "classlink",
		Name:      "attendance_marks_rejected_total",
		Help:      "Mark attempts refused because the day was already marked.",
	})

	auditEntries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "classlink",
		Name:      "audit_entries_total",
		Help:      "Audit entries written by the consumer.",
	})
)

func Registered(kind string) { registrations.WithLabelValues(kind).Inc() }

func Login(kind string, ok bool) {
	result := "ok"
	if !ok {
		result = "denied"
	}
	logins.WithLabelValues(kind, result).Inc()
}

func Marked(status string) { marks.WithLabelValues(status).Inc() }

func MarkRejected() { rejectedMarks.Inc() }

func AuditRecorded() { auditEntries.Inc() }
