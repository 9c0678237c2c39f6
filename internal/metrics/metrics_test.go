package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(logins.WithLabelValues("student", "denied"))
	Login("student", false)
	Login("student", true)
	assert.Equal(t, before+1, testutil.ToFloat64(logins.WithLabelValues("student", "denied")))

	beforeMarks := testutil.ToFloat64(marks.WithLabelValues("present"))
	Marked("present")
	assert.Equal(t, beforeMarks+1, testutil.ToFloat64(marks.WithLabelValues("present")))

	beforeRejected := testutil.ToFloat64(rejectedMarks)
	MarkRejected()
	assert.Equal(t, beforeRejected+1, testutil.ToFloat64(rejectedMarks))

	Registered("teacher")
	assert.GreaterOrEqual(t, testutil.ToFloat64(registrations.WithLabelValues("teacher")), 1.0)

	AuditRecorded()
	assert.GreaterOrEqual(t, testutil.ToFloat64(auditEntries), 1.0)
}
