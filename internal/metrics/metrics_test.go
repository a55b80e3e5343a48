package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveStore(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveStore("insert", time.Now(), nil)
	m.ObserveStore("insert", time.Now(), errors.New("down"))
	m.ObserveStore("list", time.Now(), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("insert")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("list")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.StoreDuration))
}

func TestNewRegistersIndependently(t *testing.T) {
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())
	a.Submissions.WithLabelValues(OutcomeSaved).Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Submissions.WithLabelValues(OutcomeSaved)))
}
