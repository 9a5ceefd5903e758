package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.BookingsTotal.WithLabelValues("success").Inc()
	m.BookingsTotal.WithLabelValues("insufficient_seats").Inc()
	m.BookingsTotal.WithLabelValues("insufficient_seats").Inc()
	m.CancellationsTotal.WithLabelValues("already_cancelled").Inc()
	m.InventoryRetriesTotal.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingsTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingsTotal.WithLabelValues("insufficient_seats")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CancellationsTotal.WithLabelValues("already_cancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InventoryRetriesTotal))
}

func TestNewWithRegistry_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotNil(t, NewWithRegistry(reg))
	assert.Panics(t, func() { NewWithRegistry(reg) })
}
