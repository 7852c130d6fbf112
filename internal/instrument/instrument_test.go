package instrument_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"sibank/internal/instrument"
)

func TestCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := instrument.New(reg)
	require.NoError(t, err)

	m.Handshake(instrument.OutcomeOK)
	m.Handshake(instrument.OutcomeRejected)
	m.Command("SIGN_IN", instrument.OutcomeOK, time.Millisecond)
	m.Transfer(30)
	m.Transfer(12)
	m.DecodeFailure()
	m.SessionOpened()

	count, err := testutil.GatherAndCount(reg, "sibank_handshakes_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range mfs {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[mf.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[mf.GetName()] += metric.GetGauge().GetValue()
			}
		}
	}
	require.Equal(t, float64(2), values["sibank_transfers_committed_total"])
	require.Equal(t, float64(42), values["sibank_transferred_amount_total"])
	require.Equal(t, float64(1), values["sibank_frame_decode_failures_total"])
	require.Equal(t, float64(1), values["sibank_active_sessions"])
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := instrument.New(reg)
	require.NoError(t, err)
	_, err = instrument.New(reg)
	require.Error(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *instrument.Metrics
	m.Handshake(instrument.OutcomeError)
	m.Command("GET_USER", instrument.OutcomeOK, 0)
	m.Transfer(1)
	m.DecodeFailure()
	m.SessionOpened()
	m.SessionClosed()
}
