package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RoomOpened()
	c.RoomOpened()
	c.RoomClosed()
	c.SessionConnected()
	c.Broadcast("VOTE")
	c.Broadcast("VOTE")
	c.Request("EnterRoom", "")
	c.Request("EnterRoom", "PasswordUnmatched")
	c.ResultPushed()

	families := gather(t, reg)

	assert.Equal(t, 1.0, families["voteroom_rooms_open"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 1.0, families["voteroom_sessions_connected"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 1.0, families["voteroom_result_pushes_total"].GetMetric()[0].GetCounter().GetValue())

	broadcasts := families["voteroom_broadcasts_total"].GetMetric()
	require.Len(t, broadcasts, 1)
	assert.Equal(t, "VOTE", labelValue(broadcasts[0], "kind"))
	assert.Equal(t, 2.0, broadcasts[0].GetCounter().GetValue())

	codes := map[string]float64{}
	for _, m := range families["voteroom_requests_total"].GetMetric() {
		assert.Equal(t, "EnterRoom", labelValue(m, "type"))
		codes[labelValue(m, "code")] = m.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"OK": 1, "PasswordUnmatched": 1}, codes)
}

func TestCollector_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	assert.Panics(t, func() { NewCollector(reg) })
}
