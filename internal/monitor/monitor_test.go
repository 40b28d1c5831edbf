package monitor

import (
	"testing"
	"time"

	guuid "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Playtag-Media/boxfleet/internal/clock"
	"github.com/Playtag-Media/boxfleet/internal/db"
	"github.com/Playtag-Media/boxfleet/internal/model"
)

type fakeNotifier struct {
	offline []string
}

func (f *fakeNotifier) DeviceOnline(string, *string) {}
func (f *fakeNotifier) DeviceOffline(uuid string, _ *string, _ time.Duration) {
	f.offline = append(f.offline, uuid)
}
func (f *fakeNotifier) RestartRequested(string) {}

func newTestMonitor(t *testing.T, retentionDays int) (*Monitor, *db.MemStore, *fakeNotifier, *clock.Fake) {
	t.Helper()
	store := db.NewMemStore()
	notifier := &fakeNotifier{}
	clk := clock.NewFake(time.Now())
	return New(store, notifier, clk, retentionDays), store, notifier, clk
}

func seedDevice(t *testing.T, store *db.MemStore, lastHeartbeat time.Time) string {
	t.Helper()
	uuid := guuid.NewString()
	_, err := store.CreateDevice(uuid, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.TouchHeartbeat(uuid, lastHeartbeat))
	return uuid
}

func countEvents(t *testing.T, store db.Store, uuid, eventType string) int {
	t.Helper()
	events, err := store.ListDeviceEvents(uuid, 100, 0)
	require.NoError(t, err)
	n := 0
	for _, e := range events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func TestSweepLogsOutage(t *testing.T) {
	m, store, notifier, clk := newTestMonitor(t, 0)
	uuid := seedDevice(t, store, clk.Now().Add(-10*time.Minute))

	m.Sweep(clk.Now())

	assert.Equal(t, 1, countEvents(t, store, uuid, model.EventDisconnected))
	assert.Equal(t, []string{uuid}, notifier.offline)
}

func TestSweepDoesNotRepeatOutage(t *testing.T) {
	m, store, notifier, clk := newTestMonitor(t, 0)
	uuid := seedDevice(t, store, clk.Now().Add(-10*time.Minute))

	m.Sweep(clk.Now())
	m.Sweep(clk.Now().Add(SweepInterval))
	m.Sweep(clk.Now().Add(2 * SweepInterval))

	assert.Equal(t, 1, countEvents(t, store, uuid, model.EventDisconnected),
		"an ongoing outage must be logged exactly once")
	assert.Len(t, notifier.offline, 1)
}

func TestSweepLogsSecondOutageAfterReconnect(t *testing.T) {
	m, store, _, clk := newTestMonitor(t, 0)
	uuid := seedDevice(t, store, clk.Now().Add(-10*time.Minute))

	m.Sweep(clk.Now())

	// device comes back, then drops again
	require.NoError(t, store.AppendEvent(uuid, model.EventReconnected, "device reconnected", nil))
	require.NoError(t, store.TouchHeartbeat(uuid, clk.Now()))
	m.Sweep(clk.Now().Add(10 * time.Minute))

	assert.Equal(t, 2, countEvents(t, store, uuid, model.EventDisconnected))
	assert.Equal(t, 1, countEvents(t, store, uuid, model.EventReconnected))
}

func TestSweepIgnoresRecentHeartbeats(t *testing.T) {
	m, store, notifier, clk := newTestMonitor(t, 0)
	uuid := seedDevice(t, store, clk.Now().Add(-3*time.Minute))

	m.Sweep(clk.Now())

	assert.Equal(t, 0, countEvents(t, store, uuid, model.EventDisconnected),
		"a gap inside the disconnect threshold is not an outage")
	assert.Empty(t, notifier.offline)
}

func TestSweepSkipsDevicesWithoutHeartbeat(t *testing.T) {
	m, store, notifier, clk := newTestMonitor(t, 0)
	uuid := guuid.NewString()
	_, err := store.CreateDevice(uuid, nil, nil, nil)
	require.NoError(t, err)

	m.Sweep(clk.Now())

	assert.Equal(t, 0, countEvents(t, store, uuid, model.EventDisconnected))
	assert.Empty(t, notifier.offline)
}

func TestSweepPurgesExpiredEvents(t *testing.T) {
	m, store, _, clk := newTestMonitor(t, 90)
	uuid := seedDevice(t, store, clk.Now())
	require.NoError(t, store.AppendEvent(uuid, model.EventConnected, "first heartbeat received", nil))

	// sweeping far enough in the future puts today's events past retention
	m.Sweep(clk.Now().AddDate(0, 0, 91))

	events, err := store.ListDeviceEvents(uuid, 100, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSweepKeepsEventsInsideRetention(t *testing.T) {
	m, store, _, clk := newTestMonitor(t, 90)
	uuid := seedDevice(t, store, clk.Now())
	require.NoError(t, store.AppendEvent(uuid, model.EventConnected, "first heartbeat received", nil))

	m.Sweep(clk.Now())

	assert.Equal(t, 1, countEvents(t, store, uuid, model.EventConnected))
}

func TestRetentionDisabled(t *testing.T) {
	m, store, _, clk := newTestMonitor(t, 0)
	uuid := seedDevice(t, store, clk.Now())
	require.NoError(t, store.AppendEvent(uuid, model.EventConnected, "first heartbeat received", nil))

	m.Sweep(clk.Now().AddDate(0, 0, 365))

	assert.Equal(t, 1, countEvents(t, store, uuid, model.EventConnected),
		"retention 0 disables the purge")
}
