package scheduler

import (
	"testing"
	"time"

	guuid "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Playtag-Media/boxfleet/internal/apperr"
	"github.com/Playtag-Media/boxfleet/internal/clock"
	"github.com/Playtag-Media/boxfleet/internal/db"
	"github.com/Playtag-Media/boxfleet/internal/model"
	"github.com/Playtag-Media/boxfleet/internal/registry"
)

type fakeNotifier struct {
	restarts []string
}

func (f *fakeNotifier) DeviceOnline(string, *string)                 {}
func (f *fakeNotifier) DeviceOffline(string, *string, time.Duration) {}
func (f *fakeNotifier) RestartRequested(uuid string) {
	f.restarts = append(f.restarts, uuid)
}

func newTestScheduler(t *testing.T) (*Scheduler, *db.MemStore, *fakeNotifier, *clock.Fake) {
	t.Helper()
	store := db.NewMemStore()
	notifier := &fakeNotifier{}
	clk := clock.NewFake(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	reg := registry.New(store, notifier, clk)
	return New(store, reg, notifier, clk), store, notifier, clk
}

func seedDevice(t *testing.T, store *db.MemStore, companyID *int) string {
	t.Helper()
	uuid := guuid.NewString()
	_, err := store.CreateDevice(uuid, nil, nil, nil)
	require.NoError(t, err)
	if companyID != nil {
		require.NoError(t, store.UpdateDeviceConfig(uuid, db.DevicePatch{CompanyID: companyID}))
	}
	return uuid
}

func seedSchedule(t *testing.T, store *db.MemStore, s model.Schedule) model.Schedule {
	t.Helper()
	created, err := store.CreateSchedule(s)
	require.NoError(t, err)
	return created
}

func TestDueScheduleAppliesAndReschedules(t *testing.T) {
	sched, store, _, clk := newTestScheduler(t)
	uuid := seedDevice(t, store, nil)
	sc := seedSchedule(t, store, model.Schedule{
		Name:          "morning volume",
		ActionType:    model.ActionVolume,
		DeviceUUID:    &uuid,
		Value:         "25",
		CronExpr:      "0 8 * * *",
		Enabled:       true,
		NextExecution: clk.Now(),
	})

	sched.TickOnce(clk.Now())

	d, err := store.GetDeviceByUUID(uuid)
	require.NoError(t, err)
	assert.Equal(t, 25, d.Volume)

	got, err := store.GetSchedule(sc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastExecuted)
	assert.True(t, got.LastExecuted.Equal(clk.Now()))
	assert.Equal(t, clk.Now().AddDate(0, 0, 1), got.NextExecution,
		"next execution rolls to the same slot tomorrow")
}

func TestRunAtSlotIsNotRepeatedSameTick(t *testing.T) {
	sched, store, _, clk := newTestScheduler(t)
	uuid := seedDevice(t, store, nil)
	sc := seedSchedule(t, store, model.Schedule{
		ActionType:    model.ActionVolume,
		DeviceUUID:    &uuid,
		Value:         "25",
		CronExpr:      "0 8 * * *",
		Enabled:       true,
		NextExecution: clk.Now(),
	})

	sched.TickOnce(clk.Now())
	first, err := store.GetSchedule(sc.ID)
	require.NoError(t, err)

	// the very next tick finds nothing due
	sched.TickOnce(clk.Now().Add(TickInterval))
	second, err := store.GetSchedule(sc.ID)
	require.NoError(t, err)
	assert.True(t, first.LastExecuted.Equal(*second.LastExecuted))
}

func TestNotDueScheduleSkipped(t *testing.T) {
	sched, store, _, clk := newTestScheduler(t)
	uuid := seedDevice(t, store, nil)
	seedSchedule(t, store, model.Schedule{
		ActionType:    model.ActionVolume,
		DeviceUUID:    &uuid,
		Value:         "25",
		CronExpr:      "0 9 * * *",
		Enabled:       true,
		NextExecution: clk.Now().Add(time.Hour),
	})

	sched.TickOnce(clk.Now())

	d, err := store.GetDeviceByUUID(uuid)
	require.NoError(t, err)
	assert.Equal(t, 50, d.Volume)
}

func TestDisabledScheduleSkipped(t *testing.T) {
	sched, store, _, clk := newTestScheduler(t)
	uuid := seedDevice(t, store, nil)
	seedSchedule(t, store, model.Schedule{
		ActionType:    model.ActionVolume,
		DeviceUUID:    &uuid,
		Value:         "25",
		CronExpr:      "0 8 * * *",
		Enabled:       false,
		NextExecution: clk.Now(),
	})

	sched.TickOnce(clk.Now())

	d, err := store.GetDeviceByUUID(uuid)
	require.NoError(t, err)
	assert.Equal(t, 50, d.Volume)
}

func TestCompanyTargeting(t *testing.T) {
	sched, store, _, clk := newTestScheduler(t)
	co := store.AddCompany("Acme Retail")
	inCompany := seedDevice(t, store, &co.ID)
	outside := seedDevice(t, store, nil)
	seedSchedule(t, store, model.Schedule{
		ActionType:    model.ActionStatus,
		CompanyID:     &co.ID,
		Value:         model.StatusActive,
		CronExpr:      "0 8 * * *",
		Enabled:       true,
		NextExecution: clk.Now(),
	})

	sched.TickOnce(clk.Now())

	d, _ := store.GetDeviceByUUID(inCompany)
	assert.Equal(t, model.StatusActive, d.Status)
	d, _ = store.GetDeviceByUUID(outside)
	assert.Equal(t, model.StatusInactive, d.Status)
}

func TestFleetWideTargeting(t *testing.T) {
	sched, store, _, clk := newTestScheduler(t)
	uuids := []string{seedDevice(t, store, nil), seedDevice(t, store, nil), seedDevice(t, store, nil)}
	url := "https://cdn.example.com/override.m3u8"
	seedSchedule(t, store, model.Schedule{
		ActionType:    model.ActionStreamURL,
		Value:         url,
		CronExpr:      "0 8 * * *",
		Enabled:       true,
		NextExecution: clk.Now(),
	})

	sched.TickOnce(clk.Now())

	for _, uuid := range uuids {
		d, err := store.GetDeviceByUUID(uuid)
		require.NoError(t, err)
		require.NotNil(t, d.StreamingURL)
		assert.Equal(t, url, *d.StreamingURL)
	}
}

// brokenStore fails config writes for one device so a rollout can be
// tested against partial failure.
type brokenStore struct {
	*db.MemStore
	brokenUUID string
}

func (b *brokenStore) UpdateDeviceConfig(uuid string, patch db.DevicePatch) error {
	if uuid == b.brokenUUID {
		return apperr.Conflict("simulated write failure")
	}
	return b.MemStore.UpdateDeviceConfig(uuid, patch)
}

func TestPerDeviceFailureDoesNotAbortRollout(t *testing.T) {
	mem := db.NewMemStore()
	notifier := &fakeNotifier{}
	clk := clock.NewFake(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))

	healthy := seedDevice(t, mem, nil)
	broken := seedDevice(t, mem, nil)
	store := &brokenStore{MemStore: mem, brokenUUID: broken}
	reg := registry.New(store, notifier, clk)
	sched := New(store, reg, notifier, clk)

	sc := seedSchedule(t, mem, model.Schedule{
		ActionType:    model.ActionVolume,
		Value:         "25",
		CronExpr:      "0 8 * * *",
		Enabled:       true,
		NextExecution: clk.Now(),
	})

	sched.TickOnce(clk.Now())

	d, err := mem.GetDeviceByUUID(healthy)
	require.NoError(t, err)
	assert.Equal(t, 25, d.Volume, "the healthy device must still be updated")

	got, err := mem.GetSchedule(sc.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastExecuted, "a partial failure still counts as a run")
}

func TestRestartAction(t *testing.T) {
	sched, store, notifier, clk := newTestScheduler(t)
	uuid := seedDevice(t, store, nil)
	seedSchedule(t, store, model.Schedule{
		ActionType:    model.ActionRestart,
		DeviceUUID:    &uuid,
		CronExpr:      "0 8 * * *",
		Enabled:       true,
		NextExecution: clk.Now(),
	})

	sched.TickOnce(clk.Now())

	assert.Equal(t, []string{uuid}, notifier.restarts)
	events, err := store.ListDeviceEvents(uuid, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventConfigUpdated, events[0].Type)
}

func TestMissingTargetStillReschedules(t *testing.T) {
	sched, store, _, clk := newTestScheduler(t)
	gone := guuid.NewString()
	sc := seedSchedule(t, store, model.Schedule{
		ActionType:    model.ActionVolume,
		DeviceUUID:    &gone,
		Value:         "25",
		CronExpr:      "0 8 * * *",
		Enabled:       true,
		NextExecution: clk.Now(),
	})

	sched.TickOnce(clk.Now())

	got, err := store.GetSchedule(sc.ID)
	require.NoError(t, err)
	assert.True(t, got.NextExecution.After(clk.Now()),
		"a schedule whose target vanished must not fire on every tick")
}

func TestValidateAction(t *testing.T) {
	assert.NoError(t, ValidateAction(model.ActionVolume, "30"))
	assert.NoError(t, ValidateAction(model.ActionStreamURL, "https://cdn.example.com/a.m3u8"))
	assert.NoError(t, ValidateAction(model.ActionStatus, model.StatusActive))
	assert.NoError(t, ValidateAction(model.ActionRestart, ""))

	assert.True(t, apperr.IsValidation(ValidateAction(model.ActionVolume, "loud")))
	assert.True(t, apperr.IsValidation(ValidateAction(model.ActionVolume, "150")))
	assert.True(t, apperr.IsValidation(ValidateAction(model.ActionStreamURL, "")))
	assert.True(t, apperr.IsValidation(ValidateAction(model.ActionStatus, "standby")))
	assert.True(t, apperr.IsValidation(ValidateAction("reboot_all", "")))
}
