// Package monitor runs the low-frequency connectivity sweep: it scans
// every device that has ever reported a heartbeat and logs a DISCONNECTED
// event when the gap crosses the threshold, unless the outage is already
// recorded. The dedup check re-reads event ordering on every sweep, so the
// sweep is idempotent and safe to run concurrently with heartbeat writes.
package monitor

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Playtag-Media/boxfleet/internal/alert"
	"github.com/Playtag-Media/boxfleet/internal/clock"
	"github.com/Playtag-Media/boxfleet/internal/db"
	"github.com/Playtag-Media/boxfleet/internal/model"
	"github.com/Playtag-Media/boxfleet/internal/registry"
)

// SweepInterval is how often the sweep runs; it matches the disconnect
// threshold so an outage is logged at most one interval late.
const SweepInterval = 5 * time.Minute

// Monitor owns the sweep loop and the event-log retention purge.
type Monitor struct {
	store         db.Store
	alerter       alert.Notifier
	clk           clock.Clock
	retentionDays int
}

func New(store db.Store, alerter alert.Notifier, clk clock.Clock, retentionDays int) *Monitor {
	return &Monitor{store: store, alerter: alerter, clk: clk, retentionDays: retentionDays}
}

// Run sweeps on every tick until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticks := m.clk.Tick(SweepInterval)
	log.Info().Dur("interval", SweepInterval).Msg("connectivity monitor started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connectivity monitor stopped")
			return
		case now := <-ticks:
			m.Sweep(now)
		}
	}
}

// Sweep performs one pass: log new outages, then purge expired events.
func (m *Monitor) Sweep(now time.Time) {
	devices, err := m.store.ListDevicesWithHeartbeat()
	if err != nil {
		log.Error().Err(err).Msg("sweep: failed to load devices")
		return
	}

	for _, d := range devices {
		gap := now.Sub(*d.LastHeartbeat)
		if gap <= registry.DisconnectThreshold {
			continue
		}
		if err := m.recordOutage(d, gap); err != nil {
			log.Error().Err(err).Str("uuid", d.UUID).Msg("sweep: failed to record outage")
		}
	}

	m.purgeExpiredEvents(now)
}

// recordOutage appends DISCONNECTED unless the most recent DISCONNECTED
// already postdates the most recent RECONNECTED for the device. This keeps
// the invariant that two DISCONNECTED entries always have a RECONNECTED
// between them.
func (m *Monitor) recordOutage(d model.Device, gap time.Duration) error {
	lastDisc, err := m.store.LatestEventTime(d.UUID, model.EventDisconnected)
	if err != nil {
		return err
	}
	if lastDisc != nil {
		lastRecon, err := m.store.LatestEventTime(d.UUID, model.EventReconnected)
		if err != nil {
			return err
		}
		if lastRecon == nil || lastRecon.Before(*lastDisc) {
			// outage already recorded
			return nil
		}
	}

	meta := []byte(`{"gap_seconds": ` + strconv.Itoa(int(gap.Seconds())) + `}`)
	if err := m.store.AppendEvent(d.UUID, model.EventDisconnected, "heartbeat gap exceeded threshold", meta); err != nil {
		return err
	}
	m.alerter.DeviceOffline(d.UUID, d.Name, gap)
	log.Warn().Str("uuid", d.UUID).Dur("gap", gap).Msg("device disconnected")
	return nil
}

func (m *Monitor) purgeExpiredEvents(now time.Time) {
	if m.retentionDays <= 0 {
		return
	}
	cutoff := now.AddDate(0, 0, -m.retentionDays)
	n, err := m.store.DeleteEventsBefore(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("sweep: event retention purge failed")
		return
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("purged expired device events")
	}
}

