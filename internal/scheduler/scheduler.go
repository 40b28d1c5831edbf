// Package scheduler evaluates the recurring bulk-configuration rules on a
// fixed tick. Scheduled actions are applied directly to the device
// registry rather than through the remote-command pipeline; this is a
// second write path to the same rows, preserved from the original design.
// Audit coverage comes from the events the registry write itself appends.
package scheduler

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Playtag-Media/boxfleet/internal/alert"
	"github.com/Playtag-Media/boxfleet/internal/apperr"
	"github.com/Playtag-Media/boxfleet/internal/clock"
	"github.com/Playtag-Media/boxfleet/internal/cron"
	"github.com/Playtag-Media/boxfleet/internal/db"
	"github.com/Playtag-Media/boxfleet/internal/model"
	"github.com/Playtag-Media/boxfleet/internal/registry"
)

// TickInterval is the evaluation cadence; command latency of a schedule
// is bounded below by this.
const TickInterval = 1 * time.Minute

// Scheduler runs due schedules against the registry.
type Scheduler struct {
	store   db.Store
	reg     *registry.Service
	alerter alert.Notifier
	clk     clock.Clock
}

func New(store db.Store, reg *registry.Service, alerter alert.Notifier, clk clock.Clock) *Scheduler {
	return &Scheduler{store: store, reg: reg, alerter: alerter, clk: clk}
}

// Run ticks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticks := s.clk.Tick(TickInterval)
	log.Info().Dur("interval", TickInterval).Msg("scheduler started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scheduler stopped")
			return
		case now := <-ticks:
			s.TickOnce(now)
		}
	}
}

// TickOnce loads every due schedule and runs it. A failing schedule is
// logged and does not block the others.
func (s *Scheduler) TickOnce(now time.Time) {
	due, err := s.store.ListDueSchedules(now)
	if err != nil {
		log.Error().Err(err).Msg("tick: failed to load due schedules")
		return
	}

	for _, sc := range due {
		s.runSchedule(sc, now)
	}
}

// runSchedule resolves the target set (device > company > all), applies
// the action to each device independently, then stamps last_executed and
// the next strictly-future execution time.
func (s *Scheduler) runSchedule(sc model.Schedule, now time.Time) {
	targets, err := s.resolveTargets(sc)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", sc.ID).Msg("failed to resolve schedule targets")
	} else {
		applied := 0
		for _, d := range targets {
			if err := s.applyAction(d, sc); err != nil {
				// transient per-device failure: log and move on so one bad
				// device cannot blind the whole rollout
				log.Warn().Err(err).Int("schedule_id", sc.ID).Str("uuid", d.UUID).Msg("schedule action failed for device")
				continue
			}
			applied++
		}
		log.Info().Int("schedule_id", sc.ID).Str("action", sc.ActionType).
			Int("applied", applied).Int("targets", len(targets)).Msg("schedule run complete")
	}

	expr, err := cron.Parse(sc.CronExpr)
	if err != nil {
		// enabled schedules are validated at creation; reaching this means
		// the row was edited out-of-band
		log.Error().Err(err).Int("schedule_id", sc.ID).Msg("stored cron expression is invalid")
		return
	}
	if err := s.store.MarkScheduleRun(sc.ID, now, expr.Next(now)); err != nil {
		log.Error().Err(err).Int("schedule_id", sc.ID).Msg("failed to stamp schedule run")
	}
}

func (s *Scheduler) resolveTargets(sc model.Schedule) ([]model.Device, error) {
	switch {
	case sc.DeviceUUID != nil:
		d, err := s.store.GetDeviceByUUID(*sc.DeviceUUID)
		if err != nil {
			return nil, err
		}
		return []model.Device{d}, nil
	case sc.CompanyID != nil:
		return s.store.ListDevicesByCompany(*sc.CompanyID)
	default:
		all, err := s.store.ListDevices()
		if err != nil {
			return nil, err
		}
		devices := make([]model.Device, 0, len(all))
		for _, d := range all {
			devices = append(devices, d.Device)
		}
		return devices, nil
	}
}

func (s *Scheduler) applyAction(d model.Device, sc model.Schedule) error {
	ctx := context.Background()
	switch sc.ActionType {
	case model.ActionVolume:
		vol, err := strconv.Atoi(sc.Value)
		if err != nil {
			return apperr.Invalid("value", "volume %q is not a number", sc.Value)
		}
		_, err = s.reg.Update(ctx, d.UUID, db.DevicePatch{Volume: &vol})
		return err
	case model.ActionStreamURL:
		url := sc.Value
		_, err := s.reg.Update(ctx, d.UUID, db.DevicePatch{StreamingURL: &url})
		return err
	case model.ActionStatus:
		status := sc.Value
		_, err := s.reg.Update(ctx, d.UUID, db.DevicePatch{Status: &status})
		return err
	case model.ActionRestart:
		// the registry has no restartable state; publish a best-effort
		// nudge and leave an audit entry
		s.alerter.RestartRequested(d.UUID)
		return s.store.AppendEvent(d.UUID, model.EventConfigUpdated, "restart requested by schedule "+strconv.Itoa(sc.ID), nil)
	default:
		return apperr.Invalid("action_type", "unknown action %q", sc.ActionType)
	}
}

// ValidateAction checks an action/value pair at schedule creation time so
// a bad rule is rejected before it is ever due.
func ValidateAction(actionType, value string) error {
	switch actionType {
	case model.ActionVolume:
		vol, err := strconv.Atoi(value)
		if err != nil {
			return apperr.Invalid("value", "volume %q is not a number", value)
		}
		if vol < 0 || vol > 100 {
			return apperr.Invalid("value", "volume must be between 0 and 100, got %d", vol)
		}
	case model.ActionStreamURL:
		if value == "" {
			return apperr.Invalid("value", "stream URL must not be empty")
		}
	case model.ActionStatus:
		if value != model.StatusActive && value != model.StatusInactive {
			return apperr.Invalid("value", "status must be %q or %q", model.StatusActive, model.StatusInactive)
		}
	case model.ActionRestart:
		// no value
	default:
		return apperr.Invalid("action_type", "unknown action %q", actionType)
	}
	return nil
}
