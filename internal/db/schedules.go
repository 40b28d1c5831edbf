package db

import (
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Playtag-Media/boxfleet/internal/apperr"
	"github.com/Playtag-Media/boxfleet/internal/model"
)

const scheduleColumns = `
	id, name, action_type, device_uuid, company_id, value, cron_expr,
	enabled, last_executed, next_execution, created_at, updated_at`

func (s *pgStore) CreateSchedule(sc model.Schedule) (model.Schedule, error) {
	var out model.Schedule
	q := `
	INSERT INTO schedules (name, action_type, device_uuid, company_id, value, cron_expr, enabled, next_execution, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
	RETURNING ` + scheduleColumns + `;`
	err := s.db.Get(&out, q, sc.Name, sc.ActionType, sc.DeviceUUID, sc.CompanyID,
		sc.Value, sc.CronExpr, sc.Enabled, sc.NextExecution)
	if err != nil {
		log.Error().Err(err).Str("name", sc.Name).Msg("failed to create schedule")
		return model.Schedule{}, err
	}
	return out, nil
}

func (s *pgStore) GetSchedule(id int) (model.Schedule, error) {
	var sc model.Schedule
	err := s.db.Get(&sc, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Schedule{}, apperr.NotFound("schedule", strconv.Itoa(id))
	}
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("failed to get schedule")
	}
	return sc, err
}

func (s *pgStore) ListSchedules() ([]model.Schedule, error) {
	var out []model.Schedule
	err := s.db.Select(&out, `SELECT `+scheduleColumns+` FROM schedules ORDER BY id`)
	if err != nil {
		log.Error().Err(err).Msg("failed to list schedules")
	}
	return out, err
}

// ListDueSchedules returns enabled schedules whose next_execution has
// arrived, ordered so a tick processes them deterministically.
func (s *pgStore) ListDueSchedules(now time.Time) ([]model.Schedule, error) {
	var out []model.Schedule
	err := s.db.Select(&out, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE enabled = TRUE AND next_execution <= $1
		ORDER BY next_execution ASC, id ASC
		`, now)
	if err != nil {
		log.Error().Err(err).Msg("failed to list due schedules")
	}
	return out, err
}

func (s *pgStore) UpdateSchedule(id int, patch SchedulePatch) error {
	res, err := s.db.Exec(`
		UPDATE schedules
		SET name = COALESCE($2, name),
		action_type = COALESCE($3, action_type),
		device_uuid = COALESCE($4, device_uuid),
		company_id = COALESCE($5, company_id),
		value = COALESCE($6, value),
		cron_expr = COALESCE($7, cron_expr),
		next_execution = COALESCE($8, next_execution),
		updated_at = now()
		WHERE id = $1
		`, id, patch.Name, patch.ActionType, patch.DeviceUUID, patch.CompanyID,
		patch.Value, patch.CronExpr, patch.NextExecution)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("failed to update schedule")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("schedule", strconv.Itoa(id))
	}
	return nil
}

// SetScheduleEnabled toggles a schedule; re-enabling also resets
// next_execution so a long-disabled rule does not fire immediately on a
// stale timestamp.
func (s *pgStore) SetScheduleEnabled(id int, enabled bool, next time.Time) error {
	res, err := s.db.Exec(`
		UPDATE schedules
		SET enabled = $2,
		next_execution = $3,
		updated_at = now()
		WHERE id = $1
		`, id, enabled, next)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("failed to toggle schedule")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("schedule", strconv.Itoa(id))
	}
	return nil
}

func (s *pgStore) MarkScheduleRun(id int, last, next time.Time) error {
	_, err := s.db.Exec(`
		UPDATE schedules
		SET last_executed = $2,
		next_execution = $3,
		updated_at = now()
		WHERE id = $1
		`, id, last, next)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("failed to mark schedule run")
	}
	return err
}

func (s *pgStore) DeleteSchedule(id int) error {
	res, err := s.db.Exec(`DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("failed to delete schedule")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("schedule", strconv.Itoa(id))
	}
	return nil
}
