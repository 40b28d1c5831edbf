package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Playtag-Media/boxfleet/internal/model"
)

func (s *pgStore) AppendEvent(uuid, eventType, description string, metadata json.RawMessage) error {
	if len(metadata) == 0 {
		metadata = json.RawMessage("{}")
	}
	_, err := s.db.Exec(`
		INSERT INTO device_events (device_uuid, event_type, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, now())
		`, uuid, eventType, description, []byte(metadata))
	if err != nil {
		log.Error().Err(err).Str("uuid", uuid).Str("event_type", eventType).Msg("failed to append device event")
	}
	return err
}

func (s *pgStore) ListDeviceEvents(uuid string, limit, offset int) ([]model.DeviceEvent, error) {
	var events []model.DeviceEvent
	err := s.db.Select(&events, `
		SELECT id, device_uuid, event_type, description, metadata, created_at
		FROM device_events
		WHERE device_uuid = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
		`, uuid, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("uuid", uuid).Msg("failed to list device events")
	}
	return events, err
}

// LatestEventTime returns when the most recent event of the given type was
// appended for the device, or nil when none exists. The disconnect dedup
// check in the connectivity sweep depends on this being a fresh read.
func (s *pgStore) LatestEventTime(uuid, eventType string) (*time.Time, error) {
	var ts time.Time
	err := s.db.Get(&ts, `
		SELECT created_at
		FROM device_events
		WHERE device_uuid = $1 AND event_type = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
		`, uuid, eventType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Str("uuid", uuid).Str("event_type", eventType).Msg("failed to get latest event time")
		return nil, err
	}
	return &ts, nil
}

func (s *pgStore) DeleteEventsBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM device_events WHERE created_at < $1`, cutoff)
	if err != nil {
		log.Error().Err(err).Time("cutoff", cutoff).Msg("failed to purge device events")
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
