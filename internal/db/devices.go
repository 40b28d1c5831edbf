package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Playtag-Media/boxfleet/internal/apperr"
	"github.com/Playtag-Media/boxfleet/internal/model"
)

const deviceColumns = `
	id, uuid, name, ip_address, mac_address, streaming_url,
	volume, status, player_mode, company_id, last_heartbeat,
	created_at, updated_at`

func (s *pgStore) GetDeviceByUUID(uuid string) (model.Device, error) {
	var d model.Device
	err := s.db.Get(&d, `
		SELECT `+deviceColumns+`
		FROM devices
		WHERE uuid = $1
		`, uuid)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Device{}, apperr.NotFound("device", uuid)
	}
	if err != nil {
		log.Error().Err(err).Str("uuid", uuid).Msg("failed to get device by uuid")
	}
	return d, err
}

func (s *pgStore) CreateDevice(uuid string, name, ip, mac *string) (model.Device, error) {
	var d model.Device
	q := `
	INSERT INTO devices (uuid, name, ip_address, mac_address, volume, status, player_mode, created_at, updated_at)
	VALUES ($1, $2, $3, $4, 50, 'inactive', 'webView', now(), now())
	RETURNING ` + deviceColumns + `;`
	if err := s.db.Get(&d, q, uuid, name, ip, mac); err != nil {
		log.Error().Err(err).Str("uuid", uuid).Msg("failed to create device")
		return model.Device{}, err
	}
	return d, nil
}

// MergeDeviceInfo fills in identity fields a re-registration supplies
// without clobbering values the operator already set.
func (s *pgStore) MergeDeviceInfo(uuid string, name, ip, mac *string) error {
	_, err := s.db.Exec(`
		UPDATE devices
		SET name = COALESCE($2, name),
		ip_address = COALESCE($3, ip_address),
		mac_address = COALESCE($4, mac_address),
		updated_at = now()
		WHERE uuid = $1
		`, uuid, name, ip, mac)
	if err != nil {
		log.Error().Err(err).Str("uuid", uuid).Msg("failed to merge device info")
	}
	return err
}

func (s *pgStore) UpdateDeviceConfig(uuid string, patch DevicePatch) error {
	res, err := s.db.Exec(`
		UPDATE devices
		SET name = COALESCE($2, name),
		ip_address = COALESCE($3, ip_address),
		mac_address = COALESCE($4, mac_address),
		streaming_url = COALESCE($5, streaming_url),
		volume = COALESCE($6, volume),
		status = COALESCE($7, status),
		player_mode = COALESCE($8, player_mode),
		company_id = COALESCE($9, company_id),
		updated_at = now()
		WHERE uuid = $1
		`, uuid, patch.Name, patch.IPAddress, patch.MACAddress, patch.StreamingURL,
		patch.Volume, patch.Status, patch.PlayerMode, patch.CompanyID)
	if err != nil {
		log.Error().Err(err).Str("uuid", uuid).Msg("failed to update device config")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("device", uuid)
	}
	return nil
}

// TouchHeartbeat records a liveness ping. GREATEST keeps last_heartbeat
// monotonically non-decreasing when delayed pings race each other.
func (s *pgStore) TouchHeartbeat(uuid string, ts time.Time) error {
	res, err := s.db.Exec(`
		UPDATE devices
		SET last_heartbeat = GREATEST(last_heartbeat, $2),
		updated_at = now()
		WHERE uuid = $1
		`, uuid, ts)
	if err != nil {
		log.Error().Err(err).Str("uuid", uuid).Msg("failed to touch heartbeat")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("device", uuid)
	}
	return nil
}

func (s *pgStore) ListDevices() ([]model.DeviceWithCompany, error) {
	var devices []model.DeviceWithCompany
	err := s.db.Select(&devices, `
		SELECT d.id, d.uuid, d.name, d.ip_address, d.mac_address, d.streaming_url,
		       d.volume, d.status, d.player_mode, d.company_id, d.last_heartbeat,
		       d.created_at, d.updated_at, c.name AS company_name
		FROM devices d
		LEFT JOIN companies c ON c.id = d.company_id
		ORDER BY d.id
		`)
	if err != nil {
		log.Error().Err(err).Msg("failed to list devices")
	}
	return devices, err
}

func (s *pgStore) ListDevicesByCompany(companyID int) ([]model.Device, error) {
	var devices []model.Device
	err := s.db.Select(&devices, `
		SELECT `+deviceColumns+`
		FROM devices
		WHERE company_id = $1
		ORDER BY id
		`, companyID)
	if err != nil {
		log.Error().Err(err).Int("company_id", companyID).Msg("failed to list devices by company")
	}
	return devices, err
}

// ListDevicesWithHeartbeat returns every device that has reported at least
// once; the connectivity sweep only looks at these.
func (s *pgStore) ListDevicesWithHeartbeat() ([]model.Device, error) {
	var devices []model.Device
	err := s.db.Select(&devices, `
		SELECT `+deviceColumns+`
		FROM devices
		WHERE last_heartbeat IS NOT NULL
		ORDER BY id
		`)
	if err != nil {
		log.Error().Err(err).Msg("failed to list devices with heartbeat")
	}
	return devices, err
}
