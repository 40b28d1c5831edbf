package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/Playtag-Media/boxfleet/internal/apperr"
	"github.com/Playtag-Media/boxfleet/internal/model"
)

const commandColumns = `
	id, device_uuid, command_type, parameters, status, result,
	error_message, retry_count, issued_by, created_at, sent_at, executed_at`

func (s *pgStore) CreateCommand(uuid, commandType string, params json.RawMessage, issuer string) (model.RemoteCommand, error) {
	var cmd model.RemoteCommand
	q := `
	INSERT INTO remote_commands (device_uuid, command_type, parameters, status, retry_count, issued_by, created_at)
	VALUES ($1, $2, $3, 'PENDING', 0, $4, now())
	RETURNING ` + commandColumns + `;`
	if err := s.db.Get(&cmd, q, uuid, commandType, []byte(params), issuer); err != nil {
		log.Error().Err(err).Str("uuid", uuid).Str("command_type", commandType).Msg("failed to create command")
		return model.RemoteCommand{}, err
	}
	return cmd, nil
}

// CreateCommands fans one validated command out to several devices inside
// a single transaction, so a bulk create is all-or-nothing.
func (s *pgStore) CreateCommands(uuids []string, commandType string, params json.RawMessage, issuer string) ([]model.RemoteCommand, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	q := `
	INSERT INTO remote_commands (device_uuid, command_type, parameters, status, retry_count, issued_by, created_at)
	VALUES ($1, $2, $3, 'PENDING', 0, $4, now())
	RETURNING ` + commandColumns + `;`

	commands := make([]model.RemoteCommand, 0, len(uuids))
	for _, uuid := range uuids {
		var cmd model.RemoteCommand
		if err := tx.Get(&cmd, q, uuid, commandType, []byte(params), issuer); err != nil {
			log.Error().Err(err).Str("uuid", uuid).Str("command_type", commandType).Msg("bulk command insert failed")
			return nil, err
		}
		commands = append(commands, cmd)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return commands, nil
}

func (s *pgStore) GetCommandByID(id int) (model.RemoteCommand, error) {
	var cmd model.RemoteCommand
	err := s.db.Get(&cmd, `
		SELECT `+commandColumns+`
		FROM remote_commands
		WHERE id = $1
		`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RemoteCommand{}, apperr.NotFound("command", strconv.Itoa(id))
	}
	if err != nil {
		log.Error().Err(err).Int("command_id", id).Msg("failed to get command")
	}
	return cmd, err
}

// ListPendingCommands is the device poll read: PENDING rows only, oldest
// first, so commands are delivered in the order operators issued them.
func (s *pgStore) ListPendingCommands(uuid string) ([]model.RemoteCommand, error) {
	var commands []model.RemoteCommand
	err := s.db.Select(&commands, `
		SELECT `+commandColumns+`
		FROM remote_commands
		WHERE device_uuid = $1 AND status = 'PENDING'
		ORDER BY created_at ASC, id ASC
		`, uuid)
	if err != nil {
		log.Error().Err(err).Str("uuid", uuid).Msg("failed to list pending commands")
	}
	return commands, err
}

// TransitionCommand applies one status change with an optimistic guard on
// the current status. Returns false when the row was not in `from`
// anymore, which callers surface as a Conflict.
func (s *pgStore) TransitionCommand(id int, from, to string, change CommandChange) (bool, error) {
	retryBump := 0
	if change.BumpRetry {
		retryBump = 1
	}
	res, err := s.db.Exec(`
		UPDATE remote_commands
		SET status = $3,
		result = COALESCE($4, result),
		error_message = COALESCE($5, error_message),
		sent_at = COALESCE($6, sent_at),
		executed_at = COALESCE($7, executed_at),
		retry_count = retry_count + $8
		WHERE id = $1 AND status = $2
		`, id, from, to, change.Result, change.ErrorMessage, change.SentAt, change.ExecutedAt, retryBump)
	if err != nil {
		log.Error().Err(err).Int("command_id", id).Str("to", to).Msg("failed to transition command")
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (s *pgStore) CommandStats(deviceUUID *string) ([]model.CommandStatusCount, error) {
	var counts []model.CommandStatusCount
	var err error
	if deviceUUID != nil {
		err = s.db.Select(&counts, `
			SELECT status, COUNT(*) AS count
			FROM remote_commands
			WHERE device_uuid = $1
			GROUP BY status
			`, *deviceUUID)
	} else {
		err = s.db.Select(&counts, `
			SELECT status, COUNT(*) AS count
			FROM remote_commands
			GROUP BY status
			`)
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to aggregate command stats")
	}
	return counts, err
}

