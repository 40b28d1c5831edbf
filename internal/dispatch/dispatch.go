// Package dispatch implements the remote-command pipeline: operators queue
// commands, devices drain their PENDING queue on poll and report outcomes
// back through the forward-only status graph. FAILED commands are never
// re-issued automatically; retry_count is informational and re-submission
// is an explicit operator action.
package dispatch

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Playtag-Media/boxfleet/internal/apperr"
	"github.com/Playtag-Media/boxfleet/internal/clock"
	"github.com/Playtag-Media/boxfleet/internal/command"
	"github.com/Playtag-Media/boxfleet/internal/db"
	"github.com/Playtag-Media/boxfleet/internal/model"
)

// Service owns command creation, the device poll read, and status updates.
type Service struct {
	store db.Store
	clk   clock.Clock
}

func New(store db.Store, clk clock.Clock) *Service {
	return &Service{store: store, clk: clk}
}

// Create validates the parameters against the command type's schema and
// inserts a PENDING record. The device must exist.
func (s *Service) Create(deviceUUID string, commandType command.Type, rawParams json.RawMessage, issuer string) (model.RemoteCommand, error) {
	if _, err := s.store.GetDeviceByUUID(deviceUUID); err != nil {
		return model.RemoteCommand{}, err
	}

	params, err := command.ParseParams(commandType, rawParams)
	if err != nil {
		return model.RemoteCommand{}, err
	}

	return s.store.CreateCommand(deviceUUID, string(commandType), command.EncodeParams(params), issuer)
}

// CreateBulk fans one command out to an explicit device list or to every
// device of a company. Creation is all-or-nothing: every target must
// exist, and at least one device must resolve.
func (s *Service) CreateBulk(deviceUUIDs []string, companyID *int, commandType command.Type, rawParams json.RawMessage, issuer string) ([]model.RemoteCommand, error) {
	params, err := command.ParseParams(commandType, rawParams)
	if err != nil {
		return nil, err
	}

	targets := deviceUUIDs
	if len(targets) == 0 && companyID != nil {
		if _, err := s.store.GetCompanyByID(*companyID); err != nil {
			return nil, err
		}
		devices, err := s.store.ListDevicesByCompany(*companyID)
		if err != nil {
			return nil, err
		}
		for _, d := range devices {
			targets = append(targets, d.UUID)
		}
	}
	if len(targets) == 0 {
		return nil, apperr.Invalid("targets", "no devices resolved")
	}

	for _, uuid := range targets {
		if _, err := s.store.GetDeviceByUUID(uuid); err != nil {
			return nil, err
		}
	}

	commands, err := s.store.CreateCommands(targets, string(commandType), command.EncodeParams(params), issuer)
	if err != nil {
		return nil, err
	}
	log.Info().Int("devices", len(commands)).Str("command_type", string(commandType)).Str("issued_by", issuer).
		Msg("bulk command created")
	return commands, nil
}

// Pending is the device poll read: PENDING commands for one device in
// creation order. Devices never see other lifecycle states.
func (s *Service) Pending(deviceUUID string) ([]model.RemoteCommand, error) {
	if _, err := s.store.GetDeviceByUUID(deviceUUID); err != nil {
		return nil, err
	}
	return s.store.ListPendingCommands(deviceUUID)
}

// UpdateStatus is the device-facing callback. Only forward transitions
// are accepted; SENT stamps sent_at, the terminal outcomes stamp
// executed_at, and FAILED bumps retry_count.
func (s *Service) UpdateStatus(id int, to command.Status, result, errMsg *string) (model.RemoteCommand, error) {
	if !command.ValidStatus(to) {
		return model.RemoteCommand{}, apperr.Invalid("status", "unknown status %q", to)
	}
	// cancellation is reserved for the operator endpoint; PENDING falls
	// through to the transition check, which rejects it as a Conflict
	// since no state moves backwards into PENDING
	if to == command.StatusCancelled {
		return model.RemoteCommand{}, apperr.Invalid("status", "%q cannot be set through the status callback", to)
	}

	cmd, err := s.store.GetCommandByID(id)
	if err != nil {
		return model.RemoteCommand{}, err
	}

	from := command.Status(cmd.Status)
	if !command.CanTransition(from, to) {
		return model.RemoteCommand{}, apperr.Conflict("cannot transition command %d from %s to %s", id, from, to)
	}

	change := db.CommandChange{Result: result, ErrorMessage: errMsg}
	now := s.clk.Now()
	switch to {
	case command.StatusSent:
		change.SentAt = &now
	case command.StatusCompleted:
		change.ExecutedAt = &now
	case command.StatusFailed:
		change.ExecutedAt = &now
		change.BumpRetry = true
	}

	ok, err := s.store.TransitionCommand(id, string(from), string(to), change)
	if err != nil {
		return model.RemoteCommand{}, err
	}
	if !ok {
		// the row moved on between our read and the guarded update
		return model.RemoteCommand{}, apperr.Conflict("command %d is no longer %s", id, from)
	}
	return s.store.GetCommandByID(id)
}

// Cancel marks a command CANCELLED. Only PENDING and SENT commands can be
// cancelled; an executing device is not interrupted.
func (s *Service) Cancel(id int) (model.RemoteCommand, error) {
	cmd, err := s.store.GetCommandByID(id)
	if err != nil {
		return model.RemoteCommand{}, err
	}

	from := command.Status(cmd.Status)
	if !command.CanTransition(from, command.StatusCancelled) {
		return model.RemoteCommand{}, apperr.Conflict("cannot cancel command %d in status %s", id, from)
	}

	ok, err := s.store.TransitionCommand(id, string(from), string(command.StatusCancelled), db.CommandChange{})
	if err != nil {
		return model.RemoteCommand{}, err
	}
	if !ok {
		return model.RemoteCommand{}, apperr.Conflict("command %d is no longer %s", id, from)
	}
	return s.store.GetCommandByID(id)
}

// Stats aggregates per-status counts and a completed/total success rate,
// fleet-wide or for one device.
type Stats struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
	SuccessRate float64        `json:"success_rate"`
}

func (s *Service) Stats(deviceUUID *string) (Stats, error) {
	if deviceUUID != nil {
		if _, err := s.store.GetDeviceByUUID(*deviceUUID); err != nil {
			return Stats{}, err
		}
	}

	counts, err := s.store.CommandStats(deviceUUID)
	if err != nil {
		return Stats{}, err
	}

	out := Stats{ByStatus: make(map[string]int)}
	for _, c := range counts {
		out.ByStatus[c.Status] = c.Count
		out.Total += c.Count
	}
	if out.Total > 0 {
		out.SuccessRate = float64(out.ByStatus[string(command.StatusCompleted)]) / float64(out.Total)
	}
	return out, nil
}
