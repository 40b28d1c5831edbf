package db

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Playtag-Media/boxfleet/internal/model"
)

// Store exposes every persistence operation the services and API need.
// Getter methods translate sql.ErrNoRows into apperr.NotFound so callers
// never touch database/sql sentinels.
type Store interface {
	// devices
	GetDeviceByUUID(uuid string) (model.Device, error)
	CreateDevice(uuid string, name, ip, mac *string) (model.Device, error)
	MergeDeviceInfo(uuid string, name, ip, mac *string) error
	UpdateDeviceConfig(uuid string, patch DevicePatch) error
	TouchHeartbeat(uuid string, ts time.Time) error
	ListDevices() ([]model.DeviceWithCompany, error)
	ListDevicesByCompany(companyID int) ([]model.Device, error)
	ListDevicesWithHeartbeat() ([]model.Device, error)

	// device events
	AppendEvent(uuid, eventType, description string, metadata json.RawMessage) error
	ListDeviceEvents(uuid string, limit, offset int) ([]model.DeviceEvent, error)
	LatestEventTime(uuid, eventType string) (*time.Time, error)
	DeleteEventsBefore(cutoff time.Time) (int64, error)

	// remote commands
	CreateCommand(uuid, commandType string, params json.RawMessage, issuer string) (model.RemoteCommand, error)
	CreateCommands(uuids []string, commandType string, params json.RawMessage, issuer string) ([]model.RemoteCommand, error)
	GetCommandByID(id int) (model.RemoteCommand, error)
	ListPendingCommands(uuid string) ([]model.RemoteCommand, error)
	TransitionCommand(id int, from, to string, change CommandChange) (bool, error)
	CommandStats(deviceUUID *string) ([]model.CommandStatusCount, error)

	// schedules
	CreateSchedule(s model.Schedule) (model.Schedule, error)
	GetSchedule(id int) (model.Schedule, error)
	ListSchedules() ([]model.Schedule, error)
	ListDueSchedules(now time.Time) ([]model.Schedule, error)
	UpdateSchedule(id int, patch SchedulePatch) error
	SetScheduleEnabled(id int, enabled bool, next time.Time) error
	MarkScheduleRun(id int, last, next time.Time) error
	DeleteSchedule(id int) error

	// companies
	GetCompanyByID(id int) (model.Company, error)
	ListCompanies() ([]model.Company, error)
}

// DevicePatch carries the optional fields of an operator config update;
// nil means "leave unchanged".
type DevicePatch struct {
	Name         *string
	IPAddress    *string
	MACAddress   *string
	StreamingURL *string
	Volume       *int
	Status       *string
	PlayerMode   *string
	CompanyID    *int
}

// CommandChange carries the row changes of one status transition.
type CommandChange struct {
	Result       *string
	ErrorMessage *string
	SentAt       *time.Time
	ExecutedAt   *time.Time
	BumpRetry    bool
}

// SchedulePatch carries the optional fields of a schedule update. Target
// fields can be set or changed but never cleared back to NULL; widening a
// device-scoped rule to a company or the whole fleet means recreating it.
type SchedulePatch struct {
	Name          *string
	ActionType    *string
	DeviceUUID    *string
	CompanyID     *int
	Value         *string
	CronExpr      *string
	NextExecution *time.Time
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

// NewStore wraps the given connection; a nil argument falls back to the
// package-level DB set by Init.
func NewStore(conn *sqlx.DB) Store {
	if conn == nil {
		conn = DB
	}
	return &pgStore{db: conn}
}
