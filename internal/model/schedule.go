package model

import "time"

// Actions a schedule can apply to its resolved devices.
const (
	ActionVolume    = "volume"
	ActionStreamURL = "stream_url"
	ActionStatus    = "status"
	ActionRestart   = "restart"
)

// Schedule is a recurring bulk-configuration rule. Target resolution
// priority is device > company > all devices.
type Schedule struct {
	ID            int        `db:"id"             json:"id"`
	Name          string     `db:"name"           json:"name"`
	ActionType    string     `db:"action_type"    json:"action_type"`
	DeviceUUID    *string    `db:"device_uuid"    json:"device_uuid"`
	CompanyID     *int       `db:"company_id"     json:"company_id"`
	Value         string     `db:"value"          json:"value"`
	CronExpr      string     `db:"cron_expr"      json:"cron_expr"`
	Enabled       bool       `db:"enabled"        json:"enabled"`
	LastExecuted  *time.Time `db:"last_executed"  json:"last_executed"`
	NextExecution time.Time  `db:"next_execution" json:"next_execution"`
	CreatedAt     time.Time  `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"     json:"updated_at"`
}
