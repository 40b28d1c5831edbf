package packets

import "encoding/json"

type UpdateDeviceRequest struct {
	Name         *string `json:"name"`
	IP           *string `json:"ip"`
	MAC          *string `json:"mac"`
	StreamingURL *string `json:"streaming_url"`
	Volume       *int    `json:"volume"`
	Status       *string `json:"status"`
	PlayerMode   *string `json:"player_mode"`
	CompanyID    *int    `json:"company_id"`
}

type CreateCommandRequest struct {
	DeviceUUID  string          `json:"device_uuid" binding:"required"`
	CommandType string          `json:"command_type" binding:"required"`
	Parameters  json.RawMessage `json:"parameters"`
}

// CreateBulkCommandRequest targets either an explicit device list or one
// company; exactly one of the two must be set.
type CreateBulkCommandRequest struct {
	DeviceUUIDs []string        `json:"device_uuids"`
	CompanyID   *int            `json:"company_id"`
	CommandType string          `json:"command_type" binding:"required"`
	Parameters  json.RawMessage `json:"parameters"`
}

type CreateScheduleRequest struct {
	Name       string  `json:"name" binding:"required"`
	ActionType string  `json:"action_type" binding:"required"`
	DeviceUUID *string `json:"device_uuid"`
	CompanyID  *int    `json:"company_id"`
	Value      string  `json:"value"`
	CronExpr   string  `json:"cron_expr" binding:"required"`
	Enabled    *bool   `json:"enabled"`
}

type UpdateScheduleRequest struct {
	Name       *string `json:"name"`
	ActionType *string `json:"action_type"`
	DeviceUUID *string `json:"device_uuid"`
	CompanyID  *int    `json:"company_id"`
	Value      *string `json:"value"`
	CronExpr   *string `json:"cron_expr"`
}

type ToggleScheduleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}
