package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// RemoteCommand is one unit of work queued for one device. Commands are
// never deleted; cancellation is a terminal status.
type RemoteCommand struct {
	ID           int            `db:"id"            json:"id"`
	DeviceUUID   string         `db:"device_uuid"   json:"device_uuid"`
	CommandType  string         `db:"command_type"  json:"command_type"`
	Parameters   types.JSONText `db:"parameters"    json:"parameters,omitempty"`
	Status       string         `db:"status"        json:"status"`
	Result       *string        `db:"result"        json:"result,omitempty"`
	ErrorMessage *string        `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int            `db:"retry_count"   json:"retry_count"`
	IssuedBy     string         `db:"issued_by"     json:"issued_by"`
	CreatedAt    time.Time      `db:"created_at"    json:"created_at"`
	SentAt       *time.Time     `db:"sent_at"       json:"sent_at,omitempty"`
	ExecutedAt   *time.Time     `db:"executed_at"   json:"executed_at,omitempty"`
}

// CommandStatusCount is one GROUP BY row of the stats query.
type CommandStatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count"  json:"count"`
}
