package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Connectivity and configuration event types appended to the device log.
const (
	EventRegistered      = "REGISTERED"
	EventConnected       = "CONNECTED"
	EventDisconnected    = "DISCONNECTED"
	EventReconnected     = "RECONNECTED"
	EventStatusChanged   = "STATUS_CHANGED"
	EventConfigUpdated   = "CONFIG_UPDATED"
	EventHeartbeatMissed = "HEARTBEAT_MISSED"
)

// DeviceEvent is one append-only log entry. Entries are never mutated;
// the only delete path is the retention sweep.
type DeviceEvent struct {
	ID          int            `db:"id"          json:"id"`
	DeviceUUID  string         `db:"device_uuid" json:"device_uuid"`
	Type        string         `db:"event_type"  json:"event_type"`
	Description string         `db:"description" json:"description"`
	Metadata    types.JSONText `db:"metadata"    json:"metadata,omitempty"`
	CreatedAt   time.Time      `db:"created_at"  json:"created_at"`
}
