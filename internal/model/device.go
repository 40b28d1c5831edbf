package model

import "time"

// Playback status values a device can report or be set to.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Player modes supported by the on-device agent.
const (
	PlayerWebView   = "webView"
	PlayerExoPlayer = "exoPlayer"
)

// Device represents one remote playback box. The UUID is assigned by the
// device itself on first boot and never changes; everything else is mutable.
type Device struct {
	ID            int        `db:"id"             json:"id"`
	UUID          string     `db:"uuid"           json:"uuid"`
	Name          *string    `db:"name"           json:"name"`
	IPAddress     *string    `db:"ip_address"     json:"ip_address"`
	MACAddress    *string    `db:"mac_address"    json:"mac_address"`
	StreamingURL  *string    `db:"streaming_url"  json:"streaming_url"`
	Volume        int        `db:"volume"         json:"volume"`
	Status        string     `db:"status"         json:"status"`
	PlayerMode    string     `db:"player_mode"    json:"player_mode"`
	CompanyID     *int       `db:"company_id"     json:"company_id"`
	LastHeartbeat *time.Time `db:"last_heartbeat" json:"last_heartbeat"`
	CreatedAt     time.Time  `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"     json:"updated_at"`
}

// DeviceWithCompany is the list-view row with the company name joined in.
type DeviceWithCompany struct {
	Device
	CompanyName *string `db:"company_name" json:"company_name"`
}
