package packets

import (
	"time"

	"github.com/Playtag-Media/boxfleet/internal/model"
)

type DeviceResponse struct {
	ID            int     `json:"id"`
	UUID          string  `json:"uuid"`
	Name          *string `json:"name"`
	IP            *string `json:"ip"`
	MAC           *string `json:"mac"`
	StreamingURL  *string `json:"streaming_url"`
	Volume        int     `json:"volume"`
	Status        string  `json:"status"`
	PlayerMode    string  `json:"player_mode"`
	CompanyID     *int    `json:"company_id"`
	CompanyName   *string `json:"company_name,omitempty"`
	Online        bool    `json:"online"`
	LastHeartbeat *string `json:"last_heartbeat"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func NewDeviceResponse(d model.Device, companyName *string, online bool) DeviceResponse {
	out := DeviceResponse{
		ID:           d.ID,
		UUID:         d.UUID,
		Name:         d.Name,
		IP:           d.IPAddress,
		MAC:          d.MACAddress,
		StreamingURL: d.StreamingURL,
		Volume:       d.Volume,
		Status:       d.Status,
		PlayerMode:   d.PlayerMode,
		CompanyID:    d.CompanyID,
		CompanyName:  companyName,
		Online:       online,
		CreatedAt:    d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    d.UpdatedAt.Format(time.RFC3339),
	}
	if d.LastHeartbeat != nil {
		hb := d.LastHeartbeat.Format(time.RFC3339)
		out.LastHeartbeat = &hb
	}
	return out
}

type EventResponse struct {
	ID          int    `json:"id"`
	DeviceUUID  string `json:"device_uuid"`
	EventType   string `json:"event_type"`
	Description string `json:"description"`
	Metadata    any    `json:"metadata,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func NewEventResponse(e model.DeviceEvent) EventResponse {
	return EventResponse{
		ID:          e.ID,
		DeviceUUID:  e.DeviceUUID,
		EventType:   e.Type,
		Description: e.Description,
		Metadata:    e.Metadata,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}

type ScheduleResponse struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	ActionType    string  `json:"action_type"`
	DeviceUUID    *string `json:"device_uuid"`
	CompanyID     *int    `json:"company_id"`
	Value         string  `json:"value"`
	CronExpr      string  `json:"cron_expr"`
	Enabled       bool    `json:"enabled"`
	LastExecuted  *string `json:"last_executed"`
	NextExecution string  `json:"next_execution"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func NewScheduleResponse(s model.Schedule) ScheduleResponse {
	out := ScheduleResponse{
		ID:            s.ID,
		Name:          s.Name,
		ActionType:    s.ActionType,
		DeviceUUID:    s.DeviceUUID,
		CompanyID:     s.CompanyID,
		Value:         s.Value,
		CronExpr:      s.CronExpr,
		Enabled:       s.Enabled,
		NextExecution: s.NextExecution.Format(time.RFC3339),
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     s.UpdatedAt.Format(time.RFC3339),
	}
	if s.LastExecuted != nil {
		ts := s.LastExecuted.Format(time.RFC3339)
		out.LastExecuted = &ts
	}
	return out
}
