package packets

import (
	"time"

	"github.com/Playtag-Media/boxfleet/internal/model"
)

type DeviceResponse struct {
	UUID          string  `json:"uuid"`
	Name          *string `json:"name"`
	IP            *string `json:"ip"`
	MAC           *string `json:"mac"`
	StreamingURL  *string `json:"streaming_url"`
	Volume        int     `json:"volume"`
	Status        string  `json:"status"`
	PlayerMode    string  `json:"player_mode"`
	LastHeartbeat *string `json:"last_heartbeat"`
}

func NewDeviceResponse(d model.Device) DeviceResponse {
	out := DeviceResponse{
		UUID:         d.UUID,
		Name:         d.Name,
		IP:           d.IPAddress,
		MAC:          d.MACAddress,
		StreamingURL: d.StreamingURL,
		Volume:       d.Volume,
		Status:       d.Status,
		PlayerMode:   d.PlayerMode,
	}
	if d.LastHeartbeat != nil {
		hb := d.LastHeartbeat.Format(time.RFC3339)
		out.LastHeartbeat = &hb
	}
	return out
}

type CommandResponse struct {
	ID          int     `json:"id"`
	DeviceUUID  string  `json:"device_uuid"`
	CommandType string  `json:"command_type"`
	Parameters  any     `json:"parameters,omitempty"`
	Status      string  `json:"status"`
	Result      *string `json:"result,omitempty"`
	Error       *string `json:"error,omitempty"`
	RetryCount  int     `json:"retry_count"`
	IssuedBy    string  `json:"issued_by"`
	CreatedAt   string  `json:"created_at"`
	SentAt      *string `json:"sent_at,omitempty"`
	ExecutedAt  *string `json:"executed_at,omitempty"`
}

func NewCommandResponse(cmd model.RemoteCommand) CommandResponse {
	out := CommandResponse{
		ID:          cmd.ID,
		DeviceUUID:  cmd.DeviceUUID,
		CommandType: cmd.CommandType,
		Parameters:  cmd.Parameters,
		Status:      cmd.Status,
		Result:      cmd.Result,
		Error:       cmd.ErrorMessage,
		RetryCount:  cmd.RetryCount,
		IssuedBy:    cmd.IssuedBy,
		CreatedAt:   cmd.CreatedAt.Format(time.RFC3339),
	}
	if cmd.SentAt != nil {
		ts := cmd.SentAt.Format(time.RFC3339)
		out.SentAt = &ts
	}
	if cmd.ExecutedAt != nil {
		ts := cmd.ExecutedAt.Format(time.RFC3339)
		out.ExecutedAt = &ts
	}
	return out
}

func NewCommandResponses(cmds []model.RemoteCommand) []CommandResponse {
	out := make([]CommandResponse, 0, len(cmds))
	for _, cmd := range cmds {
		out = append(out, NewCommandResponse(cmd))
	}
	return out
}
