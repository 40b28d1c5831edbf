// Package command defines the remote-command vocabulary: the closed set of
// command types, a typed parameter struct per type, and the forward-only
// status graph. Parameters are validated once, at construction; nothing
// downstream re-checks them.
package command

import (
	"encoding/json"

	"github.com/Playtag-Media/boxfleet/internal/apperr"
)

// Type is one of the closed set of commands a device agent understands.
type Type string

const (
	TypeRestart         Type = "restart"
	TypeReboot          Type = "reboot"
	TypeSetVolume       Type = "set_volume"
	TypeSetStreamingURL Type = "set_streaming_url"
	TypeSetBrightness   Type = "set_brightness"
	TypePlay            Type = "play"
	TypePause           Type = "pause"
	TypeStop            Type = "stop"
	TypeConnectWifi     Type = "connect_wifi"
	TypeExecuteShell    Type = "execute_shell"
	TypeInstallApp      Type = "install_app"
	TypeUninstallApp    Type = "uninstall_app"
)

// Params is the per-type parameter payload. Each command type carries its
// own struct; ParseParams picks the right one from the wire type tag.
type Params interface {
	CommandType() Type
	Validate() error
}

// NoParams covers commands that carry no payload (restart, reboot,
// play, pause, stop).
type NoParams struct {
	typ Type
}

func (p NoParams) CommandType() Type { return p.typ }
func (p NoParams) Validate() error   { return nil }

// SetVolumeParams sets the playback volume.
type SetVolumeParams struct {
	Volume int `json:"volume"`
}

func (p SetVolumeParams) CommandType() Type { return TypeSetVolume }

func (p SetVolumeParams) Validate() error {
	if p.Volume < 0 || p.Volume > 100 {
		return apperr.Invalid("volume", "must be between 0 and 100, got %d", p.Volume)
	}
	return nil
}

// SetStreamingURLParams points the player at a new stream.
type SetStreamingURLParams struct {
	URL string `json:"url"`
}

func (p SetStreamingURLParams) CommandType() Type { return TypeSetStreamingURL }

func (p SetStreamingURLParams) Validate() error {
	if p.URL == "" {
		return apperr.Invalid("url", "must not be empty")
	}
	return nil
}

// SetBrightnessParams sets the panel brightness.
type SetBrightnessParams struct {
	Brightness int `json:"brightness"`
}

func (p SetBrightnessParams) CommandType() Type { return TypeSetBrightness }

func (p SetBrightnessParams) Validate() error {
	if p.Brightness < 0 || p.Brightness > 100 {
		return apperr.Invalid("brightness", "must be between 0 and 100, got %d", p.Brightness)
	}
	return nil
}

// ConnectWifiParams joins the device to a wireless network.
type ConnectWifiParams struct {
	SSID         string `json:"ssid"`
	Password     string `json:"password,omitempty"`
	SecurityType string `json:"security_type,omitempty"`
}

func (p ConnectWifiParams) CommandType() Type { return TypeConnectWifi }

func (p ConnectWifiParams) Validate() error {
	if p.SSID == "" {
		return apperr.Invalid("ssid", "must not be empty")
	}
	switch p.SecurityType {
	case "", "open", "wep", "wpa", "wpa2":
	default:
		return apperr.Invalid("security_type", "unknown security type %q", p.SecurityType)
	}
	return nil
}

// ExecuteShellParams runs a shell command on the device.
type ExecuteShellParams struct {
	Command string `json:"command"`
}

func (p ExecuteShellParams) CommandType() Type { return TypeExecuteShell }

func (p ExecuteShellParams) Validate() error {
	if p.Command == "" {
		return apperr.Invalid("command", "must not be empty")
	}
	return nil
}

// InstallAppParams installs an application package from a URL.
type InstallAppParams struct {
	URL string `json:"url"`
}

func (p InstallAppParams) CommandType() Type { return TypeInstallApp }

func (p InstallAppParams) Validate() error {
	if p.URL == "" {
		return apperr.Invalid("url", "must not be empty")
	}
	return nil
}

// UninstallAppParams removes an installed application.
type UninstallAppParams struct {
	PackageName string `json:"package_name"`
}

func (p UninstallAppParams) CommandType() Type { return TypeUninstallApp }

func (p UninstallAppParams) Validate() error {
	if p.PackageName == "" {
		return apperr.Invalid("package_name", "must not be empty")
	}
	return nil
}

// ParseParams decodes and validates the raw JSON payload for the given
// command type. A nil raw payload is treated as an empty object.
func ParseParams(typ Type, raw json.RawMessage) (Params, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	var p Params
	switch typ {
	case TypeRestart, TypeReboot, TypePlay, TypePause, TypeStop:
		p = NoParams{typ: typ}
	case TypeSetVolume:
		var v SetVolumeParams
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, apperr.Invalid("parameters", "malformed payload: %v", err)
		}
		p = v
	case TypeSetStreamingURL:
		var v SetStreamingURLParams
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, apperr.Invalid("parameters", "malformed payload: %v", err)
		}
		p = v
	case TypeSetBrightness:
		var v SetBrightnessParams
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, apperr.Invalid("parameters", "malformed payload: %v", err)
		}
		p = v
	case TypeConnectWifi:
		var v ConnectWifiParams
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, apperr.Invalid("parameters", "malformed payload: %v", err)
		}
		p = v
	case TypeExecuteShell:
		var v ExecuteShellParams
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, apperr.Invalid("parameters", "malformed payload: %v", err)
		}
		p = v
	case TypeInstallApp:
		var v InstallAppParams
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, apperr.Invalid("parameters", "malformed payload: %v", err)
		}
		p = v
	case TypeUninstallApp:
		var v UninstallAppParams
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, apperr.Invalid("parameters", "malformed payload: %v", err)
		}
		p = v
	default:
		return nil, apperr.Invalid("command_type", "unknown command type %q", typ)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// EncodeParams serializes validated parameters back to JSON for storage.
func EncodeParams(p Params) json.RawMessage {
	b, err := json.Marshal(p)
	if err != nil {
		return json.RawMessage("{}")
	}
	return b
}
