package command

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Playtag-Media/boxfleet/internal/apperr"
)

func TestParseParamsValid(t *testing.T) {
	cases := []struct {
		typ Type
		raw string
	}{
		{TypeRestart, ""},
		{TypeReboot, "{}"},
		{TypePlay, ""},
		{TypePause, ""},
		{TypeStop, ""},
		{TypeSetVolume, `{"volume": 0}`},
		{TypeSetVolume, `{"volume": 100}`},
		{TypeSetStreamingURL, `{"url": "https://cdn.example.com/live.m3u8"}`},
		{TypeSetBrightness, `{"brightness": 40}`},
		{TypeConnectWifi, `{"ssid": "lobby", "password": "secret", "security_type": "wpa2"}`},
		{TypeConnectWifi, `{"ssid": "open-net"}`},
		{TypeExecuteShell, `{"command": "df -h"}`},
		{TypeInstallApp, `{"url": "https://cdn.example.com/player.apk"}`},
		{TypeUninstallApp, `{"package_name": "com.example.player"}`},
	}

	for _, tc := range cases {
		p, err := ParseParams(tc.typ, json.RawMessage(tc.raw))
		assert.NoError(t, err, "type %s raw %q", tc.typ, tc.raw)
		assert.Equal(t, tc.typ, p.CommandType())
	}
}

func TestParseParamsInvalid(t *testing.T) {
	cases := []struct {
		name  string
		typ   Type
		raw   string
		field string
	}{
		{"volume too high", TypeSetVolume, `{"volume": 150}`, "volume"},
		{"volume negative", TypeSetVolume, `{"volume": -1}`, "volume"},
		{"empty stream url", TypeSetStreamingURL, `{}`, "url"},
		{"brightness too high", TypeSetBrightness, `{"brightness": 101}`, "brightness"},
		{"missing ssid", TypeConnectWifi, `{"password": "x"}`, "ssid"},
		{"bad security type", TypeConnectWifi, `{"ssid": "lobby", "security_type": "wpa9"}`, "security_type"},
		{"empty shell command", TypeExecuteShell, `{}`, "command"},
		{"empty install url", TypeInstallApp, `{}`, "url"},
		{"empty package name", TypeUninstallApp, `{}`, "package_name"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseParams(tc.typ, json.RawMessage(tc.raw))
			assert.Error(t, err)
			var verr *apperr.ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestParseParamsUnknownType(t *testing.T) {
	_, err := ParseParams(Type("self_destruct"), nil)
	assert.True(t, apperr.IsValidation(err))
}

func TestParseParamsMalformedJSON(t *testing.T) {
	_, err := ParseParams(TypeSetVolume, json.RawMessage(`{"volume": "loud"}`))
	assert.True(t, apperr.IsValidation(err))
}

func TestEncodeParamsRoundTrip(t *testing.T) {
	p, err := ParseParams(TypeSetVolume, json.RawMessage(`{"volume": 30}`))
	assert.NoError(t, err)

	var decoded SetVolumeParams
	assert.NoError(t, json.Unmarshal(EncodeParams(p), &decoded))
	assert.Equal(t, 30, decoded.Volume)
}
