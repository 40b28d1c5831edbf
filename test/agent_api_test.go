package test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	guuid "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDevice_Success(t *testing.T) {
	s := newTestServer(t)
	uuid := guuid.NewString()

	w := s.do(t, http.MethodPost, "/api/agent/devices/register", gin.H{
		"uuid": uuid,
		"name": "lobby box",
		"ip":   "10.1.2.3",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		UUID   string  `json:"uuid"`
		Name   *string `json:"name"`
		Volume int     `json:"volume"`
		Status string  `json:"status"`
	}
	decode(t, w, &resp)
	assert.Equal(t, uuid, resp.UUID)
	assert.Equal(t, "lobby box", *resp.Name)
	assert.Equal(t, 50, resp.Volume)
	assert.Equal(t, "inactive", resp.Status)
}

func TestRegisterDevice_BadUUID(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/agent/devices/register", gin.H{"uuid": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error string `json:"error"`
	}
	decode(t, w, &resp)
	assert.Contains(t, resp.Error, "uuid")
}

func TestRegisterDevice_MissingUUID(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/agent/devices/register", gin.H{"name": "nameless"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHeartbeat_Success(t *testing.T) {
	s := newTestServer(t)
	uuid := s.registerDevice(t)

	w := s.do(t, http.MethodPost, "/api/agent/devices/"+uuid+"/heartbeat", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
	}
	decode(t, w, &resp)
	assert.True(t, resp.Success)
}

func TestHeartbeat_UnknownDevice(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/agent/devices/"+guuid.NewString()+"/heartbeat", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetConfig_Success(t *testing.T) {
	s := newTestServer(t)
	uuid := s.registerDevice(t)

	// push a config through the admin surface first
	w := s.do(t, http.MethodPut, "/api/admin/devices/"+uuid, gin.H{
		"streaming_url": "https://cdn.example.com/live.m3u8",
		"volume":        70,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/agent/devices/"+uuid+"/config", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		StreamingURL *string `json:"streaming_url"`
		Volume       int     `json:"volume"`
		Status       string  `json:"status"`
		PlayerType   string  `json:"player_type"`
	}
	decode(t, w, &resp)
	require.NotNil(t, resp.StreamingURL)
	assert.Equal(t, "https://cdn.example.com/live.m3u8", *resp.StreamingURL)
	assert.Equal(t, 70, resp.Volume)
	assert.Equal(t, "webView", resp.PlayerType)
}

func TestGetConfig_UnknownDevice(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/agent/devices/"+guuid.NewString()+"/config", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestCommandRoundTrip drives one command through the full device-side
// lifecycle: admin queues it, agent drains the queue and reports back.
func TestCommandRoundTrip(t *testing.T) {
	s := newTestServer(t)
	uuid := s.registerDevice(t)

	w := s.do(t, http.MethodPost, "/api/admin/remote-commands", gin.H{
		"device_uuid":  uuid,
		"command_type": "set_volume",
		"parameters":   gin.H{"volume": 30},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created struct {
		ID       int    `json:"id"`
		Status   string `json:"status"`
		IssuedBy string `json:"issued_by"`
	}
	decode(t, w, &created)
	assert.Equal(t, "PENDING", created.Status)
	assert.Equal(t, testIssuer, created.IssuedBy)

	// the device sees it on poll
	w = s.do(t, http.MethodGet, "/api/agent/remote-commands/pending/"+uuid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending []struct {
		ID int `json:"id"`
	}
	decode(t, w, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, created.ID, pending[0].ID)

	// SENT, then EXECUTING, then COMPLETED
	idPath := "/api/agent/remote-commands/" + strconv.Itoa(created.ID) + "/status"
	for _, status := range []string{"SENT", "EXECUTING"} {
		w = s.do(t, http.MethodPatch, idPath, gin.H{"status": status})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w = s.do(t, http.MethodPatch, idPath, gin.H{"status": "COMPLETED", "result": "volume set"})
	require.Equal(t, http.StatusOK, w.Code)

	var done struct {
		Status     string  `json:"status"`
		Result     *string `json:"result"`
		ExecutedAt *string `json:"executed_at"`
	}
	decode(t, w, &done)
	assert.Equal(t, "COMPLETED", done.Status)
	require.NotNil(t, done.Result)
	assert.Equal(t, "volume set", *done.Result)
	assert.NotNil(t, done.ExecutedAt)

	// the queue is drained
	w = s.do(t, http.MethodGet, "/api/agent/remote-commands/pending/"+uuid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending = nil
	decode(t, w, &pending)
	assert.Empty(t, pending)
}

func TestUpdateCommandStatus_BackwardTransition(t *testing.T) {
	s := newTestServer(t)
	uuid := s.registerDevice(t)

	w := s.do(t, http.MethodPost, "/api/admin/remote-commands", gin.H{
		"device_uuid":  uuid,
		"command_type": "restart",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		ID int `json:"id"`
	}
	decode(t, w, &created)

	idPath := "/api/agent/remote-commands/" + strconv.Itoa(created.ID) + "/status"

	// PENDING straight to COMPLETED skips SENT and EXECUTING
	w = s.do(t, http.MethodPatch, idPath, gin.H{"status": "COMPLETED"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// devices cannot cancel through the callback
	w = s.do(t, http.MethodPatch, idPath, gin.H{"status": "CANCELLED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// no state moves back into PENDING
	w = s.do(t, http.MethodPatch, idPath, gin.H{"status": "PENDING"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateCommandStatus_UnknownCommand(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPatch, "/api/agent/remote-commands/9999/status", gin.H{"status": "SENT"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
