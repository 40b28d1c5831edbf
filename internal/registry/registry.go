// Package registry owns the canonical device records and the connectivity
// model around them. Online/offline is never stored: it is computed from
// last_heartbeat against OnlineThreshold. Logged disconnect events use the
// wider DisconnectThreshold so a brief network hiccup flips the UI badge
// without polluting the event log.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	guuid "github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Playtag-Media/boxfleet/internal/alert"
	"github.com/Playtag-Media/boxfleet/internal/apperr"
	"github.com/Playtag-Media/boxfleet/internal/clock"
	"github.com/Playtag-Media/boxfleet/internal/db"
	"github.com/Playtag-Media/boxfleet/internal/model"
	"github.com/Playtag-Media/boxfleet/internal/redis"
)

const (
	// OnlineThreshold is the UI-facing liveness window: a device whose
	// last heartbeat is older than this is shown offline.
	OnlineThreshold = 2 * time.Minute

	// DisconnectThreshold is the wider event-logging window: only a gap
	// beyond this produces DISCONNECTED/RECONNECTED entries. Keep the two
	// thresholds separate; conflating them changes observable behavior.
	DisconnectThreshold = 5 * time.Minute

	configCacheTTL = 30 * time.Second
)

// PlaybackConfig is what a device agent needs to start playing.
type PlaybackConfig struct {
	StreamingURL *string `json:"streaming_url"`
	Volume       int     `json:"volume"`
	Status       string  `json:"status"`
	PlayerType   string  `json:"player_type"`
}

// Service implements device registration, config reads/writes, and the
// heartbeat side of the connectivity model.
type Service struct {
	store   db.Store
	alerter alert.Notifier
	clk     clock.Clock
}

func New(store db.Store, alerter alert.Notifier, clk clock.Clock) *Service {
	return &Service{store: store, alerter: alerter, clk: clk}
}

// Register is the idempotent upsert devices call on boot. A new UUID
// creates the record and a REGISTERED event; a known UUID merges the
// non-empty identity fields. A device that was disconnected at the moment
// of the call gets an implicit RECONNECTED entry.
func (s *Service) Register(uuid string, name, ip, mac *string) (model.Device, error) {
	if _, err := guuid.Parse(uuid); err != nil {
		return model.Device{}, apperr.Invalid("uuid", "not a valid UUID: %q", uuid)
	}

	existing, err := s.store.GetDeviceByUUID(uuid)
	if apperr.IsNotFound(err) {
		created, err := s.store.CreateDevice(uuid, name, ip, mac)
		if err != nil {
			return model.Device{}, err
		}
		meta, _ := json.Marshal(map[string]any{"name": name, "ip": ip, "mac": mac})
		if err := s.store.AppendEvent(uuid, model.EventRegistered, "device registered", meta); err != nil {
			return model.Device{}, err
		}
		log.Info().Str("uuid", uuid).Msg("registered new device")
		return created, nil
	}
	if err != nil {
		return model.Device{}, err
	}

	if err := s.store.MergeDeviceInfo(uuid, name, ip, mac); err != nil {
		return model.Device{}, err
	}

	now := s.clk.Now()
	if existing.LastHeartbeat != nil && now.Sub(*existing.LastHeartbeat) > DisconnectThreshold {
		if err := s.store.AppendEvent(uuid, model.EventReconnected, "device re-registered after outage", nil); err != nil {
			return model.Device{}, err
		}
		s.alerter.DeviceOnline(uuid, existing.Name)
	}

	return s.store.GetDeviceByUUID(uuid)
}

// Config returns the playback config a device agent polls for, served
// from redis when a fresh copy is cached.
func (s *Service) Config(ctx context.Context, uuid string) (PlaybackConfig, error) {
	key := configCacheKey(uuid)
	if cached, ok := redis.Get(ctx, key); ok {
		var cfg PlaybackConfig
		if err := json.Unmarshal([]byte(cached), &cfg); err == nil {
			return cfg, nil
		}
	}

	d, err := s.store.GetDeviceByUUID(uuid)
	if err != nil {
		return PlaybackConfig{}, err
	}
	cfg := PlaybackConfig{
		StreamingURL: d.StreamingURL,
		Volume:       d.Volume,
		Status:       d.Status,
		PlayerType:   d.PlayerMode,
	}
	if payload, err := json.Marshal(cfg); err == nil {
		redis.Set(ctx, key, payload, configCacheTTL)
	}
	return cfg, nil
}

// Update applies an operator (or scheduler) patch. Changes to status,
// streaming_url, or volume each append an event carrying old and new
// values; other fields change silently.
func (s *Service) Update(ctx context.Context, uuid string, patch db.DevicePatch) (model.Device, error) {
	if err := validatePatch(patch); err != nil {
		return model.Device{}, err
	}
	if patch.CompanyID != nil {
		if _, err := s.store.GetCompanyByID(*patch.CompanyID); err != nil {
			return model.Device{}, err
		}
	}

	old, err := s.store.GetDeviceByUUID(uuid)
	if err != nil {
		return model.Device{}, err
	}

	if err := s.store.UpdateDeviceConfig(uuid, patch); err != nil {
		return model.Device{}, err
	}

	if patch.Status != nil && *patch.Status != old.Status {
		meta, _ := json.Marshal(map[string]any{"field": "status", "old": old.Status, "new": *patch.Status})
		if err := s.store.AppendEvent(uuid, model.EventStatusChanged,
			fmt.Sprintf("status changed from %s to %s", old.Status, *patch.Status), meta); err != nil {
			return model.Device{}, err
		}
	}
	if patch.StreamingURL != nil && (old.StreamingURL == nil || *patch.StreamingURL != *old.StreamingURL) {
		meta, _ := json.Marshal(map[string]any{"field": "streaming_url", "old": old.StreamingURL, "new": *patch.StreamingURL})
		if err := s.store.AppendEvent(uuid, model.EventConfigUpdated, "streaming URL updated", meta); err != nil {
			return model.Device{}, err
		}
	}
	if patch.Volume != nil && *patch.Volume != old.Volume {
		meta, _ := json.Marshal(map[string]any{"field": "volume", "old": old.Volume, "new": *patch.Volume})
		if err := s.store.AppendEvent(uuid, model.EventConfigUpdated,
			fmt.Sprintf("volume changed from %d to %d", old.Volume, *patch.Volume), meta); err != nil {
			return model.Device{}, err
		}
	}

	redis.Del(ctx, configCacheKey(uuid))
	return s.store.GetDeviceByUUID(uuid)
}

// Heartbeat records a liveness ping. The first ping logs CONNECTED; a ping
// after a gap beyond DisconnectThreshold logs RECONNECTED when the sweep
// already recorded the outage, CONNECTED otherwise. In-window pings append
// nothing, so the high-frequency path stays quiet.
func (s *Service) Heartbeat(uuid string) error {
	d, err := s.store.GetDeviceByUUID(uuid)
	if err != nil {
		return err
	}

	now := s.clk.Now()
	if err := s.store.TouchHeartbeat(uuid, now); err != nil {
		return err
	}

	prev := d.LastHeartbeat
	switch {
	case prev == nil:
		if err := s.store.AppendEvent(uuid, model.EventConnected, "first heartbeat received", nil); err != nil {
			return err
		}
		s.alerter.DeviceOnline(uuid, d.Name)
	case now.Sub(*prev) > DisconnectThreshold:
		eventType := model.EventConnected
		description := "device back after heartbeat gap"
		if flagged, err := s.outageLogged(uuid); err != nil {
			return err
		} else if flagged {
			eventType = model.EventReconnected
			description = "device reconnected"
		}
		meta, _ := json.Marshal(map[string]any{"gap_seconds": int(now.Sub(*prev).Seconds())})
		if err := s.store.AppendEvent(uuid, eventType, description, meta); err != nil {
			return err
		}
		s.alerter.DeviceOnline(uuid, d.Name)
	}
	return nil
}

// Online computes the UI-facing liveness flag.
func (s *Service) Online(d model.Device) bool {
	if d.LastHeartbeat == nil {
		return false
	}
	return s.clk.Now().Sub(*d.LastHeartbeat) < OnlineThreshold
}

// outageLogged reports whether the event log currently records an open
// outage: the latest DISCONNECTED is newer than the latest RECONNECTED.
func (s *Service) outageLogged(uuid string) (bool, error) {
	lastDisc, err := s.store.LatestEventTime(uuid, model.EventDisconnected)
	if err != nil {
		return false, err
	}
	if lastDisc == nil {
		return false, nil
	}
	lastRecon, err := s.store.LatestEventTime(uuid, model.EventReconnected)
	if err != nil {
		return false, err
	}
	return lastRecon == nil || lastRecon.Before(*lastDisc), nil
}

func validatePatch(patch db.DevicePatch) error {
	if patch.Volume != nil && (*patch.Volume < 0 || *patch.Volume > 100) {
		return apperr.Invalid("volume", "must be between 0 and 100, got %d", *patch.Volume)
	}
	if patch.Status != nil && *patch.Status != model.StatusActive && *patch.Status != model.StatusInactive {
		return apperr.Invalid("status", "must be %q or %q", model.StatusActive, model.StatusInactive)
	}
	if patch.PlayerMode != nil && *patch.PlayerMode != model.PlayerWebView && *patch.PlayerMode != model.PlayerExoPlayer {
		return apperr.Invalid("player_mode", "must be %q or %q", model.PlayerWebView, model.PlayerExoPlayer)
	}
	return nil
}

func configCacheKey(uuid string) string {
	return "device:config:" + uuid
}
