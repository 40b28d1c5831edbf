package db

import (
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Playtag-Media/boxfleet/internal/apperr"
	"github.com/Playtag-Media/boxfleet/internal/model"
)

// MemStore is an in-memory Store used by tests and local development. It
// mirrors pgStore semantics: COALESCE-style patches, the GREATEST guard on
// heartbeats, FIFO pending reads, and the optimistic transition guard.
type MemStore struct {
	mu         sync.Mutex
	devices    map[string]model.Device
	events     []model.DeviceEvent
	commands   map[int]model.RemoteCommand
	schedules  map[int]model.Schedule
	companies  map[int]model.Company
	deviceSeq  int
	eventSeq   int
	commandSeq int
	schedSeq   int
	companySeq int
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		devices:   make(map[string]model.Device),
		commands:  make(map[int]model.RemoteCommand),
		schedules: make(map[int]model.Schedule),
		companies: make(map[int]model.Company),
	}
}

// AddCompany seeds a company row.
func (m *MemStore) AddCompany(name string) model.Company {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companySeq++
	c := model.Company{ID: m.companySeq, Name: name, CreatedAt: time.Now()}
	m.companies[c.ID] = c
	return c
}

func (m *MemStore) GetDeviceByUUID(uuid string) (model.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[uuid]
	if !ok {
		return model.Device{}, apperr.NotFound("device", uuid)
	}
	return d, nil
}

func (m *MemStore) CreateDevice(uuid string, name, ip, mac *string) (model.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deviceSeq++
	now := time.Now()
	d := model.Device{
		ID:         m.deviceSeq,
		UUID:       uuid,
		Name:       name,
		IPAddress:  ip,
		MACAddress: mac,
		Volume:     50,
		Status:     model.StatusInactive,
		PlayerMode: model.PlayerWebView,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.devices[uuid] = d
	return d, nil
}

func (m *MemStore) MergeDeviceInfo(uuid string, name, ip, mac *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[uuid]
	if !ok {
		return apperr.NotFound("device", uuid)
	}
	if name != nil {
		d.Name = name
	}
	if ip != nil {
		d.IPAddress = ip
	}
	if mac != nil {
		d.MACAddress = mac
	}
	d.UpdatedAt = time.Now()
	m.devices[uuid] = d
	return nil
}

func (m *MemStore) UpdateDeviceConfig(uuid string, patch DevicePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[uuid]
	if !ok {
		return apperr.NotFound("device", uuid)
	}
	if patch.Name != nil {
		d.Name = patch.Name
	}
	if patch.IPAddress != nil {
		d.IPAddress = patch.IPAddress
	}
	if patch.MACAddress != nil {
		d.MACAddress = patch.MACAddress
	}
	if patch.StreamingURL != nil {
		d.StreamingURL = patch.StreamingURL
	}
	if patch.Volume != nil {
		d.Volume = *patch.Volume
	}
	if patch.Status != nil {
		d.Status = *patch.Status
	}
	if patch.PlayerMode != nil {
		d.PlayerMode = *patch.PlayerMode
	}
	if patch.CompanyID != nil {
		d.CompanyID = patch.CompanyID
	}
	d.UpdatedAt = time.Now()
	m.devices[uuid] = d
	return nil
}

func (m *MemStore) TouchHeartbeat(uuid string, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[uuid]
	if !ok {
		return apperr.NotFound("device", uuid)
	}
	if d.LastHeartbeat == nil || ts.After(*d.LastHeartbeat) {
		d.LastHeartbeat = &ts
	}
	d.UpdatedAt = time.Now()
	m.devices[uuid] = d
	return nil
}

func (m *MemStore) ListDevices() ([]model.DeviceWithCompany, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.DeviceWithCompany, 0, len(m.devices))
	for _, d := range m.devices {
		row := model.DeviceWithCompany{Device: d}
		if d.CompanyID != nil {
			if c, ok := m.companies[*d.CompanyID]; ok {
				name := c.Name
				row.CompanyName = &name
			}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) ListDevicesByCompany(companyID int) ([]model.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Device
	for _, d := range m.devices {
		if d.CompanyID != nil && *d.CompanyID == companyID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) ListDevicesWithHeartbeat() ([]model.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Device
	for _, d := range m.devices {
		if d.LastHeartbeat != nil {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) AppendEvent(uuid, eventType, description string, metadata json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(metadata) == 0 {
		metadata = json.RawMessage("{}")
	}
	m.eventSeq++
	m.events = append(m.events, model.DeviceEvent{
		ID:          m.eventSeq,
		DeviceUUID:  uuid,
		Type:        eventType,
		Description: description,
		Metadata:    []byte(metadata),
		CreatedAt:   time.Now(),
	})
	return nil
}

func (m *MemStore) ListDeviceEvents(uuid string, limit, offset int) ([]model.DeviceEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []model.DeviceEvent
	for _, e := range m.events {
		if e.DeviceUUID == uuid {
			matched = append(matched, e)
		}
	}
	// newest first, as the SQL ORDER BY does
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MemStore) LatestEventTime(uuid, eventType string) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.events) - 1; i >= 0; i-- {
		e := m.events[i]
		if e.DeviceUUID == uuid && e.Type == eventType {
			ts := e.CreatedAt
			return &ts, nil
		}
	}
	return nil, nil
}

func (m *MemStore) DeleteEventsBefore(cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	var deleted int64
	for _, e := range m.events {
		if e.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return deleted, nil
}

func (m *MemStore) CreateCommand(uuid, commandType string, params json.RawMessage, issuer string) (model.RemoteCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertCommand(uuid, commandType, params, issuer), nil
}

func (m *MemStore) CreateCommands(uuids []string, commandType string, params json.RawMessage, issuer string) ([]model.RemoteCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.RemoteCommand, 0, len(uuids))
	for _, uuid := range uuids {
		out = append(out, m.insertCommand(uuid, commandType, params, issuer))
	}
	return out, nil
}

func (m *MemStore) insertCommand(uuid, commandType string, params json.RawMessage, issuer string) model.RemoteCommand {
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	m.commandSeq++
	cmd := model.RemoteCommand{
		ID:          m.commandSeq,
		DeviceUUID:  uuid,
		CommandType: commandType,
		Parameters:  []byte(params),
		Status:      "PENDING",
		IssuedBy:    issuer,
		CreatedAt:   time.Now(),
	}
	m.commands[cmd.ID] = cmd
	return cmd
}

func (m *MemStore) GetCommandByID(id int) (model.RemoteCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd, ok := m.commands[id]
	if !ok {
		return model.RemoteCommand{}, apperr.NotFound("command", strconv.Itoa(id))
	}
	return cmd, nil
}

func (m *MemStore) ListPendingCommands(uuid string) ([]model.RemoteCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.RemoteCommand
	for _, cmd := range m.commands {
		if cmd.DeviceUUID == uuid && cmd.Status == "PENDING" {
			out = append(out, cmd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) TransitionCommand(id int, from, to string, change CommandChange) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd, ok := m.commands[id]
	if !ok || cmd.Status != from {
		return false, nil
	}
	cmd.Status = to
	if change.Result != nil {
		cmd.Result = change.Result
	}
	if change.ErrorMessage != nil {
		cmd.ErrorMessage = change.ErrorMessage
	}
	if change.SentAt != nil {
		cmd.SentAt = change.SentAt
	}
	if change.ExecutedAt != nil {
		cmd.ExecutedAt = change.ExecutedAt
	}
	if change.BumpRetry {
		cmd.RetryCount++
	}
	m.commands[id] = cmd
	return true, nil
}

func (m *MemStore) CommandStats(deviceUUID *string) ([]model.CommandStatusCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, cmd := range m.commands {
		if deviceUUID != nil && cmd.DeviceUUID != *deviceUUID {
			continue
		}
		counts[cmd.Status]++
	}
	out := make([]model.CommandStatusCount, 0, len(counts))
	for status, count := range counts {
		out = append(out, model.CommandStatusCount{Status: status, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (m *MemStore) CreateSchedule(s model.Schedule) (model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedSeq++
	now := time.Now()
	s.ID = m.schedSeq
	s.CreatedAt = now
	s.UpdatedAt = now
	m.schedules[s.ID] = s
	return s, nil
}

func (m *MemStore) GetSchedule(id int) (model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return model.Schedule{}, apperr.NotFound("schedule", strconv.Itoa(id))
	}
	return s, nil
}

func (m *MemStore) ListSchedules() ([]model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Schedule, 0, len(m.schedules))
	for _, s := range m.schedules {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) ListDueSchedules(now time.Time) ([]model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Schedule
	for _, s := range m.schedules {
		if s.Enabled && !s.NextExecution.After(now) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NextExecution.Equal(out[j].NextExecution) {
			return out[i].ID < out[j].ID
		}
		return out[i].NextExecution.Before(out[j].NextExecution)
	})
	return out, nil
}

func (m *MemStore) UpdateSchedule(id int, patch SchedulePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return apperr.NotFound("schedule", strconv.Itoa(id))
	}
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if patch.ActionType != nil {
		s.ActionType = *patch.ActionType
	}
	if patch.DeviceUUID != nil {
		s.DeviceUUID = patch.DeviceUUID
	}
	if patch.CompanyID != nil {
		s.CompanyID = patch.CompanyID
	}
	if patch.Value != nil {
		s.Value = *patch.Value
	}
	if patch.CronExpr != nil {
		s.CronExpr = *patch.CronExpr
	}
	if patch.NextExecution != nil {
		s.NextExecution = *patch.NextExecution
	}
	s.UpdatedAt = time.Now()
	m.schedules[id] = s
	return nil
}

func (m *MemStore) SetScheduleEnabled(id int, enabled bool, next time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return apperr.NotFound("schedule", strconv.Itoa(id))
	}
	s.Enabled = enabled
	s.NextExecution = next
	s.UpdatedAt = time.Now()
	m.schedules[id] = s
	return nil
}

func (m *MemStore) MarkScheduleRun(id int, last, next time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return apperr.NotFound("schedule", strconv.Itoa(id))
	}
	s.LastExecuted = &last
	s.NextExecution = next
	s.UpdatedAt = time.Now()
	m.schedules[id] = s
	return nil
}

func (m *MemStore) DeleteSchedule(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return apperr.NotFound("schedule", strconv.Itoa(id))
	}
	delete(m.schedules, id)
	return nil
}

func (m *MemStore) GetCompanyByID(id int) (model.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return model.Company{}, apperr.NotFound("company", strconv.Itoa(id))
	}
	return c, nil
}

func (m *MemStore) ListCompanies() ([]model.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Company, 0, len(m.companies))
	for _, c := range m.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
