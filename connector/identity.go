package connector

import "sync"

// IdentityMap translates a terminal's enrollment user id to the employee
// business code used by the rest of the system. Mappings come from device
// profile configuration and can be upserted at runtime without restarting
// sessions; reads dominate.
type IdentityMap struct {
	mu       sync.RWMutex
	byDevice map[int]string
}

func NewIdentityMap(seed map[int]string) *IdentityMap {
	m := &IdentityMap{byDevice: make(map[int]string, len(seed))}
	for id, code := range seed {
		m.byDevice[id] = code
	}
	return m
}

func (m *IdentityMap) Resolve(deviceUserID int) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code, ok := m.byDevice[deviceUserID]
	return code, ok
}

// Update upserts one mapping. Idempotent.
func (m *IdentityMap) Update(deviceUserID int, employeeCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byDevice[deviceUserID] = employeeCode
}

func (m *IdentityMap) Snapshot() map[int]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int]string, len(m.byDevice))
	for id, code := range m.byDevice {
		out[id] = code
	}
	return out
}
