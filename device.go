package authcore

import "github.com/propertyhub/authcore/internal"

// DeviceID returns the stable per-device identifier, generating and
// persisting one if none exists yet. Generation cannot fail; a storage
// write failure is logged by the persistence effect and the id stays
// valid in memory.
func (m *Manager) DeviceID() string {
	return m.ensureDeviceID()
}

func (m *Manager) ensureDeviceID() string {
	if id := m.store.Snapshot().DeviceID; id != "" {
		return id
	}
	id := internal.NewDeviceID()
	m.store.SetDeviceID(id)
	m.log.Debug().Str("device_id", id).Msg("generated device identifier")
	return id
}
