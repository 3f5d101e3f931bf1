package auction

import "time"

// SetClock overrides the engine clock for tests.
func SetClock(m *Manager, now func() time.Time) {
	m.now = now
}
