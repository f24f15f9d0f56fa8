package redisstore

import "time"

// SetNow overrides the store clock for deterministic scores in tests.
func (s *Store) SetNow(now func() time.Time) {
	s.now = now
}
