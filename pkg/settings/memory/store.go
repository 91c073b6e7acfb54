package memory

import (
	"codeberg.org/miketth/imswitch/pkg/settings"
	"sync"
)

// Store keeps settings in memory only.
type Store struct {
	settings.Notifier

	lock   sync.Mutex
	values map[string]map[string]settings.Value
	writes int
}

func NewStore() *Store {
	return &Store{
		values: make(map[string]map[string]settings.Value),
	}
}

func (s *Store) Get(section, key string) (settings.Value, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	value, ok := s.values[section][key]
	if !ok {
		return settings.Value{}, settings.ErrNotFound
	}
	return value, nil
}

func (s *Store) Set(section, key string, value settings.Value) error {
	s.lock.Lock()
	values, ok := s.values[section]
	if !ok {
		values = make(map[string]settings.Value)
		s.values[section] = values
	}
	old, existed := values[key]
	values[key] = value
	s.writes++
	s.lock.Unlock()

	if existed && old.Equal(value) {
		return nil
	}

	s.Publish(settings.Change{Section: section, Key: key, Value: value})
	return nil
}

// Writes counts calls to Set, including no-op ones.
func (s *Store) Writes() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.writes
}
