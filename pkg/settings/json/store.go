package json

import (
	"codeberg.org/miketth/imswitch/pkg/settings"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Store keeps settings in memory and writes them to a JSON file from
// SaveLooper, and once more on shutdown.
type Store struct {
	settings.Notifier

	values map[string]map[string]settings.Value
	file   *os.File
	lock   sync.Mutex
	dirty  bool
}

func NewStore(filename string) (*Store, error) {
	fileExists := true
	info, err := os.Stat(filename)
	if os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		fileExists = false
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	store := &Store{
		values: make(map[string]map[string]settings.Value),
		file:   file,
		dirty:  true,
	}

	if fileExists {
		err = store.load()
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("load: %w", err)
		}

		store.dirty = false
	}

	return store, nil
}

func (s *Store) Close() error {
	if err := s.save(); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return s.file.Close()
}

func (s *Store) load() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	_, err := s.file.Seek(0, 0)
	if err != nil {
		return fmt.Errorf("seek to start of file: %w", err)
	}

	dec := json.NewDecoder(s.file)
	err = dec.Decode(&s.values)
	if err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	if s.values == nil {
		s.values = make(map[string]map[string]settings.Value)
	}

	return nil
}

func (s *Store) save() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.dirty {
		return nil
	}

	_, err := s.file.Seek(0, 0)
	if err != nil {
		return fmt.Errorf("seek to start of file: %w", err)
	}

	err = s.file.Truncate(0)
	if err != nil {
		return fmt.Errorf("truncate file: %w", err)
	}

	enc := json.NewEncoder(s.file)
	enc.SetIndent("", "  ")
	err = enc.Encode(s.values)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	s.dirty = false

	return nil
}

func (s *Store) SaveLooper(ctx context.Context, interval time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			err := s.save()
			if err != nil {
				return fmt.Errorf("save: %w", err)
			}

			return ctx.Err()
		case <-time.After(interval):
			err := s.save()
			if err != nil {
				return fmt.Errorf("save: %w", err)
			}
		}
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
	values := s.values[section]
	if values == nil {
		values = make(map[string]settings.Value)
		s.values[section] = values
	}
	old, existed := values[key]
	values[key] = value
	s.dirty = true
	s.lock.Unlock()

	if existed && old.Equal(value) {
		return nil
	}

	s.Publish(settings.Change{Section: section, Key: key, Value: value})
	return nil
}
