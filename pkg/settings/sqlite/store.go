package sqlite

import (
	"codeberg.org/miketth/imswitch/pkg/settings"
	"codeberg.org/miketth/imswitch/pkg/settings/sqlite/migrations"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"time"
)

type Store struct {
	settings.Notifier

	db      *sql.DB
	querier *Queries
}

func NewStore(filename string, log *zap.SugaredLogger) (*Store, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := migrations.Migrate(db, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{
		db:      db,
		querier: New(db),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(section, key string) (settings.Value, error) {
	row, err := s.querier.GetSetting(context.Background(), section, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return settings.Value{}, settings.ErrNotFound
	case err != nil:
		return settings.Value{}, fmt.Errorf("sqlite select: %w", err)
	}

	var value settings.Value
	if err := json.Unmarshal([]byte(row.Value), &value); err != nil {
		return settings.Value{}, fmt.Errorf("decode %s/%s: %w", section, key, err)
	}
	value.Kind = settings.Kind(row.Kind)

	return value, nil
}

func (s *Store) Set(section, key string, value settings.Value) error {
	old, err := s.Get(section, key)
	existed := err == nil
	if err != nil && !errors.Is(err, settings.ErrNotFound) {
		return err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", section, key, err)
	}

	if err := s.querier.SetSetting(context.Background(), SetSettingParams{
		Section:   section,
		Key:       key,
		Kind:      int64(value.Kind),
		Value:     string(encoded),
		UpdatedAt: time.Now().Unix(),
	}); err != nil {
		return fmt.Errorf("sqlite update: %w", err)
	}

	if existed && old.Equal(value) {
		return nil
	}

	s.Publish(settings.Change{Section: section, Key: key, Value: value})
	return nil
}
