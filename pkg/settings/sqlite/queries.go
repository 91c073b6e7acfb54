package sqlite

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type Setting struct {
	Section   string
	Key       string
	Kind      int64
	Value     string
	UpdatedAt int64
}

const getSetting = `-- name: GetSetting :one
select section, key, kind, value, updated_at from settings
where section = ? and key = ?
`

func (q *Queries) GetSetting(ctx context.Context, section, key string) (Setting, error) {
	row := q.db.QueryRowContext(ctx, getSetting, section, key)
	var i Setting
	err := row.Scan(&i.Section, &i.Key, &i.Kind, &i.Value, &i.UpdatedAt)
	return i, err
}

const setSetting = `-- name: SetSetting :exec
insert into settings (section, key, kind, value, updated_at)
values (?, ?, ?, ?, ?)
on conflict (section, key) do update
set kind = excluded.kind, value = excluded.value, updated_at = excluded.updated_at
`

type SetSettingParams struct {
	Section   string
	Key       string
	Kind      int64
	Value     string
	UpdatedAt int64
}

func (q *Queries) SetSetting(ctx context.Context, arg SetSettingParams) error {
	_, err := q.db.ExecContext(ctx, setSetting, arg.Section, arg.Key, arg.Kind, arg.Value, arg.UpdatedAt)
	return err
}

const dumpTables = `-- name: DumpTables :many
select sql from sqlite_master
where type = 'table' and name not like 'sqlite_%'
order by name
`

func (q *Queries) DumpTables(ctx context.Context) ([]*string, error) {
	return q.dumpStrings(ctx, dumpTables)
}

const dumpRest = `-- name: DumpRest :many
select sql from sqlite_master
where type != 'table' and name not like 'sqlite_%'
order by name
`

func (q *Queries) DumpRest(ctx context.Context) ([]*string, error) {
	return q.dumpStrings(ctx, dumpRest)
}

func (q *Queries) dumpStrings(ctx context.Context, query string) ([]*string, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*string
	for rows.Next() {
		var stmt *string
		if err := rows.Scan(&stmt); err != nil {
			return nil, err
		}
		items = append(items, stmt)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
