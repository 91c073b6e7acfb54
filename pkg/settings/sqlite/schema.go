package sqlite

import (
	"codeberg.org/miketth/imswitch/pkg/settings/sqlite/migrations"
	"context"
	"database/sql"
	"fmt"
	"go.uber.org/zap"
	"io"
)

// DumpSchema migrates an empty in-memory database and writes the resulting
// schema statements to w.
func DumpSchema(ctx context.Context, w io.Writer, log *zap.SugaredLogger) error {
	db, err := sql.Open("sqlite3", "file:schema?cache=shared&mode=memory")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if err := migrations.Migrate(db, log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	q := New(db)
	tables, err := q.DumpTables(ctx)
	if err != nil {
		return fmt.Errorf("dump tables: %w", err)
	}
	rest, err := q.DumpRest(ctx)
	if err != nil {
		return fmt.Errorf("dump non-table statements: %w", err)
	}

	for _, statement := range append(tables, rest...) {
		if statement == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s;\n\n", *statement); err != nil {
			return fmt.Errorf("write schema: %w", err)
		}
	}
	return nil
}
