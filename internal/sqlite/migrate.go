package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// migrateTo makes the live schema match schemaDefinition declaratively.
//
// The target schema is created in an attached in-memory database and diffed against the live schema. Removed
// tables are dropped, new ones created and changed ones rebuilt with the procedure from
// https://www.sqlite.org/lang_altertable.html#otheralter, keeping the columns both versions share. Indexes and
// triggers are synchronised afterwards.
//
// Inspired by https://david.rothlis.net/declarative-schema-migration-for-sqlite/
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) (err error) {
	start := time.Now()

	detach, err := db.attachSchemaTarget(ctx, schemaDefinition)
	if err != nil {
		return fmt.Errorf("attach schema target: %w", err)
	}
	defer detach()

	// Rebuilding a table breaks foreign keys pointing at it for a moment.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(context.WithoutCancel(ctx), "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, fmt.Errorf("enable foreign keys: %w", fkErr))
		}
	}()

	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer db.Rollback(ctx, tx)

	var live, target schemaSnapshot
	if live, err = loadSchema(ctx, tx, "main"); err != nil {
		return fmt.Errorf("load live schema: %w", err)
	}
	if target, err = loadSchema(ctx, tx, "schemaTarget"); err != nil {
		return fmt.Errorf("load target schema: %w", err)
	}
	if err = db.syncTables(ctx, tx, diffSchema(live, target, "table")); err != nil {
		return fmt.Errorf("sync tables: %w", err)
	}

	// Dropping and rebuilding tables takes their indexes and triggers with them.
	if live, err = loadSchema(ctx, tx, "main"); err != nil {
		return fmt.Errorf("reload live schema: %w", err)
	}
	for _, typ := range []string{"index", "trigger"} {
		if err = db.syncObjects(ctx, tx, typ, diffSchema(live, target, typ)); err != nil {
			return fmt.Errorf("sync %s: %w", typ, err)
		}
	}

	if err = checkForeignKeys(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// attachSchemaTarget creates the target schema in a fresh in-memory database and attaches it as schemaTarget.
func (db *Database) attachSchemaTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	target, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	// The attached connection keeps the shared in-memory database alive after this handle closes.
	defer func() {
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "close schema target", slog.Any("error", closeErr))
		}
	}()
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("create target schema: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", dsn); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(context.WithoutCancel(ctx),
			"DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "detach schema target", slog.Any("error", detachErr))
		}
	}, nil
}

type schemaObject struct {
	typ  string
	name string
	sql  string
}

// schemaSnapshot maps type and name to the object.
type schemaSnapshot map[[2]string]schemaObject

func loadSchema(ctx context.Context, tx *sql.Tx, database string) (schemaSnapshot, error) {
	// Internal objects have no SQL or are owned by SQLite or Litestream.
	query := fmt.Sprintf(`SELECT type, name, sql
FROM %s.sqlite_schema
WHERE type IN ('table', 'index', 'trigger')
  AND sql IS NOT NULL
  AND name NOT LIKE 'sqlite_%%'
  AND name NOT LIKE '_litestream_%%'`, database)
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s schema: %w", database, err)
	}
	defer rows.Close()
	snapshot := make(schemaSnapshot)
	for rows.Next() {
		var o schemaObject
		if err = rows.Scan(&o.typ, &o.name, &o.sql); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		snapshot[[2]string{o.typ, o.name}] = o
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return snapshot, nil
}

// schemaDiff lists what has to change for one object type.
type schemaDiff struct {
	dropped []schemaObject
	created []schemaObject
	// changed holds the target version of objects whose definition differs.
	changed []schemaObject
}

// normalizeSQL ignores the quotes that ALTER TABLE RENAME adds around table names.
func normalizeSQL(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}

func diffSchema(live, target schemaSnapshot, typ string) schemaDiff {
	var d schemaDiff
	for key, l := range live {
		if key[0] != typ {
			continue
		}
		t, ok := target[key]
		switch {
		case !ok:
			d.dropped = append(d.dropped, l)
		case normalizeSQL(l.sql) != normalizeSQL(t.sql):
			d.changed = append(d.changed, t)
		}
	}
	for key, t := range target {
		if key[0] != typ {
			continue
		}
		if _, ok := live[key]; !ok {
			d.created = append(d.created, t)
		}
	}
	// Map iteration order is random. Schema files are written so that creation in name order is valid.
	for _, list := range [][]schemaObject{d.dropped, d.created, d.changed} {
		sort.Slice(list, func(i, j int) bool { return list[i].name < list[j].name })
	}
	return d
}

func (db *Database) exec(ctx context.Context, tx *sql.Tx, msg string, query string, args ...any) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, msg, slog.String("query", query))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return nil
}

func (db *Database) syncTables(ctx context.Context, tx *sql.Tx, d schemaDiff) error {
	for _, t := range d.dropped {
		if err := db.exec(ctx, tx, "drop table", fmt.Sprintf(`DROP TABLE "%s"`, t.name)); err != nil {
			return err
		}
	}
	for _, t := range d.created {
		if err := db.exec(ctx, tx, "create table", t.sql); err != nil {
			return err
		}
	}
	for _, t := range d.changed {
		if err := db.rebuildTable(ctx, tx, t); err != nil {
			return fmt.Errorf("rebuild %s: %w", t.name, err)
		}
	}
	return nil
}

// rebuildTable creates the new definition under a temporary name, copies the shared columns over and swaps the
// tables.
func (db *Database) rebuildTable(ctx context.Context, tx *sql.Tx, target schemaObject) error {
	tempName := target.name + "_migration_temp"
	createSQL := strings.Replace(target.sql, target.name, tempName, 1)
	if err := db.exec(ctx, tx, "create rebuilt table", createSQL); err != nil {
		return err
	}

	rows, err := tx.QueryContext(ctx, `SELECT '"' || live.name || '"'
FROM PRAGMA_TABLE_INFO(:table) AS live
JOIN PRAGMA_TABLE_INFO(:table, 'schemaTarget') AS target ON target.name = live.name`,
		sql.Named("table", target.name))
	if err != nil {
		return fmt.Errorf("query common columns: %w", err)
	}
	var columns []string
	for rows.Next() {
		var c string
		if err = rows.Scan(&c); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}
	if err = errors.Join(rows.Err(), rows.Close()); err != nil {
		return fmt.Errorf("common columns: %w", err)
	}

	if len(columns) > 0 {
		common := strings.Join(columns, ", ")
		copySQL := fmt.Sprintf(`INSERT INTO "%s" (%s) SELECT %s FROM "%s"`, tempName, common, common, target.name)
		if err = db.exec(ctx, tx, "copy rows", copySQL); err != nil {
			return err
		}
	}
	if err = db.exec(ctx, tx, "drop old table", fmt.Sprintf(`DROP TABLE "%s"`, target.name)); err != nil {
		return err
	}
	return db.exec(ctx, tx, "rename rebuilt table",
		fmt.Sprintf(`ALTER TABLE "%s" RENAME TO "%s"`, tempName, target.name))
}

func (db *Database) syncObjects(ctx context.Context, tx *sql.Tx, typ string, d schemaDiff) error {
	drop := func(name string) error {
		return db.exec(ctx, tx, "drop "+typ, fmt.Sprintf(`DROP %s "%s"`, strings.ToUpper(typ), name))
	}
	for _, o := range d.dropped {
		if err := drop(o.name); err != nil {
			return err
		}
	}
	for _, o := range d.changed {
		if err := drop(o.name); err != nil {
			return err
		}
		if err := db.exec(ctx, tx, "recreate "+typ, o.sql); err != nil {
			return err
		}
	}
	for _, o := range d.created {
		if err := db.exec(ctx, tx, "create "+typ, o.sql); err != nil {
			return err
		}
	}
	return nil
}

func checkForeignKeys(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	violations := 0
	for rows.Next() {
		violations++
	}
	if err = errors.Join(rows.Err(), rows.Close()); err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	if violations > 0 {
		return fmt.Errorf("foreign key check: %d violations", violations)
	}
	return nil
}
