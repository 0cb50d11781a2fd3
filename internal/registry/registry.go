// Package registry persists named (source, table-description) triples so a
// host can reload a previously-registered expression without re-describing
// its variable/const bindings by hand (SPEC_FULL.md §6.2, §6.4). It never
// persists compiled machine code, function pointers or Slab contents: all
// three are process-local and address-dependent, so a reload always goes
// back through the parser/analysis/codegen pipeline. Host functions, which
// carry a raw Go function pointer, are not described here either; the host
// re-registers them on the Table it builds at load time.
package registry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"hoteval/internal/value"
)

// Registry is a connection to a SQL backend holding the hot_eval_expressions
// table. Adapted from the teacher's internal/database DBManager: a single
// connection rather than a pool keyed by connection id, since a registry has
// exactly one backing store for its lifetime.
type Registry struct {
	db     *sql.DB
	driver string
}

// VariableDescription is one named runtime-variable slot of a persisted
// Table, enough for a host to recreate the binding with Table.AddVariable.
type VariableDescription struct {
	Name string          `json:"name"`
	Type value.ValueType `json:"type"`
}

// ConstDescription is one named compile-time constant of a persisted Table.
// The value is stored as its raw bit pattern (AsUint64) or float64
// (AsFloat64) alongside its ValueType tag, since value.Value itself carries
// an unexported payload that cannot round-trip through JSON directly.
type ConstDescription struct {
	Name  string          `json:"name"`
	Type  value.ValueType `json:"type"`
	Int   uint64          `json:"int,omitempty"`
	Float float64         `json:"float,omitempty"`
}

// TableDescription is the serializable shape of the non-function part of a
// binding.Table: variables and named constants. Host functions are excluded
// because a function pointer has no meaning once persisted and reloaded.
type TableDescription struct {
	Variables []VariableDescription `json:"variables,omitempty"`
	Consts    []ConstDescription    `json:"consts,omitempty"`
}

// Entry is one stored (name, source, table-description) triple.
type Entry struct {
	Name       string
	Source     string
	Table      TableDescription
	Registered time.Time
}

// Open opens (or creates) a registry backend. driverName is one of
// "sqlite3", "postgres", "mysql" or "sqlserver", matching the host function
// drivers already wired into go.mod.
func Open(driverName, dsn string) (*Registry, error) {
	switch driverName {
	case "sqlite3", "postgres", "mysql", "sqlserver":
	default:
		return nil, fmt.Errorf("registry: unsupported driver %q", driverName)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to open %s: %w", driverName, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: failed to ping %s: %w", driverName, err)
	}

	r := &Registry{db: db, driver: driverName}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// placeholder returns the n'th (1-based) bind-parameter marker for r's
// driver: sqlite3 and mysql both accept the ordinal "?" mark, postgres
// requires a numbered "$n", and sqlserver requires a numbered "@pn".
func (r *Registry) placeholder(n int) string {
	switch r.driver {
	case "postgres":
		return fmt.Sprintf("$%d", n)
	case "sqlserver":
		return fmt.Sprintf("@p%d", n)
	default:
		return "?"
	}
}

// upsertStmt builds the INSERT ... ON CONFLICT/DUPLICATE/MERGE statement for
// r's driver, since the three families disagree both on upsert syntax and on
// bind-parameter style.
func (r *Registry) upsertStmt() string {
	p1, p2, p3, p4 := r.placeholder(1), r.placeholder(2), r.placeholder(3), r.placeholder(4)
	switch r.driver {
	case "mysql":
		return fmt.Sprintf(`
			INSERT INTO hot_eval_expressions (name, source, table_desc, registered)
			VALUES (%s, %s, %s, %s)
			ON DUPLICATE KEY UPDATE source = VALUES(source), table_desc = VALUES(table_desc), registered = VALUES(registered)
		`, p1, p2, p3, p4)
	case "sqlserver":
		return fmt.Sprintf(`
			MERGE INTO hot_eval_expressions AS target
			USING (SELECT %s AS name, %s AS source, %s AS table_desc, %s AS registered) AS src
			ON target.name = src.name
			WHEN MATCHED THEN UPDATE SET source = src.source, table_desc = src.table_desc, registered = src.registered
			WHEN NOT MATCHED THEN INSERT (name, source, table_desc, registered) VALUES (src.name, src.source, src.table_desc, src.registered)
		`, p1, p2, p3, p4)
	default:
		// sqlite3 and postgres share ON CONFLICT syntax.
		return fmt.Sprintf(`
			INSERT INTO hot_eval_expressions (name, source, table_desc, registered)
			VALUES (%s, %s, %s, %s)
			ON CONFLICT (name) DO UPDATE SET source = excluded.source, table_desc = excluded.table_desc, registered = excluded.registered
		`, p1, p2, p3, p4)
	}
}

func (r *Registry) migrate() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS hot_eval_expressions (
			name        TEXT PRIMARY KEY,
			source      TEXT NOT NULL,
			table_desc  TEXT NOT NULL,
			registered  TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("registry: migration failed: %w", err)
	}
	return nil
}

// Store persists source and desc under name, overwriting any prior entry of
// the same name.
func (r *Registry) Store(name, source string, desc TableDescription) error {
	encoded, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("registry: failed to encode table description: %w", err)
	}

	_, err = r.db.Exec(r.upsertStmt(), name, source, string(encoded), time.Now())
	if err != nil {
		return fmt.Errorf("registry: failed to store %q: %w", name, err)
	}
	return nil
}

// Load retrieves a previously stored entry by name.
func (r *Registry) Load(name string) (Entry, error) {
	var (
		source    string
		encoded   string
		registered time.Time
	)
	row := r.db.QueryRow(fmt.Sprintf(`SELECT source, table_desc, registered FROM hot_eval_expressions WHERE name = %s`, r.placeholder(1)), name)
	if err := row.Scan(&source, &encoded, &registered); err != nil {
		if err == sql.ErrNoRows {
			return Entry{}, fmt.Errorf("registry: no entry named %q", name)
		}
		return Entry{}, fmt.Errorf("registry: failed to load %q: %w", name, err)
	}

	var desc TableDescription
	if err := json.Unmarshal([]byte(encoded), &desc); err != nil {
		return Entry{}, fmt.Errorf("registry: failed to decode table description for %q: %w", name, err)
	}

	return Entry{Name: name, Source: source, Table: desc, Registered: registered}, nil
}

// List returns every stored entry's name.
func (r *Registry) List() ([]string, error) {
	rows, err := r.db.Query(`SELECT name FROM hot_eval_expressions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to list entries: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes a stored entry by name.
func (r *Registry) Delete(name string) error {
	_, err := r.db.Exec(fmt.Sprintf(`DELETE FROM hot_eval_expressions WHERE name = %s`, r.placeholder(1)), name)
	if err != nil {
		return fmt.Errorf("registry: failed to delete %q: %w", name, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (r *Registry) Close() error {
	return r.db.Close()
}
