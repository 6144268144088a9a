// Package datarecording persists simulation results in a SQLite database so
// that sweeps can be compared after the fact with plain SQL.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// A DataRecorder records flat structs as rows of database tables.
type DataRecorder interface {
	// CreateTable creates a table whose columns are the fields of
	// sampleEntry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers one entry of the table's struct type for writing.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all created tables.
	ListTables() []string

	// Flush writes all buffered entries to the database.
	Flush()
}

// batchSize is the number of buffered entries that triggers an implicit
// flush.
const batchSize = 100000

// New creates a DataRecorder backed by the SQLite database at path +
// ".sqlite3". An empty path picks a fresh generated name. The recorder
// flushes pending rows at process exit.
func New(path string) DataRecorder {
	if path == "" {
		path = "cachesim_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	fmt.Fprintf(os.Stderr, "Recording results to %s\n", filename)

	r := &sqliteRecorder{
		db:     db,
		tables: make(map[string]*table),
	}

	atexit.Register(func() { r.Flush() })

	return r
}

// NewWithDB creates a DataRecorder on an already opened database. The
// caller owns the connection; no exit hook is registered.
func NewWithDB(db *sql.DB) DataRecorder {
	return &sqliteRecorder{
		db:     db,
		tables: make(map[string]*table),
	}
}

type table struct {
	columns []string
	pending []any
}

type sqliteRecorder struct {
	db        *sql.DB
	tables    map[string]*table
	numQueued int
}

func (r *sqliteRecorder) CreateTable(tableName string, sampleEntry any) {
	mustBeFlatStruct(sampleEntry)

	columns := structs.Names(sampleEntry)
	stmt := "CREATE TABLE " + tableName +
		" (\n\t" + strings.Join(columns, ",\n\t") + "\n);"
	r.mustExecute(stmt)

	r.tables[tableName] = &table{columns: columns}
}

func (r *sqliteRecorder) InsertData(tableName string, entry any) {
	t, ok := r.tables[tableName]
	if !ok {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	t.pending = append(t.pending, entry)

	r.numQueued++
	if r.numQueued >= batchSize {
		r.Flush()
	}
}

func (r *sqliteRecorder) ListTables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}

	return names
}

func (r *sqliteRecorder) Flush() {
	if r.numQueued == 0 {
		return
	}

	r.mustExecute("BEGIN TRANSACTION")
	defer r.mustExecute("COMMIT TRANSACTION")

	for name, t := range r.tables {
		r.flushTable(name, t)
	}

	r.numQueued = 0
}

func (r *sqliteRecorder) flushTable(name string, t *table) {
	if len(t.pending) == 0 {
		return
	}

	placeholders := strings.TrimSuffix(
		strings.Repeat("?, ", len(t.columns)), ", ")
	stmt, err := r.db.Prepare(
		"INSERT INTO " + name + " VALUES (" + placeholders + ")")
	if err != nil {
		panic(err)
	}
	defer stmt.Close()

	for _, entry := range t.pending {
		if _, err := stmt.Exec(structs.Values(entry)...); err != nil {
			panic(err)
		}
	}

	t.pending = nil
}

func (r *sqliteRecorder) mustExecute(query string) {
	if _, err := r.db.Exec(query); err != nil {
		panic(fmt.Errorf("failed to execute %q: %w", query, err))
	}
}

// mustBeFlatStruct rejects entries with non-scalar fields, which have no
// direct SQLite column representation.
func mustBeFlatStruct(entry any) {
	entryType := reflect.TypeOf(entry)

	for i := 0; i < entryType.NumField(); i++ {
		switch entryType.Field(i).Type.Kind() {
		case reflect.Bool,
			reflect.Int, reflect.Int8, reflect.Int16,
			reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16,
			reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64,
			reflect.String:
			// Storable as-is.
		default:
			panic(fmt.Sprintf(
				"field %s cannot be stored in a database column",
				entryType.Field(i).Name))
		}
	}
}
