package tracing

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/ft4fttsim/ft4fttsim/sim"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// SQLiteTraceWriter is a writer that writes trace events to a SQLite
// database.
type SQLiteTraceWriter struct {
	*sql.DB
	statement *sql.Stmt

	dbName          string
	eventsToWriteDB []Event
	batchSize       int
}

// NewSQLiteTraceWriter creates a new SQLiteTraceWriter. The database is
// written to path + ".sqlite3". An empty path gives a unique name. Buffered
// events are flushed when the program exits through atexit.
func NewSQLiteTraceWriter(path string) *SQLiteTraceWriter {
	w := &SQLiteTraceWriter{
		dbName:    path,
		batchSize: 100000,
	}

	atexit.Register(func() { w.Flush() })

	return w
}

// WithBatchSize sets how many events are buffered before they are written.
func (t *SQLiteTraceWriter) WithBatchSize(n int) *SQLiteTraceWriter {
	if n < 1 {
		n = 1
	}

	t.batchSize = n

	return t
}

// DBName returns the name of the database file.
func (t *SQLiteTraceWriter) DBName() string {
	return t.dbName + ".sqlite3"
}

// Init creates the database and its table.
func (t *SQLiteTraceWriter) Init() {
	t.createDatabase()
	t.createTable()
	t.prepareStatement()
}

// Write buffers an event.
func (t *SQLiteTraceWriter) Write(event Event) {
	t.eventsToWriteDB = append(t.eventsToWriteDB, event)
	if len(t.eventsToWriteDB) >= t.batchSize {
		t.Flush()
	}
}

// Flush writes all the buffered events to the database.
func (t *SQLiteTraceWriter) Flush() {
	if len(t.eventsToWriteDB) == 0 {
		return
	}

	tx, err := t.Begin()
	if err != nil {
		panic(err)
	}

	stmt := tx.Stmt(t.statement)
	for _, e := range t.eventsToWriteDB {
		_, err := stmt.Exec(
			float64(e.Time),
			e.Location,
			e.What,
			int64(e.MsgID),
			e.Source,
			e.Destination,
			e.MsgType,
			e.SizeBytes,
			e.Detail,
		)
		if err != nil {
			panic(fmt.Errorf("tracing: failed to insert %+v: %w", e, err))
		}
	}

	if err := tx.Commit(); err != nil {
		panic(err)
	}

	t.eventsToWriteDB = nil
}

func (t *SQLiteTraceWriter) createDatabase() {
	if t.dbName == "" {
		t.dbName = "fttsim_trace_" + xid.New().String()
	}

	filename := t.DBName()
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	fmt.Fprintf(os.Stderr, "Trace is collected in database: %s\n", filename)

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	t.DB = db
}

func (t *SQLiteTraceWriter) createTable() {
	t.mustExecute(`
		create table trace
		(
			time        float        not null,
			location    varchar(200) not null,
			what        varchar(100) not null,
			msg_id      integer      default 0,
			source      varchar(200) default '',
			destination varchar(400) default '',
			msg_type    varchar(100) default '',
			size_bytes  integer      default 0,
			detail      text         default ''
		);
	`)

	t.mustExecute(`
		create index trace_time_index
			on trace (time);
	`)

	t.mustExecute(`
		create index trace_location_index
			on trace (location);
	`)

	t.mustExecute(`
		create index trace_msg_id_index
			on trace (msg_id);
	`)
}

func (t *SQLiteTraceWriter) prepareStatement() {
	sqlStr := `
		INSERT INTO trace
		(time, location, what, msg_id, source, destination, msg_type,
			size_bytes, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := t.Prepare(sqlStr)
	if err != nil {
		panic(err)
	}

	t.statement = stmt
}

func (t *SQLiteTraceWriter) mustExecute(query string) sql.Result {
	res, err := t.Exec(query)
	if err != nil {
		fmt.Printf("Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}

// SQLiteTraceReader is a reader that reads trace events from a SQLite
// database.
type SQLiteTraceReader struct {
	*sql.DB

	filename string
}

// NewSQLiteTraceReader creates a new SQLiteTraceReader.
func NewSQLiteTraceReader(filename string) *SQLiteTraceReader {
	r := &SQLiteTraceReader{
		filename: filename,
	}

	return r
}

// Init establishes a connection to the database.
func (r *SQLiteTraceReader) Init() {
	db, err := sql.Open("sqlite3", r.filename)
	if err != nil {
		panic(err)
	}

	r.DB = db
}

// ListLocations returns the ports, sublinks and devices that appear in the
// trace.
func (r *SQLiteTraceReader) ListLocations() []string {
	var locations []string

	rows, err := r.Query("SELECT DISTINCT location FROM trace ORDER BY location")
	if err != nil {
		panic(err)
	}
	defer func() {
		err := rows.Close()
		if err != nil {
			panic(err)
		}
	}()

	for rows.Next() {
		var location string
		err := rows.Scan(&location)
		if err != nil {
			panic(err)
		}
		locations = append(locations, location)
	}

	return locations
}

// ListEvents returns the events that match the query, in time order.
func (r *SQLiteTraceReader) ListEvents(query EventQuery) []Event {
	sqlStr, args := r.prepareEventQueryStr(query)

	rows, err := r.Query(sqlStr, args...)
	if err != nil {
		panic(err)
	}
	defer func() {
		err := rows.Close()
		if err != nil {
			panic(err)
		}
	}()

	events := []Event{}
	for rows.Next() {
		var (
			e     Event
			time  float64
			msgID int64
		)

		err := rows.Scan(&time, &e.Location, &e.What, &msgID, &e.Source,
			&e.Destination, &e.MsgType, &e.SizeBytes, &e.Detail)
		if err != nil {
			panic(err)
		}

		e.Time = sim.VTimeInUs(time)
		e.MsgID = uint64(msgID)
		events = append(events, e)
	}

	return events
}

func (r *SQLiteTraceReader) prepareEventQueryStr(
	query EventQuery,
) (string, []any) {
	sqlStr := `
		SELECT time, location, what, msg_id, source, destination, msg_type,
			size_bytes, detail
		FROM trace
	`

	var (
		conds []string
		args  []any
	)

	if query.Location != "" {
		conds = append(conds, "location = ?")
		args = append(args, query.Location)
	}

	if query.What != "" {
		conds = append(conds, "what = ?")
		args = append(args, query.What)
	}

	if query.MsgID != 0 {
		conds = append(conds, "msg_id = ?")
		args = append(args, int64(query.MsgID))
	}

	if query.EnableTimeRange {
		conds = append(conds, "time >= ?", "time <= ?")
		args = append(args, float64(query.StartTime), float64(query.EndTime))
	}

	if len(conds) > 0 {
		sqlStr += " WHERE " + strings.Join(conds, " AND ")
	}

	sqlStr += " ORDER BY time, rowid"

	return sqlStr, args
}
