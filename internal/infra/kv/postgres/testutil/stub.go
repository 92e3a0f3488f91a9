// Package testutil provides a stub database/sql driver that understands the
// handful of statements issued by the postgres kv store.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

var stubSeq uint64

// StubConn records statements and keeps the state table in a map.
type StubConn struct {
	mu       sync.Mutex
	Execs    []string
	Entries  map[string]string
	FailPing bool
	FailExec bool
}

// NewStubDB registers a uniquely named driver and returns a sql.DB backed by
// a single shared StubConn.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Entries: make(map[string]string)}
	name := fmt.Sprintf("stubpg%d", atomic.AddUint64(&stubSeq, 1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) { return stubTx{}, nil }

// Ping implements driver.Pinger.
func (c *StubConn) Ping(context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	switch verb(query) {
	case "CREATE":
		return driver.RowsAffected(0), nil
	case "INSERT":
		if len(args) != 2 {
			return nil, fmt.Errorf("insert expects 2 args, got %d", len(args))
		}
		c.Entries[fmt.Sprint(args[0].Value)] = fmt.Sprint(args[1].Value)
		return driver.RowsAffected(1), nil
	case "DELETE":
		key := fmt.Sprint(args[0].Value)
		if _, ok := c.Entries[key]; !ok {
			return driver.RowsAffected(0), nil
		}
		delete(c.Entries, key)
		return driver.RowsAffected(1), nil
	}
	return nil, fmt.Errorf("unsupported exec: %s", query)
}

// QueryContext implements driver.QueryerContext.
func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if verb(query) != "SELECT" || len(args) != 1 {
		return nil, fmt.Errorf("unsupported query: %s", query)
	}
	arg := fmt.Sprint(args[0].Value)
	lower := strings.ToLower(query)
	switch {
	case strings.HasPrefix(lower, "select payload"):
		rows := &stubRows{cols: []string{"payload"}}
		if v, ok := c.Entries[arg]; ok {
			rows.rows = [][]driver.Value{{v}}
		}
		return rows, nil
	case strings.HasPrefix(lower, "select bucket"):
		var keys []string
		for k := range c.Entries {
			if strings.HasPrefix(k, arg) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		rows := &stubRows{cols: []string{"bucket"}}
		for _, k := range keys {
			rows.rows = append(rows.rows, []driver.Value{k})
		}
		return rows, nil
	}
	return nil, fmt.Errorf("unsupported query: %s", query)
}

func verb(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
