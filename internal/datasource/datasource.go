// Package datasource runs one-shot queries against a relational database and
// materializes the result as an in-memory table.
package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // registers "sqlite"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config describes how to reach the database. For sqlite only Database (a file
// path) is used.
type Config struct {
	Driver       string
	Host         string
	Port         int
	Database     string
	User         string
	Password     string
	SSLMode      string
	QueryTimeout time.Duration
}

// Table is a tabular query result. Rows preserve source order and every row
// has one value per column.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Column returns the values of the named column in row order.
func (t *Table) Column(name string) ([]any, bool) {
	if t == nil {
		return nil, false
	}
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out, true
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Source is a database handle that opens a fresh connection for every query
// and closes it before returning. It holds no connection between calls.
type Source struct {
	cfg        Config
	driverName string
	dsn        string
	log        zerolog.Logger
}

// Open validates cfg and returns a Source. It performs no I/O.
func Open(cfg Config, logger zerolog.Logger) (*Source, error) {
	s := &Source{cfg: cfg, log: logger.With().Str("component", "datasource").Logger()}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverPostgres, "postgresql", "pgx", "":
		s.cfg.Driver = DriverPostgres
		s.driverName = "pgx"
		s.dsn = postgresDSN(cfg)
	case DriverSQLite, "sqlite3":
		if strings.TrimSpace(cfg.Database) == "" {
			return nil, fmt.Errorf("sqlite: database file path is required")
		}
		s.cfg.Driver = DriverSQLite
		s.driverName = "sqlite"
		s.dsn = cfg.Database
	default:
		return nil, fmt.Errorf("unsupported driver: %s (use postgres or sqlite)", cfg.Driver)
	}
	return s, nil
}

// Driver returns the normalized driver name.
func (s *Source) Driver() string { return s.cfg.Driver }

// Name identifies the source in messages (database name, or file path for sqlite).
func (s *Source) Name() string { return s.cfg.Database }

func postgresDSN(cfg Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port <= 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + cfg.Database,
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	if cfg.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", cfg.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Query opens a connection, runs query, reads every row and closes the
// connection. Failures are returned as *Error.
func (s *Source) Query(ctx context.Context, query string) (*Table, error) {
	if s.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()
	}
	start := time.Now()

	db, err := sql.Open(s.driverName, s.dsn)
	if err != nil {
		return nil, &Error{Op: "connect", Err: err}
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, &Error{Op: "connect", Err: err}
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, &Error{Op: "query", Query: query, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &Error{Op: "query", Query: query, Err: err}
	}
	out := &Table{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &Error{Op: "scan", Query: query, Err: err}
		}
		out.Rows = append(out.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "scan", Query: query, Err: err}
	}

	s.log.Debug().
		Str("query", query).
		Int("rows", len(out.Rows)).
		Dur("elapsed", time.Since(start)).
		Msg("query complete")
	return out, nil
}
