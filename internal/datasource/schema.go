package datasource

import (
	"fmt"
	"strings"
)

// NumericTypes are the declared SQL types treated as numeric.
var NumericTypes = []string{
	"smallint", "integer", "bigint", "decimal", "numeric", "real", "double precision",
	"smallserial", "serial", "bigserial", "money",
}

// TemporalTypes are the declared SQL types treated as time series keys.
// information_schema spells timestamp and time out with their zone variant.
var TemporalTypes = []string{
	"time", "timestamp", "date",
	"timestamp without time zone", "timestamp with time zone",
	"time without time zone", "time with time zone",
}

// ColumnsQuery returns the metadata query listing the columns of table whose
// declared type is one of types. The result has a single column_name column.
func (s *Source) ColumnsQuery(table string, types []string) string {
	in := make([]string, len(types))
	for i, t := range types {
		in[i] = quoteLiteral(strings.ToLower(t))
	}
	list := strings.Join(in, ", ")
	if s.cfg.Driver == DriverSQLite {
		return fmt.Sprintf("SELECT name AS column_name FROM pragma_table_info(%s) WHERE lower(type) IN (%s) ORDER BY cid",
			quoteLiteral(table), list)
	}
	return fmt.Sprintf("SELECT column_name FROM information_schema.columns WHERE table_name = %s AND data_type IN (%s) ORDER BY ordinal_position",
		quoteLiteral(table), list)
}

// SelectAllQuery returns the unfiltered select over table.
func (s *Source) SelectAllQuery(table string) string {
	return "SELECT * FROM " + quoteIdent(table)
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
