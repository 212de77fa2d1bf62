package db

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/oakwood-commons/dbdrill/internal/value"
)

// Dialect selects the driver and parameter encoding.
type Dialect int

const (
	Postgres Dialect = iota + 1
	SQLite
)

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

// Driver is the database/sql driver name.
func (d Dialect) Driver() string {
	switch d {
	case SQLite:
		return "sqlite"
	default:
		return "postgres"
	}
}

// DetectDialect picks a dialect from a DSN and returns the DSN to hand to the driver.
//
//	postgres://..., postgresql://..., "host=... dbname=..."  -> Postgres
//	sqlite://path, sqlite:path, file:..., :memory:, *.db, *.sqlite, *.sqlite3 -> SQLite
func DetectDialect(dsn string) (Dialect, string, error) {
	s := strings.TrimSpace(dsn)
	lower := strings.ToLower(s)
	switch {
	case s == "":
		return 0, "", fmt.Errorf("empty database DSN")
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Postgres, s, nil
	case strings.HasPrefix(lower, "sqlite://"):
		return SQLite, s[len("sqlite://"):], nil
	case strings.HasPrefix(lower, "sqlite:"):
		return SQLite, s[len("sqlite:"):], nil
	case strings.HasPrefix(lower, "file:"), s == ":memory:":
		return SQLite, s, nil
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return SQLite, s, nil
	case strings.Contains(lower, "dbname=") || strings.Contains(lower, "host="):
		return Postgres, s, nil
	default:
		return 0, "", fmt.Errorf("unrecognized database DSN %q: use postgres://... or sqlite://path", redact(s))
	}
}

// redact hides a password in URL-style DSNs for error messages.
func redact(dsn string) string {
	at := strings.LastIndexByte(dsn, '@')
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if i := strings.IndexByte(creds, ':'); i >= 0 {
		return dsn[:scheme+3] + creds[:i] + ":***" + dsn[at:]
	}
	return dsn
}

// bind converts a value into a driver argument.
// Postgres receives arrays through pq.Array; SQLite receives them as JSON text
// for use with json_each.
func (d Dialect) bind(v value.Value) (any, error) {
	switch x := v.(type) {
	case nil, value.Null:
		return nil, nil
	case value.Text:
		return string(x), nil
	case value.Integer:
		return int64(x), nil
	case value.Float:
		return float64(x), nil
	case value.Bool:
		return bool(x), nil
	case value.JSON:
		data, err := json.Marshal(x.Tree)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	case value.TextArray:
		return d.array([]string(x), pq.StringArray(x))
	case value.IntegerArray:
		return d.array([]int64(x), pq.Int64Array(x))
	case value.FloatArray:
		return d.array([]float64(x), pq.Float64Array(x))
	case value.BoolArray:
		return d.array([]bool(x), pq.BoolArray(x))
	case value.JSONArray:
		docs := make([]string, len(x))
		for i, tree := range x {
			data, err := json.Marshal(tree)
			if err != nil {
				return nil, err
			}
			docs[i] = string(data)
		}
		if d == SQLite {
			return d.array([]any(x), nil)
		}
		return pq.StringArray(docs), nil
	default:
		return nil, fmt.Errorf("unsupported value kind %s", v.Kind())
	}
}

func (d Dialect) array(elems any, pg any) (any, error) {
	if d != SQLite {
		return pg, nil
	}
	data, err := json.Marshal(elems)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return "[]", nil
	}
	return string(data), nil
}
