package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/oakwood-commons/dbdrill/internal/value"
)

// scanRows decodes every row using the column type names reported by the driver.
func scanRows(rows *sql.Rows) ([]value.Row, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	names := uniqueNames(cols)
	typeNames := make([]string, len(cols))
	for i, c := range cols {
		typeNames[i] = strings.ToUpper(c.DatabaseTypeName())
	}

	var out []value.Row
	raw := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		fields := make([]value.Column, len(cols))
		for i := range cols {
			v, err := decode(typeNames[i], raw[i])
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", names[i], err)
			}
			fields[i] = value.Col(names[i], v)
		}
		row, err := value.NewRow(fields...)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// uniqueNames suffixes repeated column names ("id", "id_2", ...) so rows stay uniquely keyed.
func uniqueNames(cols []*sql.ColumnType) []string {
	seen := make(map[string]int, len(cols))
	out := make([]string, len(cols))
	for i, c := range cols {
		name := c.Name()
		seen[name]++
		if n := seen[name]; n > 1 {
			name = name + "_" + strconv.Itoa(n)
			for seen[name] > 0 {
				name += "_"
			}
			seen[name]++
		}
		out[i] = name
	}
	return out
}

// decode maps one scanned driver value into a Value.
func decode(typeName string, raw any) (value.Value, error) {
	if raw == nil {
		return value.Null{}, nil
	}
	switch typeName {
	case "JSON", "JSONB":
		tree, err := value.DecodeJSON(asBytes(raw))
		if err != nil {
			return value.Text(string(asBytes(raw))), nil
		}
		return value.JSON{Tree: tree}, nil
	case "_TEXT", "_VARCHAR", "_BPCHAR", "_NAME", "_UUID", "_TIMESTAMPTZ", "_NUMERIC":
		var a pq.StringArray
		if err := a.Scan(raw); err != nil {
			return nil, err
		}
		return value.TextArray(a), nil
	case "_INT2", "_INT4", "_INT8":
		var a pq.Int64Array
		if err := a.Scan(raw); err != nil {
			return nil, err
		}
		return value.IntegerArray(a), nil
	case "_FLOAT4", "_FLOAT8":
		var a pq.Float64Array
		if err := a.Scan(raw); err != nil {
			return nil, err
		}
		return value.FloatArray(a), nil
	case "_BOOL":
		var a pq.BoolArray
		if err := a.Scan(raw); err != nil {
			return nil, err
		}
		return value.BoolArray(a), nil
	case "_JSON", "_JSONB":
		var a pq.StringArray
		if err := a.Scan(raw); err != nil {
			return nil, err
		}
		docs := make(value.JSONArray, len(a))
		for i, s := range a {
			tree, err := value.DecodeJSON([]byte(s))
			if err != nil {
				return nil, err
			}
			docs[i] = tree
		}
		return docs, nil
	case "BOOL", "BOOLEAN":
		switch b := raw.(type) {
		case bool:
			return value.Bool(b), nil
		case int64:
			return value.Bool(b != 0), nil
		}
	}

	switch x := raw.(type) {
	case int64:
		return value.Integer(x), nil
	case int32:
		return value.Integer(x), nil
	case int:
		return value.Integer(x), nil
	case float64:
		return value.Float(x), nil
	case float32:
		return value.Float(x), nil
	case bool:
		return value.Bool(x), nil
	case time.Time:
		return value.Text(x.Format(time.RFC3339Nano)), nil
	case []byte:
		return value.Text(string(x)), nil
	case string:
		return value.Text(x), nil
	default:
		return value.Text(fmt.Sprint(x)), nil
	}
}

func asBytes(raw any) []byte {
	switch x := raw.(type) {
	case []byte:
		return x
	case string:
		return []byte(x)
	default:
		return []byte(fmt.Sprint(x))
	}
}
