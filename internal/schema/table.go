package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/roach88/mealdb/internal/txn"
)

// TableName is the single table the meal database holds.
const TableName = "Meals"

// ColumnType is the storage class a column accepts.
type ColumnType int

const (
	Integer ColumnType = iota + 1
	Text
)

func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "INTEGER"
	case Text:
		return "TEXT"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// Column describes one column of the table contract.
type Column struct {
	Name        string
	Type        ColumnType
	Identity    bool // assigned by the store, never inserted
	MaxLen      int  // rune limit for Text columns; 0 means unlimited
	NonNegative bool // Integer columns only
}

// Table is the persisted layout contract.
type Table struct {
	Name    string
	Columns []Column
}

// Meals is the fixed record schema: identity, name, calories, carbs.
var Meals = Table{
	Name: TableName,
	Columns: []Column{
		{Name: "meal_id", Type: Integer, Identity: true},
		{Name: "name", Type: Text, MaxLen: 55},
		{Name: "calories", Type: Integer, NonNegative: true},
		{Name: "carbs", Type: Integer, NonNegative: true},
	},
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// DropSQL returns the drop-if-exists statement.
func (t Table) DropSQL() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", t.Name)
}

// CreateSQL renders the CREATE TABLE statement for the contract.
func (t Table) CreateSQL() string {
	defs := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		var b strings.Builder
		b.WriteString(c.Name)
		switch {
		case c.Identity:
			b.WriteString(" INTEGER PRIMARY KEY NOT NULL")
		case c.Type == Text && c.MaxLen > 0:
			fmt.Fprintf(&b, " VARCHAR(%d) NOT NULL", c.MaxLen)
		default:
			fmt.Fprintf(&b, " %s NOT NULL", c.Type)
		}
		if c.NonNegative && !c.Identity {
			fmt.Fprintf(&b, " CHECK(%s >= 0)", c.Name)
		}
		defs = append(defs, b.String())
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.Name, strings.Join(defs, ",\n\t"))
}

// Insert is a parameterised insert of one row, kept structured until it has
// been checked against the table.
type Insert struct {
	Columns []string
	Values  []any
}

// Check validates ins against t. index is the statement's position in the
// migration and is reported in the *SchemaError.
func (t Table) Check(index int, ins Insert) error {
	if len(ins.Columns) == 0 {
		return &SchemaError{Statement: index, Reason: "insert names no columns"}
	}
	if len(ins.Columns) != len(ins.Values) {
		return &SchemaError{Statement: index, Reason: fmt.Sprintf("%d columns but %d values", len(ins.Columns), len(ins.Values))}
	}
	seen := make(map[string]bool, len(ins.Columns))
	for i, name := range ins.Columns {
		col, ok := t.Column(name)
		if !ok {
			return &SchemaError{Statement: index, Column: name, Reason: "no such column"}
		}
		if seen[name] {
			return &SchemaError{Statement: index, Column: name, Reason: "column given twice"}
		}
		seen[name] = true
		if col.Identity {
			return &SchemaError{Statement: index, Column: name, Reason: "identity is assigned by the store"}
		}
		if reason := col.check(ins.Values[i]); reason != "" {
			return &SchemaError{Statement: index, Column: name, Reason: reason}
		}
	}
	for _, col := range t.Columns {
		if !col.Identity && !seen[col.Name] {
			return &SchemaError{Statement: index, Column: col.Name, Reason: "value required"}
		}
	}
	return nil
}

// check returns a non-empty reason when v does not fit the column.
func (c Column) check(v any) string {
	switch c.Type {
	case Integer:
		n, ok := asInt64(v)
		if !ok {
			return fmt.Sprintf("expected integer, got %T (%v)", v, v)
		}
		if c.NonNegative && n < 0 {
			return fmt.Sprintf("must be non-negative, got %d", n)
		}
	case Text:
		s, ok := v.(string)
		if !ok {
			return fmt.Sprintf("expected text, got %T (%v)", v, v)
		}
		if strings.TrimSpace(s) == "" {
			return "must not be empty"
		}
		if c.MaxLen > 0 && utf8.RuneCountInString(s) > c.MaxLen {
			return fmt.Sprintf("longer than %d characters", c.MaxLen)
		}
	default:
		return fmt.Sprintf("unsupported column type %v", c.Type)
	}
	return ""
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}

// Statement renders ins as a bound-parameter exec statement.
func (t Table) Statement(ins Insert) txn.Statement {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(ins.Columns)), ", ")
	return txn.Exec(
		fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.Name, strings.Join(ins.Columns, ", "), marks),
		ins.Values...,
	)
}
