package txn

import "fmt"

// Kind distinguishes statements that modify the store from statements that
// read rows back.
type Kind int

const (
	// KindExec is a schema or data statement whose rows (if any) are ignored.
	KindExec Kind = iota + 1
	// KindQuery is a read statement whose rows are collected in the Outcome.
	KindQuery
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindExec:
		return "exec"
	case KindQuery:
		return "query"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Statement is one step of a transaction: SQL text plus bound parameters.
type Statement struct {
	Kind Kind
	SQL  string
	Args []any
}

// Exec builds a KindExec statement.
func Exec(sql string, args ...any) Statement {
	return Statement{Kind: KindExec, SQL: sql, Args: args}
}

// Query builds a KindQuery statement.
func Query(sql string, args ...any) Statement {
	return Statement{Kind: KindQuery, SQL: sql, Args: args}
}

// Result is what a single statement produced.
type Result struct {
	// Columns and Rows are set for KindQuery statements. Row order is the
	// order the store returned them in.
	Columns []string
	Rows    [][]any

	// RowsAffected is set for KindExec statements when the driver reports it.
	RowsAffected int64
}

// Outcome is the result of a committed transaction, one Result per
// statement in the order the statements were given.
type Outcome struct {
	Results []Result
}

// Rows returns the rows of every query statement, concatenated in
// statement order.
func (o Outcome) Rows() [][]any {
	var rows [][]any
	for _, r := range o.Results {
		rows = append(rows, r.Rows...)
	}
	return rows
}
