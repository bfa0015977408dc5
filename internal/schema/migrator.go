package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/mealdb/internal/logging"
	"github.com/roach88/mealdb/internal/txn"
)

// ProbeResult classifies the state of the Meals table.
type ProbeResult int

const (
	// Present means the table exists and rows can be read from it.
	Present ProbeResult = iota + 1
	// Missing means the table does not exist; migration will create it.
	Missing
	// Corrupt means the table could not be read for any other reason.
	Corrupt
)

func (r ProbeResult) String() string {
	switch r {
	case Present:
		return "present"
	case Missing:
		return "missing"
	case Corrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("ProbeResult(%d)", int(r))
	}
}

// Migrator checks for the Meals table and (re)creates and seeds it.
type Migrator struct {
	exec   *txn.Executor
	table  Table
	seed   []Meal
	logger *slog.Logger
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithSeed replaces the embedded seed catalogue.
func WithSeed(meals []Meal) Option {
	return func(m *Migrator) { m.seed = normalize(meals) }
}

// WithLogger sets the migrator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Migrator) { m.logger = l }
}

// New creates a Migrator. Without WithSeed the embedded catalogue is loaded.
func New(exec *txn.Executor, opts ...Option) (*Migrator, error) {
	m := &Migrator{exec: exec, table: Meals}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.With(m.logger, "schema")
	if m.seed == nil {
		seed, err := DefaultSeed()
		if err != nil {
			return nil, err
		}
		m.seed = seed
	}
	return m, nil
}

// Seed returns a copy of the meals CreateAndSeed inserts.
func (m *Migrator) Seed() []Meal {
	return append([]Meal(nil), m.seed...)
}

// Probe issues a minimal read against the Meals table.
//
// It returns Present with a nil error when the read succeeds, even if the
// table is empty. Otherwise the error is a *ProbeError whose Result is
// Missing when SQLite reports the table does not exist, and Corrupt for any
// other failure.
//
// A canceled ctx is returned as-is with a zero ProbeResult; it says nothing
// about the table.
func (m *Migrator) Probe(ctx context.Context, h txn.Beginner) (ProbeResult, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	probe := fmt.Sprintf("SELECT %s FROM %s LIMIT 1", m.columnList(), m.table.Name)
	_, err := m.exec.Run(ctx, h, []txn.Statement{txn.Query(probe)})
	if err == nil {
		m.logger.Debug("probe", "result", Present)
		return Present, nil
	}

	result := classify(err)
	m.logger.Debug("probe", "result", result, "error", err)
	return result, &ProbeError{Result: result, Err: err}
}

// classify separates "table does not exist" from every other read failure.
func classify(err error) ProbeResult {
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrError && strings.HasPrefix(se.Error(), "no such table") {
		return Missing
	}
	return Corrupt
}

// Plan builds the create+seed transaction: drop-if-exists, create-table,
// then one insert per seed meal. Every insert is checked against the table
// and the seed against #Meal, so a malformed migration fails here with a
// *SchemaError instead of reaching storage.
func (m *Migrator) Plan() ([]txn.Statement, error) {
	if err := ValidateSeed(m.seed); err != nil {
		var se *SchemaError
		if errors.As(err, &se) {
			se.Statement += 2 // offset past drop and create
		}
		return nil, err
	}

	stmts := []txn.Statement{
		txn.Exec(m.table.DropSQL()),
		txn.Exec(m.table.CreateSQL()),
	}
	for _, meal := range m.seed {
		ins := Insert{
			Columns: []string{"name", "calories", "carbs"},
			Values:  []any{meal.Name, meal.Calories, meal.Carbs},
		}
		if err := m.table.Check(len(stmts), ins); err != nil {
			return nil, err
		}
		stmts = append(stmts, m.table.Statement(ins))
	}
	return stmts, nil
}

// CreateAndSeed runs the migration as one transaction and returns the
// number of seeded meals. A *SchemaError means nothing was sent to the
// store; a *txn.TxError means the store rejected a statement and every
// statement, including the drop and create, was rolled back.
func (m *Migrator) CreateAndSeed(ctx context.Context, h txn.Beginner) (int, error) {
	stmts, err := m.Plan()
	if err != nil {
		m.logger.Warn("migration rejected", "error", err)
		return 0, err
	}
	if _, err := m.exec.Run(ctx, h, stmts); err != nil {
		m.logger.Warn("migration failed", "error", err)
		return 0, fmt.Errorf("create and seed %s: %w", m.table.Name, err)
	}
	m.logger.Info("table created and seeded", "table", m.table.Name, "meals", len(m.seed))
	return len(m.seed), nil
}

// QueryStatement is the read step of the query transaction. Rows come back
// in the store's natural order.
func (m *Migrator) QueryStatement() txn.Statement {
	return txn.Query(fmt.Sprintf("SELECT name, calories, carbs FROM %s", m.table.Name))
}

// MealsFromRows decodes rows produced by QueryStatement.
func MealsFromRows(rows [][]any) ([]Meal, error) {
	meals := make([]Meal, 0, len(rows))
	for i, row := range rows {
		if len(row) != 3 {
			return nil, fmt.Errorf("row %d: expected 3 columns, got %d", i, len(row))
		}
		name, ok := row[0].(string)
		if !ok {
			return nil, fmt.Errorf("row %d: name: expected text, got %T", i, row[0])
		}
		calories, ok := row[1].(int64)
		if !ok {
			return nil, fmt.Errorf("row %d: calories: expected integer, got %T", i, row[1])
		}
		carbs, ok := row[2].(int64)
		if !ok {
			return nil, fmt.Errorf("row %d: carbs: expected integer, got %T", i, row[2])
		}
		meals = append(meals, Meal{Name: name, Calories: int(calories), Carbs: int(carbs)})
	}
	return meals, nil
}

func (m *Migrator) columnList() string {
	names := make([]string, len(m.table.Columns))
	for i, c := range m.table.Columns {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}
