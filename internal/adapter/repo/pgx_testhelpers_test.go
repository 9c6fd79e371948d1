package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type SimpleRow struct {
	scan func(dest ...any) error
}

func NewSimpleRow(scanner func(dest ...any) error) SimpleRow {
	return SimpleRow{scan: scanner}
}

func (r SimpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type TestRowsBase struct{}

func (TestRowsBase) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (TestRowsBase) Conn() *pgx.Conn { return nil }

func (TestRowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (TestRowsBase) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (TestRowsBase) RawValues() [][]byte { return nil }

type storedBundle struct {
	id      string
	used    bool
	payload []byte
}

func (s storedBundle) scan(dest ...any) error {
	if len(dest) != 2 {
		return fmt.Errorf("scan: got %d destinations, want 2", len(dest))
	}
	*(dest[0].(*[]byte)) = s.payload
	*(dest[1].(*bool)) = s.used
	return nil
}

type bundleRows struct {
	TestRowsBase
	rows []storedBundle
	idx  int
}

func (r *bundleRows) Close() {}

func (r *bundleRows) Err() error { return nil }

func (r *bundleRows) Next() bool {
	r.idx++
	return r.idx <= len(r.rows)
}

func (r *bundleRows) Scan(dest ...any) error {
	return r.rows[r.idx-1].scan(dest...)
}

type execCall struct {
	query string
	args  []any
}

// fakeBundleDB keeps prompt_bundles rows oldest first and records every
// statement it receives.
type fakeBundleDB struct {
	rows       []storedBundle
	execs      []execCall
	queries    []execCall
	commits    int
	rollbacks  int
	failInsert error
}

func (db *fakeBundleDB) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	rows, err := db.apply(db.rows, query, args)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	db.rows = rows
	return pgconn.CommandTag{}, nil
}

func (db *fakeBundleDB) apply(rows []storedBundle, query string, args []any) ([]storedBundle, error) {
	db.execs = append(db.execs, execCall{query: query, args: args})
	switch {
	case strings.HasPrefix(query, "create table"):
		return rows, nil
	case strings.HasPrefix(query, "insert into prompt_bundles"):
		if db.failInsert != nil {
			return rows, db.failInsert
		}
		return append(rows, storedBundle{
			id:      args[0].(string),
			used:    args[2].(bool),
			payload: args[4].([]byte),
		}), nil
	case strings.HasPrefix(query, "delete from prompt_bundles"):
		keep := args[0].(int)
		if len(rows) > keep {
			rows = append([]storedBundle(nil), rows[len(rows)-keep:]...)
		}
		return rows, nil
	}
	return rows, fmt.Errorf("unexpected exec: %s", query)
}

func (db *fakeBundleDB) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	db.queries = append(db.queries, execCall{query: query, args: args})
	id := args[0].(string)
	for i := range db.rows {
		if db.rows[i].id != id {
			continue
		}
		if strings.HasPrefix(query, "update prompt_bundles") {
			db.rows[i].used = args[1].(bool)
		}
		return NewSimpleRow(db.rows[i].scan)
	}
	return NewSimpleRow(nil)
}

func (db *fakeBundleDB) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	db.queries = append(db.queries, execCall{query: query, args: args})
	unusedOnly := args[0].(bool)
	limit := args[1].(int)
	var out []storedBundle
	for i := len(db.rows) - 1; i >= 0; i-- {
		if unusedOnly && db.rows[i].used {
			continue
		}
		out = append(out, db.rows[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return &bundleRows{rows: out}, nil
}

func (db *fakeBundleDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return &fakeBundleTx{db: db, staged: append([]storedBundle(nil), db.rows...)}, nil
}

// fakeBundleTx stages writes until Commit. Methods it does not override
// panic through the nil embedded pgx.Tx.
type fakeBundleTx struct {
	pgx.Tx
	db     *fakeBundleDB
	staged []storedBundle
	closed bool
}

func (tx *fakeBundleTx) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	rows, err := tx.db.apply(tx.staged, query, args)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	tx.staged = rows
	return pgconn.CommandTag{}, nil
}

func (tx *fakeBundleTx) Commit(ctx context.Context) error {
	if tx.closed {
		return pgx.ErrTxClosed
	}
	tx.closed = true
	tx.db.rows = tx.staged
	tx.db.commits++
	return nil
}

func (tx *fakeBundleTx) Rollback(ctx context.Context) error {
	if tx.closed {
		return pgx.ErrTxClosed
	}
	tx.closed = true
	tx.db.rollbacks++
	return nil
}
