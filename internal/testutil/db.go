package testutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"resume-match/internal/database"
)

// Call records one statement sent to a FakeDB.
type Call struct {
	Query string
	Args  []any
}

// FakeDB is a scriptable database.DB. Unset hooks succeed with no rows.
type FakeDB struct {
	mu    sync.Mutex
	Execs []Call
	Reads []Call

	// Commits and Rollbacks count finished transactions.
	Commits   int
	Rollbacks int
	BeginErr  error

	ExecFunc     func(query string, args ...any) (int64, error)
	QueryFunc    func(query string, args ...any) ([][]any, error)
	QueryRowFunc func(query string, args ...any) ([]any, error)
}

var _ database.DB = (*FakeDB)(nil)

func (f *FakeDB) Ping(context.Context) error { return nil }
func (f *FakeDB) Close() error               { return nil }

func (f *FakeDB) Exec(_ context.Context, query string, args ...any) (int64, error) {
	f.mu.Lock()
	f.Execs = append(f.Execs, Call{Query: query, Args: args})
	f.mu.Unlock()
	if f.ExecFunc != nil {
		return f.ExecFunc(query, args...)
	}
	return 1, nil
}

func (f *FakeDB) Query(_ context.Context, query string, args ...any) (database.Rows, error) {
	f.mu.Lock()
	f.Reads = append(f.Reads, Call{Query: query, Args: args})
	f.mu.Unlock()
	if f.QueryFunc == nil {
		return &Rows{}, nil
	}
	data, err := f.QueryFunc(query, args...)
	if err != nil {
		return nil, err
	}
	return &Rows{data: data, pos: -1}, nil
}

func (f *FakeDB) QueryRow(_ context.Context, query string, args ...any) database.Row {
	f.mu.Lock()
	f.Reads = append(f.Reads, Call{Query: query, Args: args})
	f.mu.Unlock()
	if f.QueryRowFunc == nil {
		return Row{err: sql.ErrNoRows}
	}
	vals, err := f.QueryRowFunc(query, args...)
	return Row{vals: vals, err: err}
}

func (f *FakeDB) Begin(context.Context) (database.Tx, error) {
	if f.BeginErr != nil {
		return nil, f.BeginErr
	}
	return fakeTx{db: f}, nil
}

type fakeTx struct{ db *FakeDB }

func (t fakeTx) Exec(ctx context.Context, q string, args ...any) (int64, error) {
	return t.db.Exec(ctx, q, args...)
}

func (t fakeTx) Query(ctx context.Context, q string, args ...any) (database.Rows, error) {
	return t.db.Query(ctx, q, args...)
}

func (t fakeTx) QueryRow(ctx context.Context, q string, args ...any) database.Row {
	return t.db.QueryRow(ctx, q, args...)
}

func (t fakeTx) Commit(context.Context) error {
	t.db.mu.Lock()
	t.db.Commits++
	t.db.mu.Unlock()
	return nil
}

func (t fakeTx) Rollback(context.Context) error {
	t.db.mu.Lock()
	t.db.Rollbacks++
	t.db.mu.Unlock()
	return nil
}

// Rows iterates over scripted values.
type Rows struct {
	data [][]any
	pos  int
	err  error
}

func (r *Rows) Close() {}

func (r *Rows) Next() bool {
	if r.data == nil {
		return false
	}
	r.pos++
	return r.pos < len(r.data)
}

func (r *Rows) Scan(dest ...any) error {
	if r.pos < 0 || r.pos >= len(r.data) {
		return errors.New("scan outside rows")
	}
	return assign(r.data[r.pos], dest)
}

func (r *Rows) Err() error { return r.err }

type Row struct {
	vals []any
	err  error
}

func (r Row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.vals, dest)
}

func assign(vals []any, dest []any) error {
	if len(vals) != len(dest) {
		return fmt.Errorf("scan: have %d values, %d destinations", len(vals), len(dest))
	}
	for i, v := range vals {
		dv := reflect.ValueOf(dest[i])
		if dv.Kind() != reflect.Pointer || dv.IsNil() {
			return fmt.Errorf("scan: destination %d is not a pointer", i)
		}
		target := dv.Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		sv := reflect.ValueOf(v)
		switch {
		case sv.Type().AssignableTo(target.Type()):
			target.Set(sv)
		case target.Kind() == reflect.Pointer && sv.Type().AssignableTo(target.Type().Elem()):
			p := reflect.New(target.Type().Elem())
			p.Elem().Set(sv)
			target.Set(p)
		case sv.Type().ConvertibleTo(target.Type()):
			target.Set(sv.Convert(target.Type()))
		default:
			return fmt.Errorf("scan: cannot assign %T to %s", v, target.Type())
		}
	}
	return nil
}
