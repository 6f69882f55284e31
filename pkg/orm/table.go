package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
)

// DefaultKey is the primary key column used by NewTable.
const DefaultKey = "id"

// TableOption configures a Table.
type TableOption func(*tableOptions)

type tableOptions struct {
	key string
}

// WithKey sets the primary key column.
func WithKey(column string) TableOption {
	return func(o *tableOptions) {
		if column != "" {
			o.key = column
		}
	}
}

// Table maps rows of one table to T, a struct with `db` tags.
type Table[T any] struct {
	db   *DB
	name string
	key  string
}

// NewTable creates a Table for name.
func NewTable[T any](db *DB, name string, opts ...TableOption) *Table[T] {
	o := &tableOptions{key: DefaultKey}
	for _, opt := range opts {
		opt(o)
	}
	return &Table[T]{db: db, name: name, key: o.key}
}

// Collection returns the table name.
func (t *Table[T]) Collection() string {
	return t.name
}

// Key returns the primary key column.
func (t *Table[T]) Key() string {
	return t.key
}

// DB returns the database the table reads from and writes to.
func (t *Table[T]) DB() *DB {
	return t.db
}

// FindByID loads the row whose key equals id.
func (t *Table[T]) FindByID(ctx context.Context, id string) (T, error) {
	var rec T
	q := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1 LIMIT 1", t.ident(), quote(t.key))
	if err := t.db.Reader().GetContext(ctx, &rec, q, id); err != nil {
		return rec, t.wrap(err)
	}
	return rec, nil
}

// All loads every row ordered by key.
func (t *Table[T]) All(ctx context.Context) ([]T, error) {
	var recs []T
	q := fmt.Sprintf("SELECT * FROM %s ORDER BY %s", t.ident(), quote(t.key))
	if err := t.db.Reader().SelectContext(ctx, &recs, q); err != nil {
		return nil, t.wrap(err)
	}
	return recs, nil
}

// Insert writes a row built from fields and returns it as stored.
func (t *Table[T]) Insert(ctx context.Context, fields map[string]any) (T, error) {
	var rec T
	if len(fields) == 0 {
		return rec, ErrNoFields
	}
	if t.db.Writer() == nil {
		return rec, ErrNoWriter
	}

	cols := slices.Sorted(maps.Keys(fields))
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		names[i] = quote(c)
		marks[i] = fmt.Sprintf("$%d", i+1)
		args[i] = fields[c]
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		t.ident(), strings.Join(names, ", "), strings.Join(marks, ", "))
	if err := t.db.Writer().GetContext(ctx, &rec, q, args...); err != nil {
		return rec, t.wrap(err)
	}
	return rec, nil
}

// Update sets fields on the row whose key equals id.
func (t *Table[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return ErrNoFields
	}
	if t.db.Writer() == nil {
		return ErrNoWriter
	}

	cols := slices.Sorted(maps.Keys(fields))
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", quote(c), i+1)
		args = append(args, fields[c])
	}
	args = append(args, id)

	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		t.ident(), strings.Join(sets, ", "), quote(t.key), len(args))
	return t.exec(ctx, q, args...)
}

// Delete removes the row whose key equals id.
func (t *Table[T]) Delete(ctx context.Context, id string) error {
	if t.db.Writer() == nil {
		return ErrNoWriter
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", t.ident(), quote(t.key))
	return t.exec(ctx, q, id)
}

// Info returns the table's column metadata.
func (t *Table[T]) Info(ctx context.Context) (*TableInfo, error) {
	return t.db.TableInfo(ctx, t.name)
}

func (t *Table[T]) exec(ctx context.Context, q string, args ...any) error {
	res, err := t.db.Writer().ExecContext(ctx, q, args...)
	if err != nil {
		return t.wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return t.wrap(err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", t.name, ErrNoRecord)
	}
	return nil
}

func (t *Table[T]) ident() string {
	return quote(t.name)
}

func (t *Table[T]) wrap(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", t.name, ErrNoRecord)
	}
	return errors.Join(ErrQuery, fmt.Errorf("%s: %w", t.name, err))
}

func quote(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}
