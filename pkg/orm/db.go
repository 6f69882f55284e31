package orm

import (
	"context"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// DriverName is the database/sql driver name registered by pgx.
const DriverName = "pgx"

// DB routes writes to the primary and reads to replicas.
type DB struct {
	writer  *sqlx.DB
	readers []*sqlx.DB
	next    atomic.Uint64
}

// New creates a DB from sqlx handles. readers may be empty.
func New(writer *sqlx.DB, readers ...*sqlx.DB) *DB {
	return &DB{writer: writer, readers: readers}
}

// Open bridges pgx pools to sqlx. The first write pool is the writer; any
// further write pools are used as readers alongside the read pools.
// Closing the pools stays the caller's job.
func Open(writers, readers []*pgxpool.Pool) *DB {
	d := &DB{}
	for i, p := range writers {
		x := sqlx.NewDb(stdlib.OpenDBFromPool(p), DriverName)
		if i == 0 {
			d.writer = x
			continue
		}
		d.readers = append(d.readers, x)
	}
	for _, p := range readers {
		d.readers = append(d.readers, sqlx.NewDb(stdlib.OpenDBFromPool(p), DriverName))
	}
	return d
}

// Writer returns the primary handle.
func (d *DB) Writer() *sqlx.DB {
	return d.writer
}

// Reader returns the next replica, or the writer when there are none.
func (d *DB) Reader() *sqlx.DB {
	if len(d.readers) == 0 {
		return d.writer
	}
	n := d.next.Add(1) - 1
	return d.readers[n%uint64(len(d.readers))]
}

// WithTx runs fn in a transaction on the writer.
// The transaction is rolled back when fn returns an error or panics.
func (d *DB) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if d.writer == nil {
		return ErrNoWriter
	}

	tx, err := d.writer.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// TableInfo returns column metadata for table, read from a replica.
func (d *DB) TableInfo(ctx context.Context, table string) (*TableInfo, error) {
	return Inspect(ctx, d.Reader(), table)
}
