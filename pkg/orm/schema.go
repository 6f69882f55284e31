package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const columnsQuery = `SELECT column_name, data_type, character_maximum_length, is_nullable
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
ORDER BY ordinal_position`

// Column describes one table column.
type Column struct {
	Name     string
	DataType string
	// Length is the declared maximum length for character types, 0 when unbounded.
	Length   int
	Nullable bool
}

// IsStringy reports whether the column holds text.
func (c Column) IsStringy() bool {
	switch strings.ToLower(c.DataType) {
	case "text", "citext", "character varying", "varchar", "character", "char", "bpchar":
		return true
	}
	return false
}

// IsBounded reports whether the column is a char or varchar with a declared length.
func (c Column) IsBounded() bool {
	return c.IsStringy() && c.Length > 0
}

// TableInfo is the column metadata of a table.
type TableInfo struct {
	Name    string
	Columns []Column
}

// Field returns the column called name.
func (t *TableInfo) Field(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

type columnRow struct {
	Name       string        `db:"column_name"`
	DataType   string        `db:"data_type"`
	MaxLength  sql.NullInt64 `db:"character_maximum_length"`
	IsNullable string        `db:"is_nullable"`
}

// Inspect reads the columns of table from information_schema.
func Inspect(ctx context.Context, q sqlx.QueryerContext, table string) (*TableInfo, error) {
	var rows []columnRow
	if err := sqlx.SelectContext(ctx, q, &rows, columnsQuery, table); err != nil {
		return nil, errors.Join(ErrQuery, fmt.Errorf("inspect %s: %w", table, err))
	}
	if len(rows) == 0 {
		return nil, errors.Join(ErrTableNotFound, fmt.Errorf("%q", table))
	}

	info := &TableInfo{Name: table, Columns: make([]Column, 0, len(rows))}
	for _, r := range rows {
		info.Columns = append(info.Columns, Column{
			Name:     r.Name,
			DataType: r.DataType,
			Length:   int(r.MaxLength.Int64),
			Nullable: strings.EqualFold(r.IsNullable, "YES"),
		})
	}
	return info, nil
}
