// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package effects

import (
	"context"
	"fmt"
	"strings"
)

// Table describes one table as reported by SHOW TABLES.
type Table struct {
	Name         string `json:"name"`
	DatabaseName string `json:"database_name"`
	SchemaName   string `json:"schema_name"`
	Kind         string `json:"kind"`
	RowCount     int64  `json:"row_count"`
	Comment      string `json:"comment"`
}

// ListTables lists tables in database.schema, optionally filtered to
// names containing nameFilter (case-insensitive substring match, applied
// client-side since SHOW TABLES' own LIKE clause only supports SQL
// wildcards, not arbitrary substrings).
func (r *Runner) ListTables(ctx context.Context, database, schema, nameFilter string) ([]Table, error) {
	sqlText := fmt.Sprintf("SHOW TABLES IN SCHEMA %s.%s", quoteIdent(database), quoteIdent(schema))

	rows, err := r.queryRows(ctx, sqlText)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(nameFilter)
	tables := make([]Table, 0, len(rows))
	for _, rec := range rows {
		name := rec.asString("name")
		if needle != "" && !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		tables = append(tables, Table{
			Name:         name,
			DatabaseName: rec.asString("database_name"),
			SchemaName:   rec.asString("schema_name"),
			Kind:         rec.asString("kind"),
			RowCount:     rec.asInt64("rows"),
			Comment:      rec.asString("comment"),
		})
	}
	return tables, nil
}

// ColumnDef describes one column as reported by DESCRIBE TABLE.
type ColumnDef struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	Default    string `json:"default"`
	PrimaryKey bool   `json:"primary_key"`
	Comment    string `json:"comment"`
}

// DescribeTable returns the column definitions of database.schema.table.
func (r *Runner) DescribeTable(ctx context.Context, database, schema, table string) ([]ColumnDef, error) {
	sqlText := fmt.Sprintf("DESCRIBE TABLE %s.%s.%s", quoteIdent(database), quoteIdent(schema), quoteIdent(table))

	rows, err := r.queryRows(ctx, sqlText)
	if err != nil {
		return nil, err
	}

	cols := make([]ColumnDef, 0, len(rows))
	for _, rec := range rows {
		cols = append(cols, ColumnDef{
			Name:       rec.asString("name"),
			Type:       rec.asString("type"),
			Nullable:   strings.EqualFold(rec.asString("null?"), "Y"),
			Default:    rec.asString("default"),
			PrimaryKey: strings.EqualFold(rec.asString("primary key"), "Y"),
			Comment:    rec.asString("comment"),
		})
	}
	return cols, nil
}
