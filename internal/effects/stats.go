// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package effects

import (
	"context"
	"fmt"
	"strings"
)

// ColumnStatistics summarizes one column: min/max, distinct count, and
// null count, from a single aggregation query over the whole table.
type ColumnStatistics struct {
	Column        string `json:"column"`
	Min           any    `json:"min"`
	Max           any    `json:"max"`
	Avg           any    `json:"avg"`
	DistinctCount int64  `json:"distinct_count"`
	NullCount     int64  `json:"null_count"`
}

// AnalyzeTableStatistics runs one aggregation query over database.schema.
// table covering every column in columns, then splits the single result
// row back out per column.
func (r *Runner) AnalyzeTableStatistics(ctx context.Context, database, schema, table string, columns []string) ([]ColumnStatistics, error) {
	if len(columns) == 0 {
		return nil, nil
	}

	qualified := fmt.Sprintf("%s.%s.%s", quoteIdent(database), quoteIdent(schema), quoteIdent(table))

	exprs := make([]string, 0, len(columns)*5)
	for i, col := range columns {
		c := quoteIdent(col)
		exprs = append(exprs,
			fmt.Sprintf("MIN(%s) AS c%d_min", c, i),
			fmt.Sprintf("MAX(%s) AS c%d_max", c, i),
			fmt.Sprintf("AVG(%s) AS c%d_avg", c, i),
			fmt.Sprintf("COUNT(DISTINCT %s) AS c%d_distinct", c, i),
			fmt.Sprintf("COUNT(*) - COUNT(%s) AS c%d_nulls", c, i),
		)
	}

	sqlText := fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), qualified)

	rows, err := r.queryRows(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]

	stats := make([]ColumnStatistics, len(columns))
	for i, col := range columns {
		stats[i] = ColumnStatistics{
			Column:        col,
			Min:           row[fmt.Sprintf("c%d_min", i)],
			Max:           row[fmt.Sprintf("c%d_max", i)],
			Avg:           row[fmt.Sprintf("c%d_avg", i)],
			DistinctCount: row.asInt64(fmt.Sprintf("c%d_distinct", i)),
			NullCount:     row.asInt64(fmt.Sprintf("c%d_nulls", i)),
		}
	}
	return stats, nil
}
