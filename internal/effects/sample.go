// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package effects

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// SampleRows returns up to n rows from database.schema.table, preferring
// Snowflake's fixed-size row sampling clause (SAMPLE (n ROWS)) and falling
// back to a plain LIMIT if that query fails for any reason (e.g. the
// object is a view the engine won't sample).
func (r *Runner) SampleRows(ctx context.Context, database, schema, table string, n int) (*QueryResult, error) {
	if n <= 0 {
		n = 100
	}

	qualified := fmt.Sprintf("%s.%s.%s", quoteIdent(database), quoteIdent(schema), quoteIdent(table))

	sampleSQL := fmt.Sprintf("SELECT * FROM %s SAMPLE (%d ROWS)", qualified, n)
	rows, err := r.queryRows(ctx, sampleSQL)
	if err == nil {
		return &QueryResult{Rows: rows, RowCount: len(rows)}, nil
	}

	log.Debug().Err(err).Str("table", qualified).Msg("effects: SAMPLE unsupported, falling back to LIMIT")

	limitSQL := fmt.Sprintf("SELECT * FROM %s LIMIT %d", qualified, n)
	rows, err = r.queryRows(ctx, limitSQL)
	if err != nil {
		return nil, err
	}
	return &QueryResult{Rows: rows, RowCount: len(rows)}, nil
}
