// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package effects

import (
	"context"
	"fmt"
)

// Schema describes one schema as reported by SHOW SCHEMAS.
type Schema struct {
	Name         string `json:"name"`
	DatabaseName string `json:"database_name"`
	Owner        string `json:"owner"`
	Comment      string `json:"comment"`
}

// ListSchemas lists every schema in database, or in the session's current
// database if database is empty.
func (r *Runner) ListSchemas(ctx context.Context, database string) ([]Schema, error) {
	sqlText := "SHOW SCHEMAS"
	if database != "" {
		sqlText = fmt.Sprintf("SHOW SCHEMAS IN DATABASE %s", quoteIdent(database))
	}

	rows, err := r.queryRows(ctx, sqlText)
	if err != nil {
		return nil, err
	}

	schemas := make([]Schema, 0, len(rows))
	for _, rec := range rows {
		schemas = append(schemas, Schema{
			Name:         rec.asString("name"),
			DatabaseName: rec.asString("database_name"),
			Owner:        rec.asString("owner"),
			Comment:      rec.asString("comment"),
		})
	}
	return schemas, nil
}
