// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package effects

import (
	"context"
	"fmt"
)

// View describes one view as reported by SHOW VIEWS.
type View struct {
	Name         string `json:"name"`
	DatabaseName string `json:"database_name"`
	SchemaName   string `json:"schema_name"`
	IsSecure     bool   `json:"is_secure"`
	Comment      string `json:"comment"`
	Text         string `json:"text"`
}

// ListViews lists every view in database.schema.
func (r *Runner) ListViews(ctx context.Context, database, schema string) ([]View, error) {
	sqlText := fmt.Sprintf("SHOW VIEWS IN SCHEMA %s.%s", quoteIdent(database), quoteIdent(schema))

	rows, err := r.queryRows(ctx, sqlText)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(rows))
	for _, rec := range rows {
		views = append(views, View{
			Name:         rec.asString("name"),
			DatabaseName: rec.asString("database_name"),
			SchemaName:   rec.asString("schema_name"),
			IsSecure:     rec.asString("is_secure") == "true",
			Comment:      rec.asString("comment"),
			Text:         rec.asString("text"),
		})
	}
	return views, nil
}
