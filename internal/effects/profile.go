// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package effects

import (
	"context"
	"encoding/json"
)

// SemiStructuredProfile reports, for one VARIANT/OBJECT/ARRAY column, the
// top-level keys observed across a bounded sample and a count of each
// top-level JSON type encountered (object, array, string, number, bool,
// null).
type SemiStructuredProfile struct {
	Column       string         `json:"column"`
	SampledRows  int            `json:"sampled_rows"`
	TopLevelKeys []string       `json:"top_level_keys"`
	TypeCounts   map[string]int `json:"type_counts"`
}

// ProfileSemiStructuredColumns samples up to sampleSize rows of
// database.schema.table and tabulates the shape of each named
// semi-structured column. The Snowflake driver surfaces VARIANT/OBJECT/
// ARRAY values as JSON-encoded strings, which this decodes per row.
func (r *Runner) ProfileSemiStructuredColumns(ctx context.Context, database, schema, table string, columns []string, sampleSize int) ([]SemiStructuredProfile, error) {
	if len(columns) == 0 {
		return nil, nil
	}

	sample, err := r.SampleRows(ctx, database, schema, table, sampleSize)
	if err != nil {
		return nil, err
	}

	profiles := make([]SemiStructuredProfile, len(columns))
	for i, col := range columns {
		profiles[i] = profileColumn(col, sample.Rows)
	}
	return profiles, nil
}

func profileColumn(col string, rows []Record) SemiStructuredProfile {
	profile := SemiStructuredProfile{
		Column:      col,
		SampledRows: len(rows),
		TypeCounts:  make(map[string]int),
	}

	seenKeys := make(map[string]bool)

	for _, row := range rows {
		raw, ok := row[col]
		if !ok || raw == nil {
			profile.TypeCounts["null"]++
			continue
		}

		text, ok := raw.(string)
		if !ok {
			profile.TypeCounts["unknown"]++
			continue
		}

		var decoded any
		if err := json.Unmarshal([]byte(text), &decoded); err != nil {
			profile.TypeCounts["unparseable"]++
			continue
		}

		switch v := decoded.(type) {
		case map[string]any:
			profile.TypeCounts["object"]++
			for key := range v {
				if !seenKeys[key] {
					seenKeys[key] = true
					profile.TopLevelKeys = append(profile.TopLevelKeys, key)
				}
			}
		case []any:
			profile.TypeCounts["array"]++
		case string:
			profile.TypeCounts["string"]++
		case float64:
			profile.TypeCounts["number"]++
		case bool:
			profile.TypeCounts["bool"]++
		case nil:
			profile.TypeCounts["null"]++
		}
	}

	return profile
}
