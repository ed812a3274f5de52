// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package effects

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeTableStatistics_SplitsSingleRowPerColumn(t *testing.T) {
	t.Parallel()

	r, mock := newTestRunner(t)

	mock.ExpectQuery(`(?s)SELECT .* FROM "db"\."sch"\."orders"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"c0_min", "c0_max", "c0_avg", "c0_distinct", "c0_nulls",
			"c1_min", "c1_max", "c1_avg", "c1_distinct", "c1_nulls",
		}).AddRow(
			int64(1), int64(100), float64(50.5), int64(20), int64(2),
			"alice", "zed", nil, int64(5), int64(0),
		))

	stats, err := r.AnalyzeTableStatistics(t.Context(), "db", "sch", "orders", []string{"amount", "name"})
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "amount", stats[0].Column)
	assert.Equal(t, int64(1), stats[0].Min)
	assert.Equal(t, int64(100), stats[0].Max)
	assert.Equal(t, int64(20), stats[0].DistinctCount)
	assert.Equal(t, int64(2), stats[0].NullCount)

	assert.Equal(t, "name", stats[1].Column)
	assert.Equal(t, "alice", stats[1].Min)
	assert.Equal(t, "zed", stats[1].Max)
	assert.Equal(t, int64(5), stats[1].DistinctCount)
}

func TestAnalyzeTableStatistics_NoColumnsReturnsNil(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)

	stats, err := r.AnalyzeTableStatistics(t.Context(), "db", "sch", "orders", nil)
	require.NoError(t, err)
	assert.Nil(t, stats)
}
