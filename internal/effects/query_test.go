// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package effects

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteReadOnlyQuery_RunsSelect(t *testing.T) {
	t.Parallel()

	r, mock := newTestRunner(t)

	mock.ExpectQuery(`^SELECT id FROM t$`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))

	result, err := r.ExecuteReadOnlyQuery(t.Context(), "SELECT id FROM t")
	require.NoError(t, err)
	assert.Equal(t, 2, result.RowCount)
}

func TestExecuteReadOnlyQuery_RejectsWrite(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)

	_, err := r.ExecuteReadOnlyQuery(t.Context(), "DELETE FROM t")
	assert.ErrorIs(t, err, ErrWriteStatement)
}
