// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package effects

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListViews_ParsesIsSecure(t *testing.T) {
	t.Parallel()

	r, mock := newTestRunner(t)

	mock.ExpectQuery(`SHOW VIEWS IN SCHEMA "db"\."sch"`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "database_name", "schema_name", "is_secure", "comment", "text"}).
			AddRow("v_orders", "db", "sch", "true", "", "SELECT * FROM orders").
			AddRow("v_plain", "db", "sch", "false", "", "SELECT 1"))

	views, err := r.ListViews(t.Context(), "db", "sch")
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.True(t, views[0].IsSecure)
	assert.False(t, views[1].IsSecure)
}
